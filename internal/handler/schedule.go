package handler

import (
	"encoding/json"
	"net/http"

	"kolekta/internal/i18n"
	"kolekta/internal/identity"
	"kolekta/internal/model"
	"kolekta/internal/service"
)

type ScheduleHandler struct {
	svc      *service.ScheduleService
	resolver identity.Resolver
}

func NewScheduleHandler(svc *service.ScheduleService, resolver identity.Resolver) *ScheduleHandler {
	return &ScheduleHandler{svc: svc, resolver: resolver}
}

func (h *ScheduleHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/schedules", h.handleCreate)
	mux.HandleFunc("GET /api/schedules/{id}", h.handleGet)
	mux.HandleFunc("POST /api/schedules/{id}/accept", h.handleAccept)
	mux.HandleFunc("POST /api/schedules/{id}/decline", h.handleDecline)
}

func (h *ScheduleHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, actor, err := resolveActor(r, h.resolver)
	if err != nil {
		writeError(w, err)
		return
	}
	var in struct {
		Name                string               `json:"name"`
		Description         string               `json:"description"`
		StartDate           string               `json:"start_date"`
		EndDate             string               `json:"end_date"`
		TimeStart           string               `json:"time_start"`
		TimeEnd             string               `json:"time_end"`
		Stops               []model.ScheduleStop `json:"stops"`
		AssignedCollectorID string               `json:"assigned_collector_id"`
		Activate            bool                 `json:"activate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	sched, err := h.svc.Create(ctx, actor, service.CreateScheduleInput{
		Name:                in.Name,
		Description:         in.Description,
		StartDate:           in.StartDate,
		EndDate:             in.EndDate,
		TimeStart:           in.TimeStart,
		TimeEnd:             in.TimeEnd,
		Stops:               in.Stops,
		AssignedCollectorID: in.AssignedCollectorID,
		Activate:            in.Activate,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sched)
}

func (h *ScheduleHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, actor, err := resolveActor(r, h.resolver)
	if err != nil {
		writeError(w, err)
		return
	}
	sched, err := h.svc.Get(ctx, actor, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

func (h *ScheduleHandler) handleAccept(w http.ResponseWriter, r *http.Request) {
	ctx, actor, err := resolveActor(r, h.resolver)
	if err != nil {
		writeError(w, err)
		return
	}
	sched, err := h.svc.Accept(ctx, actor, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

// declineResponse lets the caller render the two decline outcomes
// differently; both are HTTP 200.
type declineResponse struct {
	Schedule           *model.CollectionSchedule `json:"schedule"`
	ReassignmentFailed bool                      `json:"reassignment_failed"`
	NewCollectorID     string                    `json:"new_collector_id,omitempty"`
	Message            string                    `json:"message"`
}

func (h *ScheduleHandler) handleDecline(w http.ResponseWriter, r *http.Request) {
	ctx, actor, err := resolveActor(r, h.resolver)
	if err != nil {
		writeError(w, err)
		return
	}
	reason, ok := decodeReason(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Decline(ctx, actor, r.PathValue("id"), reason)
	if err != nil {
		writeError(w, err)
		return
	}

	msgID := "schedule.decline.reassigned"
	if res.ReassignmentFailed {
		msgID = "schedule.decline.unassignable"
	}
	writeJSON(w, http.StatusOK, declineResponse{
		Schedule:           res.Schedule,
		ReassignmentFailed: res.ReassignmentFailed,
		NewCollectorID:     res.NewCollectorID,
		Message:            i18n.T(ctx, msgID),
	})
}
