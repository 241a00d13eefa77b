package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"kolekta/internal/i18n"
	"kolekta/internal/identity"
	"kolekta/internal/model"
	"kolekta/internal/service"
)

// SubjectHeader names the header carrying the authenticated subject id,
// set by the gateway in front of this service.
const SubjectHeader = "X-User-ID"

// LocaleHeader selects the notification locale for this call's side effects.
const LocaleHeader = "X-Locale"

type RequestHandler struct {
	svc      *service.RequestService
	resolver identity.Resolver
}

func NewRequestHandler(svc *service.RequestService, resolver identity.Resolver) *RequestHandler {
	return &RequestHandler{svc: svc, resolver: resolver}
}

func (h *RequestHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/requests", h.handleCreate)
	mux.HandleFunc("GET /api/requests/{id}", h.handleGet)
	mux.HandleFunc("POST /api/requests/{id}/approve", h.handleApprove)
	mux.HandleFunc("POST /api/requests/{id}/confirm-payment", h.handleConfirmPayment)
	mux.HandleFunc("POST /api/requests/{id}/assign", h.handleAssign)
	mux.HandleFunc("POST /api/requests/{id}/accept", h.handleAccept)
	mux.HandleFunc("POST /api/requests/{id}/decline", h.handleDecline)
	mux.HandleFunc("POST /api/requests/{id}/status", h.handleUpdateStatus)
	mux.HandleFunc("POST /api/requests/{id}/complete", h.handleComplete)
	mux.HandleFunc("POST /api/requests/{id}/cancel", h.handleCancel)
	mux.HandleFunc("POST /api/requests/{id}/reject", h.handleReject)
}

func (h *RequestHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, actor, err := resolveActor(r, h.resolver)
	if err != nil {
		writeError(w, err)
		return
	}
	var in struct {
		RequesterName     string         `json:"requester_name"`
		RequesterPhone    string         `json:"requester_phone"`
		Barangay          string         `json:"barangay"`
		Address           string         `json:"address"`
		Priority          model.Priority `json:"priority"`
		PreferredDate     string         `json:"preferred_date"`
		PreferredTimeSlot string         `json:"preferred_time_slot"`
		Instructions      string         `json:"special_instructions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	req, err := h.svc.Create(ctx, actor, service.CreateRequestInput{
		RequesterName:     in.RequesterName,
		RequesterPhone:    in.RequesterPhone,
		Barangay:          in.Barangay,
		Address:           in.Address,
		Priority:          in.Priority,
		PreferredDate:     in.PreferredDate,
		PreferredTimeSlot: in.PreferredTimeSlot,
		Instructions:      in.Instructions,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *RequestHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, actor, err := resolveActor(r, h.resolver)
	if err != nil {
		writeError(w, err)
		return
	}
	req, err := h.svc.Get(ctx, actor, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx, actor, err := resolveActor(r, h.resolver)
	if err != nil {
		writeError(w, err)
		return
	}
	req, err := h.svc.Approve(ctx, actor, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx, actor, err := resolveActor(r, h.resolver)
	if err != nil {
		writeError(w, err)
		return
	}
	req, err := h.svc.ConfirmPayment(ctx, actor, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) handleAssign(w http.ResponseWriter, r *http.Request) {
	ctx, actor, err := resolveActor(r, h.resolver)
	if err != nil {
		writeError(w, err)
		return
	}
	var in struct {
		CollectorID string `json:"collector_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	req, err := h.svc.Assign(ctx, actor, r.PathValue("id"), in.CollectorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) handleAccept(w http.ResponseWriter, r *http.Request) {
	ctx, actor, err := resolveActor(r, h.resolver)
	if err != nil {
		writeError(w, err)
		return
	}
	req, err := h.svc.Accept(ctx, actor, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) handleDecline(w http.ResponseWriter, r *http.Request) {
	ctx, actor, err := resolveActor(r, h.resolver)
	if err != nil {
		writeError(w, err)
		return
	}
	reason, ok := decodeReason(w, r)
	if !ok {
		return
	}
	req, err := h.svc.Decline(ctx, actor, r.PathValue("id"), reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, actor, err := resolveActor(r, h.resolver)
	if err != nil {
		writeError(w, err)
		return
	}
	var in struct {
		Status model.RequestStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	req, err := h.svc.UpdateStatus(ctx, actor, r.PathValue("id"), in.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) handleComplete(w http.ResponseWriter, r *http.Request) {
	ctx, actor, err := resolveActor(r, h.resolver)
	if err != nil {
		writeError(w, err)
		return
	}
	var in struct {
		Notes string `json:"notes"`
	}
	if r.Body != nil {
		// Notes are optional; an empty body completes without them.
		_ = json.NewDecoder(r.Body).Decode(&in)
	}
	req, err := h.svc.Complete(ctx, actor, r.PathValue("id"), in.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx, actor, err := resolveActor(r, h.resolver)
	if err != nil {
		writeError(w, err)
		return
	}
	reason, ok := decodeReason(w, r)
	if !ok {
		return
	}
	req, err := h.svc.Cancel(ctx, actor, r.PathValue("id"), reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) handleReject(w http.ResponseWriter, r *http.Request) {
	ctx, actor, err := resolveActor(r, h.resolver)
	if err != nil {
		writeError(w, err)
		return
	}
	reason, ok := decodeReason(w, r)
	if !ok {
		return
	}
	req, err := h.svc.Reject(ctx, actor, r.PathValue("id"), reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func resolveActor(r *http.Request, resolver identity.Resolver) (ctx context.Context, actor identity.Actor, err error) {
	ctx = r.Context()
	if locale := r.Header.Get(LocaleHeader); locale != "" {
		ctx = i18n.WithLocale(ctx, locale)
	}
	actor, err = resolver.Resolve(ctx, r.Header.Get(SubjectHeader))
	return ctx, actor, err
}

func decodeReason(w http.ResponseWriter, r *http.Request) (string, bool) {
	var in struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return "", false
	}
	return in.Reason, true
}
