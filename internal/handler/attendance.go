package handler

import (
	"net/http"

	"kolekta/internal/identity"
	"kolekta/internal/service"
)

type AttendanceHandler struct {
	svc      *service.AttendanceService
	resolver identity.Resolver
}

func NewAttendanceHandler(svc *service.AttendanceService, resolver identity.Resolver) *AttendanceHandler {
	return &AttendanceHandler{svc: svc, resolver: resolver}
}

func (h *AttendanceHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/attendance/clock-in", h.handleClockIn)
	mux.HandleFunc("POST /api/attendance/clock-out", h.handleClockOut)
}

func (h *AttendanceHandler) handleClockIn(w http.ResponseWriter, r *http.Request) {
	ctx, actor, err := resolveActor(r, h.resolver)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.svc.ClockIn(ctx, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *AttendanceHandler) handleClockOut(w http.ResponseWriter, r *http.Request) {
	ctx, actor, err := resolveActor(r, h.resolver)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.svc.ClockOut(ctx, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
