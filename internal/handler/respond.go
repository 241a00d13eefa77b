package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"kolekta/internal/identity"
	"kolekta/internal/service"
)

// httpStatus maps service error codes to transport status codes. The body
// always carries the single error string verbatim; callers surface it.
func httpStatus(err error) int {
	switch service.ErrorCode(err) {
	case identity.ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case service.ErrCodeNotFoundOrUnauthorized:
		return http.StatusNotFound
	case service.ErrCodeInvalidTransition:
		return http.StatusConflict
	case service.ErrCodeValidationFailure:
		return http.StatusBadRequest
	case service.ErrCodePersistenceFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatus(err), map[string]string{"error": err.Error()})
}
