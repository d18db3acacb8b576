package handlers

import (
	"encoding/json"
	"net/http"

	"voltgrid/internal/apperr"
)

// errorResponse is the uniform failure body.
type errorResponse struct {
	Error                string `json:"error"`
	Kind                 string `json:"kind,omitempty"`
	Field                string `json:"field,omitempty"`
	ConflictingBookingID string `json:"conflicting_booking_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError maps typed business errors to status codes; anything
// untyped is an infrastructure failure.
func writeDomainError(w http.ResponseWriter, err error) {
	e, ok := apperr.As(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	var status int
	switch e.Kind {
	case apperr.KindInvalidArgument:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindPreconditionFailed:
		status = http.StatusPreconditionFailed
	case apperr.KindConflict:
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, errorResponse{
		Error:                e.Msg,
		Kind:                 e.Kind.String(),
		Field:                e.Field,
		ConflictingBookingID: e.ConflictID,
	})
}
