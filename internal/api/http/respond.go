package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/edupulse/edupulse-backend/internal/record"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Every failure path returns {"error": "..."} with a non-2xx status; no
// endpoint surfaces a bare-text body or a panic.
func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, record.ErrInvalidBatch):
		return http.StatusBadRequest
	case errors.Is(err, record.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
