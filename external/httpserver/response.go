package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/meeting"
)

const codeInvalidJSON = "invalid_json"

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorResponse{Error: code})
}

// writeDomainError maps a meeting error kind onto an HTTP status. Anything
// without a kind is an internal failure.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch meeting.KindOf(err) {
	case meeting.KindValidation, meeting.KindConflict:
		writeError(w, http.StatusBadRequest, meeting.CodeOf(err))
	case meeting.KindForbidden:
		writeError(w, http.StatusForbidden, meeting.CodeOf(err))
	case meeting.KindNotFound:
		writeError(w, http.StatusNotFound, meeting.CodeOf(err))
	default:
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

// decodeBody reads an optional JSON body into v. An empty body leaves v
// untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, codeInvalidJSON)
		return false
	}
	return true
}
