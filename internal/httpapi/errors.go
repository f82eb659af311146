package httpapi

import (
	"encoding/json"
	"net/http"

	"depthd/internal/manager"
	"depthd/internal/splat"
	"depthd/internal/xproc"
	"depthd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusForError maps the well-known manager/pipeline error kinds to HTTP
// status codes.
func statusForError(err error) int {
	switch {
	case manager.IsVariantNotFound(err):
		return http.StatusNotFound
	case manager.IsBusy(err) || splat.IsBusy(err):
		return http.StatusTooManyRequests
	case manager.IsDownloadFailure(err) || splat.IsDownloadFailure(err):
		return http.StatusBadGateway
	case xproc.IsTimeout(err):
		return http.StatusGatewayTimeout
	case xproc.IsToolFailure(err):
		return http.StatusBadGateway
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeError maps err to a status code and writes the JSON error payload.
func writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusTooManyRequests {
		IncrementBackpressure("manager_busy")
	}
	writeJSONError(w, status, err.Error())
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}
