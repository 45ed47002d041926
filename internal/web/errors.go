package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with its full technical detail server-side and
// returned to clients as a user-friendly JSON envelope with a support
// code. The cache's error taxonomy maps to status codes here:
//
//   NotFound            -> 404
//   FormatError/IOError -> 500 (the file is broken or unreadable;
//                          nothing the client sent caused it)

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/datafeed/internal/core"
)

// ErrorResponse is the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error and writes the mapped user
// message with the status implied by the error kind.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	requestID := middleware.GetReqID(r.Context())

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", requestID,
	)

	writeJSON(w, status, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// respondBadRequest writes a 400 with a literal message for malformed
// client input (bad query parameters and the like).
func respondBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   message,
		Message: message,
		Code:    "REQ001",
	})
}

// statusFor maps the cache error taxonomy to HTTP status codes.
func statusFor(err error) int {
	if core.IsNotFound(err) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
