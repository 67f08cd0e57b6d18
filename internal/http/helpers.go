package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/auth"
	"expensetracker/internal/services"
)

// messageResponse is the body of every error and of delete confirmations.
type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// errorStatus maps service errors to a status code, message and log error type.
func errorStatus(err error) (int, string, string) {
	var verr *core.ValidationError
	var nferr *core.NotFoundError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error(), applog.ErrorTypeValidation
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest, err.Error(), applog.ErrorTypeValidation
	case errors.As(err, &nferr):
		return http.StatusNotFound, nferr.Error(), applog.ErrorTypeNotFound
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "Not found", applog.ErrorTypeNotFound
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized, unauthorizedMessage(err), applog.ErrorTypeAuth
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, conflictMessage(err), applog.ErrorTypeConflict
	default:
		return http.StatusInternalServerError, err.Error(), applog.ErrorTypeInternal
	}
}

func unauthorizedMessage(err error) string {
	if errors.Is(err, services.ErrInvalidCredentials) {
		return "Invalid credentials"
	}
	if errors.Is(err, auth.ErrMissingToken) {
		return "No token, authorization denied"
	}
	return "Token is not valid"
}

func conflictMessage(err error) string {
	if errors.Is(err, services.ErrUserExists) {
		return "User already exists"
	}
	return "Conflict"
}

// writeError logs err and writes it as {message}. 5xx are logged at error level.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg, errType := errorStatus(err)
	logger := applog.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed",
			applog.FieldError, err,
			applog.FieldErrorType, errType,
			applog.FieldPath, r.URL.Path)
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			applog.FieldError, err,
			applog.FieldErrorType, errType,
			applog.FieldStatusCode, status)
	}
	writeMessage(w, status, msg)
}

func (s *Server) writeRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	writeMessage(w, http.StatusTooManyRequests, "Too many requests, please try again later")
}
