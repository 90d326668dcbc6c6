package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/poyrazK/hostsdns/internal/core/domain"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindAuthentication:
		return http.StatusUnauthorized
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindDomainValidation, domain.KindRecordValidation, domain.KindInvalidRequest, domain.KindAlreadyExists:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("failed to encode response", "error", err)
	}
}

// writeError renders err as {"error", "message"}. Anything that is not a *domain.Error is
// logged and reported as internal_error without detail.
func writeError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		writeJSON(w, StatusFor(de.Kind), errorResponse{Error: de.Code, Message: de.Message})
		return
	}
	logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error"})
}
