package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/UkralStul/modora-posts-service/internal/apperr"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondError переводит ошибку репозитория в HTTP-ответ.
// Клиентские ошибки отдаются как есть, внутренние логируются и скрываются за fallback.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(fallback,
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("requestID", middleware.GetReqID(r.Context())),
		)
		respondJSON(w, status, errorResponse{Error: fallback})
		return
	}

	var appErr *apperr.AppError
	message := err.Error()
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	respondJSON(w, status, errorResponse{Error: message})
}
