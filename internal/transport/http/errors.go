package http

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	// Детали конфликта остатков, заполняются только для insufficient stock.
	ProductID string `json:"product_id,omitempty"`
	Requested int32  `json:"requested,omitempty"`
	Available int32  `json:"available,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// errorStatus переводит доменную ошибку в HTTP-статус и тело ответа.
// Внутренние ошибки наружу не раскрываются: клиент получает непрозрачное
// сообщение, детали остаются в логе вызывающего.
func errorStatus(err error) (int, errorResponse) {
	if stockErr, ok := domain.AsInsufficientStock(err); ok {
		return http.StatusConflict, errorResponse{
			Error:     stockErr.Error(),
			ProductID: stockErr.ProductID,
			Requested: stockErr.Requested,
			Available: stockErr.Available,
		}
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: err.Error()}
	case domain.IsNotFound(err):
		return http.StatusNotFound, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrUsernameTaken),
		errors.Is(err, domain.ErrEntityInUse),
		errors.Is(err, domain.ErrIdempotencyHashMismatch):
		return http.StatusConflict, errorResponse{Error: err.Error()}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal error"}
	}
}

func writeError(w http.ResponseWriter, logger *log.Entry, err error) {
	code, body := errorStatus(err)
	if code == http.StatusInternalServerError && logger != nil {
		logger.WithError(err).Error("request failed")
	}
	writeJSON(w, code, body)
}
