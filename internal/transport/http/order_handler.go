package http

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const maxOrderBodySize = 1 << 20

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authorization required"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxOrderBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read body"})
		return
	}

	var req createOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	// Повтор запроса с тем же Idempotency-Key возвращает сохранённый ответ
	// вместо повторного списания остатков.
	idemKey := r.Header.Get("Idempotency-Key")
	useIdempotency := idemKey != "" && s.idempotency != nil
	if useIdempotency {
		requestHash := hashRequest(session.UserID, body)
		record, err := s.idempotency.CreateProcessing(idemKey, requestHash, time.Time{})
		switch {
		case err == nil:
			// Ключ захвачен, обрабатываем запрос первыми.
		case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
			if record.Status == domain.IdempotencyStatusProcessing {
				writeJSON(w, http.StatusConflict, errorResponse{Error: "request is already being processed"})
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(record.HTTPStatus)
			_, _ = w.Write(record.ResponseBody)
			return
		default:
			writeError(w, s.logger, err)
			return
		}
	}

	draft := domain.NewOrder{
		CustomerID:      session.CustomerID,
		Status:          domain.OrderStatus(req.Status),
		Phone:           req.Phone,
		DeliveryAddress: req.DeliveryAddress,
	}
	if session.Role.Privileged() {
		draft.CustomerID = req.CustomerID
	}
	if req.OrderDate != nil {
		draft.OrderDate = req.OrderDate.UTC()
	}
	for _, line := range req.Lines {
		draft.Lines = append(draft.Lines, domain.NewOrderLine{
			ProductID: line.ProductID,
			Qty:       line.Qty,
		})
	}

	status := http.StatusCreated
	var payload any

	order, err := s.orders.Create(r.Context(), draft)
	if err != nil {
		status, payload = errorStatus(err)
		if status == http.StatusInternalServerError {
			s.logger.WithError(err).Error("order creation failed")
		}
	} else {
		payload = toOrderResponse(order)
	}

	responseBody, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		writeError(w, s.logger, marshalErr)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(responseBody)

	if useIdempotency {
		var markErr error
		if status < http.StatusBadRequest {
			markErr = s.idempotency.MarkDone(idemKey, responseBody, status)
		} else {
			markErr = s.idempotency.MarkFailed(idemKey, responseBody, status)
		}
		if markErr != nil {
			s.logger.WithError(markErr).WithField("idempotency_key", idemKey).Warn("failed to finalize idempotency record")
		}
	}
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	list, err := s.orders.List(r.Context(), session.Scope())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	result := make([]orderResponse, 0, len(list))
	for _, o := range list {
		result = append(result, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	order, err := s.orders.Get(r.Context(), chi.URLParam(r, "id"), session.Scope())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	var req updateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	order, err := s.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), domain.OrderStatus(req.Status), session.Scope())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	if err := s.orders.Delete(r.Context(), chi.URLParam(r, "id"), session.Scope()); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOrderTimeline(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	events, err := s.orders.Timeline(r.Context(), chi.URLParam(r, "id"), session.Scope())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimelineResponse(events))
}

// hashRequest привязывает ключ идемпотентности к учётной записи: чужой
// повтор с тем же ключом и телом даёт несовпадение хэша, а не сохранённый
// ответ другого пользователя.
func hashRequest(userID string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(userID))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
