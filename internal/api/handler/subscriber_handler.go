package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/notifyhub/receiver/internal/api/middleware"
	"github.com/notifyhub/receiver/internal/domain"
	"github.com/notifyhub/receiver/internal/service"
)

// SubscriberHandler handles subscription endpoints.
type SubscriberHandler struct {
	svc    *service.NotificationService
	logger *zap.Logger
}

func NewSubscriberHandler(svc *service.NotificationService, logger *zap.Logger) *SubscriberHandler {
	return &SubscriberHandler{svc: svc, logger: logger}
}

// Subscribe handles POST /subscribe
//
// @Summary  Register a callback URL for a product type
// @Tags     subscribers
// @Accept   json
// @Produce  json
// @Param    body  body      domain.SubscriberRequest  true  "Subscription"
// @Success  201   {object}  domain.Subscriber
// @Failure  400   {object}  map[string]string
// @Failure  409   {object}  map[string]string
// @Router   /subscribe [post]
func (h *SubscriberHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req domain.SubscriberRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sub, err := h.svc.Subscribe(r.Context(), req)
	if err != nil {
		h.logger.Warn("subscribe failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, sub)
}

// Unsubscribe handles DELETE /subscribe
//
// @Summary  Remove a callback URL from a product type
// @Tags     subscribers
// @Accept   json
// @Produce  json
// @Param    body  body      domain.SubscriberRequest  true  "Subscription"
// @Success  200   {object}  map[string]string
// @Failure  400   {object}  map[string]string
// @Failure  404   {object}  map[string]string
// @Router   /subscribe [delete]
func (h *SubscriberHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req domain.SubscriberRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.svc.Unsubscribe(r.Context(), req); err != nil {
		h.logger.Warn("unsubscribe failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}

// List handles GET /subscribe/{productType}
//
// @Summary  List subscribers of a product type
// @Tags     subscribers
// @Produce  json
// @Param    productType  path      string  true  "Product type"
// @Success  200          {array}   domain.Subscriber
// @Router   /subscribe/{productType} [get]
func (h *SubscriberHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.ListSubscribers(r.Context(), chi.URLParam(r, "productType"))
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, subs)
}
