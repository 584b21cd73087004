package handler

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	apimw "github.com/notifyhub/receiver/internal/api/middleware"
	"github.com/notifyhub/receiver/internal/domain"
	"github.com/notifyhub/receiver/internal/service"
)

// NotificationHandler accepts notifications from publishers and fans them out.
type NotificationHandler struct {
	svc    *service.NotificationService
	logger *zap.Logger
}

func NewNotificationHandler(svc *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, logger: logger}
}

// Notify handles POST /notify
//
// Callback failures are reported in the body; the status stays 200.
//
// @Summary  Deliver a notification to every subscriber of its product type
// @Tags     notifications
// @Accept   json
// @Produce  json
// @Param    body  body      domain.Notification    true  "Notification"
// @Success  200   {object}  domain.DeliveryReport
// @Failure  400   {object}  map[string]string
// @Router   /notify [post]
func (h *NotificationHandler) Notify(w http.ResponseWriter, r *http.Request) {
	var n domain.Notification
	if err := decodeJSON(r, &n); err != nil {
		// Bad status values surface their own message.
		if errors.Is(err, domain.ErrInvalidRequest) {
			mapError(w, err)
			return
		}
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// The fan-out may outlast the server's read and write timeouts; the
	// report must still reach the publisher.
	rc := http.NewResponseController(w)
	if err := rc.SetReadDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Warn("clear read deadline", zap.Error(err))
	}
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Warn("clear write deadline", zap.Error(err))
	}

	report, err := h.svc.Notify(r.Context(), n)
	if err != nil {
		h.logger.Warn("notify failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}
