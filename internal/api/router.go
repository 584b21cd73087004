package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/notifyhub/receiver/internal/api/handler"
	apimw "github.com/notifyhub/receiver/internal/api/middleware"
	"github.com/notifyhub/receiver/internal/service"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	svc *service.NotificationService,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1<<20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	sh := handler.NewSubscriberHandler(svc, logger)
	nh := handler.NewNotificationHandler(svc, logger)
	st := handler.NewStatsHandler(svc)
	hh := handler.NewHealthHandler()

	// --- routes ---
	r.Get("/health", hh.Health)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Post("/subscribe", sh.Subscribe)
	r.Delete("/subscribe", sh.Unsubscribe)
	r.Get("/subscribe/{productType}", sh.List)

	r.Post("/notify", nh.Notify)

	r.Get("/stats", st.GetStats)

	return r
}
