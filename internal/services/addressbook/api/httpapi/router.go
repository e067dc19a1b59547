// Package httpapi exposes the addressbook use cases as a JSON API.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/louisbranch/addressbook/internal/platform/logging"
	"github.com/louisbranch/addressbook/internal/services/addressbook/service"
)

// Service is the use-case surface the handlers call.
type Service interface {
	RegisterProfile(ctx context.Context, in service.RegisterProfileInput) (service.ProfileView, error)
	GetProfile(ctx context.Context, name string) (service.ProfileView, error)
	UpdateProfile(ctx context.Context, name string, in service.UpdateProfileInput) (service.ProfileView, error)
	CreateAddress(ctx context.Context, owner string, in service.CreateAddressInput) (service.AddressView, error)
	GetAddress(ctx context.Context, owner, label string) (service.AddressView, error)
	ListAddresses(ctx context.Context, owner string) ([]service.AddressView, error)
	UpdateAddress(ctx context.Context, owner, label string, in service.UpdateAddressInput) (service.AddressView, error)
	DeleteAddress(ctx context.Context, owner, label string) (service.AddressView, error)
	RevertChange(ctx context.Context, token string) (service.RevertView, error)
}

// Options configures the router. Gatherer enables GET /metrics.
type Options struct {
	Logger   *zap.Logger
	Gatherer prometheus.Gatherer
	Timeout  time.Duration
}

// Handler serves the API.
type Handler struct {
	svc    Service
	logger *zap.Logger
}

// NewRouter mounts every route on a fresh chi router.
func NewRouter(svc Service, opts Options) chi.Router {
	h := &Handler{svc: svc, logger: logging.OrNop(opts.Logger).Named("http")}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", h.handleHealth)
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/profiles", func(r chi.Router) {
		r.Post("/", h.handleRegisterProfile)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", h.handleGetProfile)
			r.Patch("/", h.handleUpdateProfile)
			r.Route("/addresses", func(r chi.Router) {
				r.Post("/", h.handleCreateAddress)
				r.Get("/", h.handleListAddresses)
				r.Get("/{label}", h.handleGetAddress)
				r.Patch("/{label}", h.handleUpdateAddress)
				r.Delete("/{label}", h.handleDeleteAddress)
			})
		})
	})
	r.Post("/revert/{token}", h.handleRevert)
	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
