package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	request "globaltrust/pkg/platform/middleware/request"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultMaxBodyBytes   = 1 << 20
)

// RouterConfig carries the infrastructure around the API handlers.
type RouterConfig struct {
	Logger         *slog.Logger
	Latency        request.LatencyObserver
	Gatherer       prometheus.Gatherer
	RequestTimeout time.Duration
	MaxBodyBytes   int64

	// Health mounts the health endpoints, e.g. (*health.Handler).Register.
	Health func(chi.Router)

	// Mounts are additional handlers such as the development identity provider.
	Mounts map[string]http.Handler
}

// NewRouter wires the public endpoints with middleware.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(logger))
	if cfg.Latency != nil {
		r.Use(request.Latency(cfg.Latency))
	}

	if cfg.Health != nil {
		cfg.Health(r)
	}
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	for prefix, mount := range cfg.Mounts {
		r.Mount(prefix, mount)
	}

	r.Group(func(r chi.Router) {
		r.Use(request.ContentTypeJSON)
		r.Use(request.BodyLimit(cfg.MaxBodyBytes))

		// Sign-in waits on the user; it is bounded by the client connection only.
		h.RegisterSignIn(r)

		r.Group(func(r chi.Router) {
			r.Use(request.Timeout(cfg.RequestTimeout))
			h.Register(r)
		})
	})

	return r
}
