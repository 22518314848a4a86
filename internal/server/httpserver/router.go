package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/PhantomXD-nepal/KrishnaBackend/internal/server/httpserver/handler"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/telemetry/metric"
)

// RouterConfig holds configuration for the admin router.
type RouterConfig struct {
	// Keys reports the store size for /health.
	Keys handler.KeyCounter

	// Ready gates /ready. Nil means always ready.
	Ready handler.ReadyFunc

	// Metrics is served on /metrics. Nil serves an empty registry.
	Metrics *metric.Registry

	// Version is reported by /health.
	Version string

	// Logger for request logging.
	Logger *slog.Logger

	// AllowList is the IP/CIDR allowlist (empty = no restriction).
	AllowList []string
}

// NewRouter creates the admin router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := handler.New(cfg.Keys, cfg.Ready, cfg.Version, logger)

	middlewares := []Middleware{
		RequestID(logger),
		Recover(),
		AccessLog(),
		NetworkACL(cfg.AllowList, logger),
	}

	mux := http.NewServeMux()
	mux.Handle("GET /health", Chain(h, middlewares...))
	mux.Handle("GET /ready", Chain(h, middlewares...))
	mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), middlewares...))

	return mux
}
