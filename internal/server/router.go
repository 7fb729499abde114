package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/studyq-platform/studyq/internal/api"
	"github.com/studyq-platform/studyq/internal/database"
	mw "github.com/studyq-platform/studyq/internal/middleware"
	inats "github.com/studyq-platform/studyq/internal/nats"
)

// HandlerSet holds handler functions injected from main.go to avoid import cycles.
type HandlerSet struct {
	Query           http.HandlerFunc
	InvalidateCache http.HandlerFunc
	GetTokens       http.HandlerFunc

	AuthMiddleware   func(http.Handler) http.Handler
	QueryRateLimiter func(http.Handler) http.Handler
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	CORSAllowedOrigins []string
}

// Dependencies are checked by the readiness endpoint. Nil entries are reported
// as not configured.
type Dependencies struct {
	DB    *pgxpool.Pool
	Redis redis.Cmdable
	NATS  *inats.Client
}

func NewRouter(deps Dependencies, cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		api.JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	readinessHandler := func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{
			"status":   "healthy",
			"database": "healthy",
			"redis":    "healthy",
			"nats":     "healthy",
		}
		status := http.StatusOK
		degrade := func(component, state string) {
			health[component] = state
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}

		if deps.DB == nil {
			health["database"] = "not configured"
		} else if err := database.HealthCheck(r.Context(), deps.DB); err != nil {
			degrade("database", "unhealthy")
		}

		// The result cache fails open, so Redis only degrades the report.
		if deps.Redis == nil {
			health["redis"] = "not configured"
		} else if err := deps.Redis.Ping(r.Context()).Err(); err != nil {
			health["redis"] = "unhealthy"
			health["status"] = "degraded"
		}

		if deps.NATS == nil {
			health["nats"] = "not configured"
		} else if !deps.NATS.Healthy() {
			degrade("nats", "unhealthy")
		}

		api.JSON(w, status, health)
	}

	r.Get("/health/ready", readinessHandler)
	r.Get("/health", readinessHandler)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		r.Group(func(r chi.Router) {
			if h.QueryRateLimiter != nil {
				r.Use(h.QueryRateLimiter)
			}
			r.Post("/query", h.Query)
		})

		r.Delete("/cache", h.InvalidateCache)
		r.Get("/tokens", h.GetTokens)
	})

	return r
}
