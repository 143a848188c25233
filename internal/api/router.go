package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/api/handlers"
	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/api/middleware"
	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/auth"
	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/config"
	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/queue"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	jwt   *auth.JWTMiddleware
	queue *queue.Client
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, qc *queue.Client) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
		jwt:   auth.NewJWTMiddleware(cfg.Auth.JWTSecret),
		queue: qc,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.AllowedOrigins))

	rl := middleware.NewRateLimiter(float64(rt.cfg.Server.RateLimitRPS), rt.cfg.Server.RateLimitBurst)
	r.Use(rl.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)

		pipelineH := handlers.NewPipelineHandler(rt.queue)
		r.Route("/pipeline", func(r chi.Router) {
			r.Post("/run", pipelineH.Run)
		})
	})

	return r
}
