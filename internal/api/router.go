package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/UkralStul/modora-posts-service/internal/dataloader"
	"github.com/UkralStul/modora-posts-service/internal/metrics"
	"github.com/UkralStul/modora-posts-service/internal/repository"
)

// Deps - зависимости HTTP-слоя.
type Deps struct {
	Repo        *repository.Repository
	Loaders     *dataloader.Loaders
	Metrics     *metrics.Collector
	Limiter     *IPRateLimiter
	CORSOrigins []string
	// TrustProxy - брать IP клиента из X-Forwarded-For/X-Real-IP (только за своим прокси).
	TrustProxy bool
	Logger     *zap.Logger
}

// NewRouter собирает chi-роутер со всеми маршрутами и middleware.
func NewRouter(deps Deps) http.Handler {
	h := NewHandler(deps.Repo, deps.Metrics, deps.Logger)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	if deps.TrustProxy {
		router.Use(chimiddleware.RealIP)
	}
	router.Use(Logger(deps.Logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(Instrument(deps.Metrics))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Handle("/metrics", deps.Metrics.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Use(dataloader.Middleware(deps.Loaders))
		limited := RateLimit(deps.Limiter)

		r.Get("/health", h.Health)

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", h.ListPosts)
			r.With(limited).Post("/", h.CreatePost)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetPost)
				r.Put("/", h.UpdatePost)
				r.Delete("/", h.DeletePost)
				r.Post("/upvote", h.Upvote)
				r.Post("/downvote", h.Downvote)
				r.With(limited).Post("/comments", h.AddComment)
				r.Get("/comments/thread", h.CommentThread)
				r.Post("/interpretations", h.GenerateInterpretations)
			})
		})
	})

	return router
}
