package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "github.com/venky0589/arenaflow/docs"
	"github.com/venky0589/arenaflow/handlers"
	"github.com/venky0589/arenaflow/middleware"
	"github.com/venky0589/arenaflow/models"
)

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
}

func SetupRoutes(
	router chi.Router,
	opts Options,
	bracketHandler *handlers.BracketHandler,
	webSocketHandler *handlers.WebSocketHandler,
	healthHandler *handlers.HealthHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", healthHandler.Healthz)
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/ws/categories/{categoryID}", webSocketHandler.ServeWs)

	authenticate := middleware.Authenticate(opts.JWTSecret, nil)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))
		r.Use(authenticate)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authorize(models.RoleAdmin))
			r.Post("/tournaments/{tournamentID}/categories/{categoryID}/draw:generate", bracketHandler.GenerateHandler)
			r.Delete("/categories/{categoryID}/bracket", bracketHandler.DeleteDraftHandler)
			r.Post("/categories/{categoryID}/bracket/export", bracketHandler.ExportHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authorize(models.RoleAdmin, models.RoleUser))
			r.Get("/categories/{categoryID}/bracket", bracketHandler.GetHandler)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"the requested resource could not be found"}` + "\n"))
	})
}
