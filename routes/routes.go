package routes

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/upb/cognate/app"
	"github.com/upb/cognate/handlers"
	"github.com/upb/cognate/middleware"
	"github.com/upb/cognate/utils"
)

const defaultRequestTimeout = 300 * time.Second

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	timeout := deps.Config.Server.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(timeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	health := handlers.NewHealthHandler(sqlDB(deps), deps.Logger)
	if deps.Redis != nil {
		client := deps.Redis
		health.WithCheck("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	status := handlers.NewStatusHandler(deps.Config.Environment, deps.Registry)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/status", status.HandleStatus)

		r.Group(func(r chi.Router) {
			if deps.AuthMiddleware != nil {
				r.Use(deps.AuthMiddleware.RequireAuth)
			}

			providerHandler := handlers.NewProviderHandler(deps.Catalog, deps.Registry, deps.Logger)
			r.Route("/providers", func(r chi.Router) {
				r.Get("/", providerHandler.HandleList)
				r.Patch("/{id}", providerHandler.HandleUpdateSettings)
				r.Post("/{id}/toggle", providerHandler.HandleToggle)
			})

			credentialsHandler := handlers.NewCredentialsHandler(deps.Credentials, deps.Logger)
			r.Get("/credentials", credentialsHandler.HandleGet)
			r.Put("/credentials", credentialsHandler.HandlePut)

			attachmentsHandler := handlers.NewAttachmentsHandler(deps.Attachments, deps.Logger)
			r.Route("/attachments", func(r chi.Router) {
				r.Get("/", attachmentsHandler.HandleList)
				r.Post("/", attachmentsHandler.HandleAdd)
				r.Delete("/", attachmentsHandler.HandleClear)
				r.Delete("/{id}", attachmentsHandler.HandleRemove)
			})

			roundsHandler := handlers.NewRoundsHandler(deps.Session, deps.Logger)
			r.Get("/prompt", roundsHandler.HandleGetPrompt)
			r.Put("/prompt", roundsHandler.HandleSetPrompt)
			r.Post("/rounds", roundsHandler.HandleStart)
			r.Get("/rounds/current", roundsHandler.HandleCurrent)

			sendPromptHandler := handlers.NewSendPromptHandler(deps.Dispatcher, deps.Logger)
			r.Post("/send-prompt", sendPromptHandler.HandleSendPrompt)

			historyHandler := handlers.NewHistoryHandler(deps.History, deps.Logger)
			r.Route("/history", func(r chi.Router) {
				r.Get("/", historyHandler.HandleList)
				r.Delete("/", historyHandler.HandleClear)
				r.Delete("/{id}", historyHandler.HandleDelete)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}

func sqlDB(deps *app.Dependencies) *sql.DB {
	if deps.DB == nil {
		return nil
	}
	return deps.DB.DB
}
