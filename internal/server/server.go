package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cookshare/apiserver/config"
	"github.com/cookshare/apiserver/internal/handlers"
	"github.com/cookshare/apiserver/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	app        *App
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	router := NewRouter(app)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		app:        app,
	}, nil
}

// NewRouter mounts every route on a fresh chi router.
func NewRouter(app *App) *chi.Mux {
	cfg := app.Config
	authMiddleware := handlers.RequireAuth(cfg.JWTSecret)

	var authLimit, writeLimit func(http.Handler) http.Handler
	if app.Redis != nil {
		counter := middleware.NewRedisCounter(app.Redis)
		authLimit = middleware.NewAuthRateLimiter(counter, app.Logger).Handler(middleware.ClientIP)
		writeLimit = middleware.NewRecipeWriteRateLimiter(counter, app.Logger).Handler(handlers.CallerKey)
	}

	router := chi.NewRouter()
	router.Use(
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		chimiddleware.Logger,
		chimiddleware.Timeout(60*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, app.Accounts, app.Profiles, cfg.JWTSecret, authLimit)
	})
	router.Route("/recipes", func(r chi.Router) {
		handlers.RecipeRouter(r, app.Recipes, app.Directory, authMiddleware, writeLimit)
	})
	handlers.OwnerRecipesRouter(router, app.Recipes, authMiddleware)
	handlers.ProfileRouter(router, app.Profiles, authMiddleware)

	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.app.Logger.Info("listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the connections.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	return errors.Join(err, s.app.Close())
}
