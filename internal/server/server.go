// Package server собирает сервер синхронизации: хранилище, роутер и HTTP сервер.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/iudanet/gamesync/internal/config"
	"github.com/iudanet/gamesync/internal/server/handlers"
	"github.com/iudanet/gamesync/internal/server/jwt"
	"github.com/iudanet/gamesync/internal/server/middleware"
	"github.com/iudanet/gamesync/internal/server/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

// Server сервер синхронизации
type Server struct {
	logger  *slog.Logger
	store   *sqlite.Storage
	handler http.Handler
	address string
}

// New открывает хранилище и собирает роутер
func New(ctx context.Context, cfg *config.Server, version string, logger *slog.Logger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is not configured")
	}

	store, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	tokens := jwt.NewService(cfg.JWTSecret, cfg.TokenTTL)

	return &Server{
		logger:  logger,
		store:   store,
		handler: NewRouter(logger, store, tokens, version, cfg.RateLimit),
		address: cfg.Address,
	}, nil
}

// Handler возвращает роутер сервера
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run слушает адрес до отмены ctx, затем завершает активные запросы
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "address", s.address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// Close закрывает хранилище
func (s *Server) Close() error {
	return s.store.Close()
}

// NewRouter собирает маршруты API. rateLimit - запросов в минуту, 0 отключает ограничение.
func NewRouter(logger *slog.Logger, store *sqlite.Storage, tokens *jwt.Service, version string, rateLimit int) http.Handler {
	validate := handlers.NewValidator()
	auth := handlers.NewAuthHandler(logger, store, tokens, validate)
	sync := handlers.NewSyncHandler(logger, store, validate)
	health := handlers.NewHealthHandler(logger, store, version)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.LoggingMiddleware(logger, "/health"))
	r.Use(middleware.RecoveryMiddleware(logger))

	var limit func(http.Handler) http.Handler
	if rateLimit > 0 {
		limit = middleware.NewRateLimiter(rateLimit, time.Minute).Middleware(logger)
	} else {
		limit = func(next http.Handler) http.Handler { return next }
	}

	r.Get("/health", health.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/auth/register", auth.Register)
			r.Post("/auth/login", auth.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(logger, tokens))
			r.Use(limit)
			r.Post("/sync/{domain}", sync.HandleSync)
			r.Post("/resources/conflicts", sync.FixConflicts)
			r.Get("/resources/{id}/revisions/{revision}", sync.GetRevision)
		})
	})

	return r
}
