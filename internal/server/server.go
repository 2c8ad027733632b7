package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mergington/announcements/config"
	"github.com/mergington/announcements/internal/handlers"
	"github.com/mergington/announcements/internal/mq"
	"github.com/mergington/announcements/internal/services"
	"github.com/mergington/announcements/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	backend    *store.Backend
	broker     *mq.MQ
	logger     *zap.Logger
}

// New connects the configured store and broker and wires the routes.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if backend.Name == config.StoreMemory {
		teachers := services.NewTeacherService(backend.Teachers, cfg.Auth.BcryptCost)
		if err := seedTeachers(ctx, teachers, cfg.Store.MemoryTeachers, logger); err != nil {
			_ = backend.Close(context.Background())
			return nil, err
		}
	}

	broker, err := mq.Open(ctx, cfg)
	if err != nil {
		_ = backend.Close(context.Background())
		return nil, err
	}

	opts := []services.AnnouncementOption{services.WithLogger(logger)}
	if broker != nil {
		emitter := services.NewEventEmitter(broker, cfg.Events.Channel, logger.Named("events"))
		opts = append(opts, services.WithEvents(emitter))
	}
	announcementService := services.NewAnnouncementService(backend.Announcements, opts...)

	var tokens *services.TokenIssuer
	if cfg.Auth.JWTSecret != "" {
		tokens = services.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	}
	authenticator := services.NewAuthenticator(backend.Teachers, services.BcryptVerifier{}, tokens)

	router := NewRouter(announcementService, authenticator, backend.Ping, logger)

	var handler http.Handler = router
	if len(cfg.CORS.AllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		}).Handler(router)
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server configured",
		zap.String("store", backend.Name),
		zap.String("events", cfg.Events.Backend),
		zap.Bool("session_tokens", authenticator.TokensEnabled()),
		zap.Int("port", port),
	)

	return &Server{
		httpServer: httpServer,
		router:     router,
		backend:    backend,
		broker:     broker,
		logger:     logger,
	}, nil
}

// seedTeachers creates the "username:password" accounts listed in entries.
func seedTeachers(ctx context.Context, teachers *services.TeacherService, entries []string, logger *zap.Logger) error {
	for i, entry := range entries {
		username, password, ok := strings.Cut(entry, ":")
		if !ok {
			return fmt.Errorf("memory teacher entry %d: want username:password", i+1)
		}
		teacher, err := teachers.Create(ctx, services.CreateTeacherInput{Username: username, Password: password})
		if err != nil {
			return fmt.Errorf("seed memory teacher %q: %w", username, err)
		}
		logger.Info("memory teacher seeded", zap.String("username", teacher.Username))
	}
	return nil
}

// NewRouter builds the HTTP routes on top of already constructed services.
func NewRouter(
	announcements *services.AnnouncementService,
	authenticator *services.Authenticator,
	ping func(ctx context.Context) error,
	logger *zap.Logger,
) *chi.Mux {
	authHandler := handlers.NewAuthHandler(authenticator, logger)
	announcementHandler := handlers.NewAnnouncementHandler(announcements, logger)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		handlers.RequestLogger(logger.Named("http")),
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Get("/readyz", handlers.Readyz(ping))
	router.Handle("/metrics", promhttp.Handler())
	router.Route("/announcements", func(r chi.Router) {
		handlers.AnnouncementRouter(r, announcementHandler, authHandler.RequireAuth)
	})
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler)
	})
	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and then releases the store and broker.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	if s.broker != nil {
		if closeErr := s.broker.Close(); closeErr != nil {
			s.logger.Warn("close broker failed", zap.Error(closeErr))
		}
	}
	if closeErr := s.backend.Close(ctx); closeErr != nil {
		s.logger.Warn("close store failed", zap.Error(closeErr))
	}
	return err
}
