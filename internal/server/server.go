// Package server is the composition root: it opens the database, builds the
// services and handlers, mounts the routes and runs the HTTP server.
//
// Keeping this out of main.go lets the tests build the full stack against
// an in-memory database and drive it through Handler().
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/qa-forum/internal/auth"
	"github.com/sakif/qa-forum/internal/cache"
	"github.com/sakif/qa-forum/internal/config"
	"github.com/sakif/qa-forum/internal/handler"
	"github.com/sakif/qa-forum/internal/markdown"
	"github.com/sakif/qa-forum/internal/middleware"
	"github.com/sakif/qa-forum/internal/model"
	sqliteRepo "github.com/sakif/qa-forum/internal/repository/sqlite"
	"github.com/sakif/qa-forum/internal/service"
)

// Server owns the router and the database connection. The database is
// closed when Start returns, or by Close for servers that never start.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database at cfg.DBPath and wires every layer on top of it.
// tokenCache may be nil, in which case sessions are always read from SQLite.
func New(cfg config.Config, logger *slog.Logger, tokenCache cache.TokenCache) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(tokenCache); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes mounts:
//
//	GET    /healthz
//	POST   /auth/login              POST /auth/logout
//	GET    /auth/validate           (auth)
//	POST   /user                    GET  /user (auth)
//	DELETE /user/{id}               (ADMIN)
//	GET    /questions               GET  /questions/{id}
//	POST   /questions               PATCH /questions          (auth)
//	DELETE /questions/{id}          (auth)
//	GET    /answers/{questionId}
//	POST   /answers                 PATCH /answers/{id}       (auth)
//	DELETE /answers/{id}            (auth)
//	PATCH  /like/question/{id}      PATCH /like/answer/{id}   (auth)
//
// Read routes run OptionalAuth so isLiked reflects the viewer.
//
// Middleware order: RequestID first so every log line carries it, Logger
// outside Recoverer so recovered panics are still logged as 500s.
func (s *Server) setupRoutes(tokenCache cache.TokenCache) error {
	passwords, err := auth.NewPasswordHasher(s.config.BcryptCost)
	if err != nil {
		return err
	}

	authService := service.NewAuthService(s.db, s.db, passwords, tokenCache, service.AuthConfig{
		SessionTTL:    s.config.SessionTTL,
		TokenCacheTTL: s.config.TokenCacheTTL,
		AdminEmails:   s.config.AdminEmails,
	}, s.logger)
	renderer := markdown.New()
	likeService := service.NewLikeService(s.db, s.db, s.db, s.logger)
	questionService := service.NewQuestionService(s.db, likeService, renderer, s.logger)
	answerService := service.NewAnswerService(s.db, s.db, likeService, renderer, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	userHandler := handler.NewUserHandler(authService, s.logger)
	questionHandler := handler.NewQuestionHandler(questionService, s.logger)
	answerHandler := handler.NewAnswerHandler(answerService, s.logger)
	likeHandler := handler.NewLikeHandler(likeService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	requireAuth := auth.RequireAuth(authService)
	optionalAuth := auth.OptionalAuth(authService)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/healthz", healthHandler.HandleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.With(requireAuth).Get("/validate", authHandler.HandleValidate)
	})

	s.router.Route("/user", func(r chi.Router) {
		r.Post("/", userHandler.HandleRegister)
		r.With(requireAuth).Get("/", userHandler.HandleList)
		r.With(requireAuth, auth.RequireRole(model.RoleAdmin)).Delete("/{id}", userHandler.HandleDelete)
	})

	s.router.Route("/questions", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/", questionHandler.HandleList)
			r.Get("/{id}", questionHandler.HandleGet)
		})
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", questionHandler.HandleCreate)
			r.Patch("/", questionHandler.HandleUpdate)
			r.Delete("/{id}", questionHandler.HandleDelete)
		})
	})

	s.router.Route("/answers", func(r chi.Router) {
		r.With(optionalAuth).Get("/{questionId}", answerHandler.HandleListByQuestion)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", answerHandler.HandleCreate)
			r.Patch("/{id}", answerHandler.HandleUpdate)
			r.Delete("/{id}", answerHandler.HandleDelete)
		})
	})

	s.router.Route("/like", func(r chi.Router) {
		r.Use(requireAuth)
		r.Patch("/question/{id}", likeHandler.HandleToggleQuestion)
		r.Patch("/answer/{id}", likeHandler.HandleToggleAnswer)
	})

	return nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Only needed when Start is never called.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves HTTP until SIGINT/SIGTERM, then drains in-flight requests
// for up to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
