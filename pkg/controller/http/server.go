package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/entelligence/pkg/usecase"
	"github.com/secmon-lab/entelligence/pkg/utils/logging"
)

const serviceName = "MSP Entelligence API"

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
	now    func() time.Time
}

type Options func(*Server)

// WithClock replaces the time source used for health timestamps
func WithClock(now func() time.Time) Options {
	return func(s *Server) {
		s.now = now
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", rootHandler)
	r.Get("/health", healthHandler(uc.Health, s.now))
	r.Get("/health/db", healthDBHandler(uc.Health))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authLoginHandler(uc.Auth))

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(uc.Auth))

			r.Get("/auth/me", authMeHandler)

			r.Route("/actions", func(r chi.Router) {
				r.Get("/", listActionsHandler(uc.Action))
				r.Post("/", createActionHandler(uc.Action))
				r.Get("/{id}", getActionHandler(uc.Action))
				r.Patch("/{id}", updateActionHandler(uc.Action))
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", listTasksHandler(uc.Task))
				r.Post("/", createTaskHandler(uc.Task))
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", listUsersHandler(uc.User))
				r.Post("/", createUserHandler(uc.User))
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{Error: "Not found"})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger embeds a logger tagged with the request ID into the request context
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.Default().With("request_id", middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(logging.With(r.Context(), logger)))
	})
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.From(r.Context()).Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{
		"name":   serviceName,
		"status": "online",
		"docs":   "/health",
	})
}
