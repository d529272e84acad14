// internal/httpserver/server.go
//
// HTTP server wiring for the epiwordle backend.
// Responsibilities:
//   - Router + middleware (request IDs, panic recovery, timeouts, request log,
//     metrics, JSON, CORS, per-client rate limits).
//   - Public endpoints: "/", "/health", "/metrics".
//   - API under /api: auth (auth.go), game (routes_game.go), chat (routes_chat.go).
//   - One place mapping domain errors to status codes (writeError).
//
// Notes:
//   - Optional auth decorates requests with the user when a valid token is
//     present; guests can still play.
//   - Require-auth routes answer 401 without a valid token.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/epiwordle/internal/chat"
	"github.com/robalobadob/epiwordle/internal/config"
	"github.com/robalobadob/epiwordle/internal/game"
	"github.com/robalobadob/epiwordle/internal/metrics"
	"github.com/robalobadob/epiwordle/internal/user"
)

const maxBodyBytes = 1 << 20

// Deps are the services the handlers call into.
type Deps struct {
	Games   *game.Manager
	Dict    game.Dictionary
	Users   *user.Service
	Chat    *chat.Service
	Metrics metrics.Provider
}

// Server bundles the router and its dependencies.
type Server struct {
	r    *chi.Mux
	cfg  *config.Config
	deps Deps
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg *config.Config, deps Deps) *Server {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(false, nil, nil)
	}
	s := &Server{r: chi.NewRouter(), cfg: cfg, deps: deps}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(requestLogger)
	s.r.Use(chimw.Recoverer)
	s.r.Use(metrics.Middleware(deps.Metrics))
	s.r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
	s.r.Use(jsonContentType)
	s.r.Use(cors(cfg.Server.ClientOrigin))

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":   "epiwordle",
			"endpoints": []string{"/health", "/metrics", "/api/auth/*", "/api/game/*", "/api/chat/*"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	s.r.Handle("/metrics", deps.Metrics.Handler())

	s.r.Route("/api", func(r chi.Router) {
		var auth func(http.Handler) http.Handler
		if cfg.RateLimit.Enabled {
			r.Use(newLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window).middleware("Too many requests, please try again later"))
			auth = newLimiter(cfg.RateLimit.AuthRequests, cfg.RateLimit.Window).middleware("Too many authentication attempts, please try again later")
		}
		r.Use(s.withOptionalAuth)

		r.Route("/auth", func(r chi.Router) { s.mountAuth(r, auth) })
		r.Route("/game", s.mountGame)
		r.Route("/chat", s.mountChat)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})
	s.r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method_not_allowed"})
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Run serves on the configured address until ctx is cancelled, then drains
// in-flight requests for up to server.shutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin. Empty disables it
// (same-origin deployments).
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if origin == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs one line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		ev := log.Debug()
		if ww.Status() >= http.StatusInternalServerError {
			ev = log.Warn()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("requestId", chimw.GetReqID(r.Context())).
			Msg("request")
	})
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

// decodeJSON reads a JSON body into v, answering 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_json"})
		return false
	}
	return true
}

func errorBody(msg string) map[string]string { return map[string]string{"error": msg} }

// writeError maps domain errors to HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, game.ErrSessionNotFound), errors.Is(err, chat.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, game.ErrForbidden), errors.Is(err, chat.ErrForbidden):
		status, msg = http.StatusForbidden, err.Error()
	case game.IsValidation(err), user.IsValidation(err), chat.IsValidation(err):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, user.ErrUsernameTaken), errors.Is(err, game.ErrPersistenceConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, user.ErrInvalidCredentials), errors.Is(err, user.ErrInvalidToken):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, game.ErrNoWordsAvailable), errors.Is(err, game.ErrPersistenceUnavailable):
		status, msg = http.StatusServiceUnavailable, "service temporarily unavailable"
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Str("requestId", chimw.GetReqID(r.Context())).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, status, errorBody(msg))
}
