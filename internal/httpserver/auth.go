// internal/httpserver/auth.go
//
// Account endpoints and the token middleware.
//   - POST /api/auth/register → create account, set cookie
//   - POST /api/auth/login    → verify credentials, set cookie
//   - POST /api/auth/logout   → clear cookie
//   - GET  /api/auth/me       → current profile or null
//
// Tokens are read from "Authorization: Bearer <token>" or the auth cookie.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/epiwordle/internal/game"
	"github.com/robalobadob/epiwordle/internal/user"
)

// ctxUserKey is the context key type for storing the authenticated user.
type ctxUserKey struct{}

func currentUser(r *http.Request) (user.User, bool) {
	u, ok := r.Context().Value(ctxUserKey{}).(user.User)
	return u, ok
}

// ownerOf returns the game owner for the requester.
func ownerOf(r *http.Request) game.Owner {
	if u, ok := currentUser(r); ok {
		return game.UserOwner(u.ID)
	}
	return game.Anonymous()
}

func (s *Server) mountAuth(r chi.Router, limit func(http.Handler) http.Handler) {
	limited := r
	if limit != nil {
		limited = r.With(limit)
	}
	limited.Post("/register", s.handleRegister)
	limited.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Get("/me", s.handleMe)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if !decodeJSON(w, r, &body) {
		return
	}
	sess, err := s.deps.Users.Register(r.Context(), strings.TrimSpace(body.Username), body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.setAuthCookie(w, sess.Token, sess.Expires)
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user":    map[string]string{"id": sess.User.ID, "username": sess.User.Username},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if !decodeJSON(w, r, &body) {
		return
	}
	sess, err := s.deps.Users.Login(r.Context(), strings.TrimSpace(body.Username), body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.setAuthCookie(w, sess.Token, sess.Expires)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": sess.User.Profile()})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleMe answers {"user": null} for guests instead of 401.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u.Profile()})
}

// --------------------------- token middleware ------------------------------

// withOptionalAuth decorates requests with the user if a valid token is present.
// It never 401s. A token whose user is gone gets its cookie cleared.
func (s *Server) withOptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := s.bearerOrCookie(r); tok != "" {
			u, err := s.deps.Users.Authenticate(r.Context(), tok)
			switch {
			case err == nil:
				r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u))
			case errors.Is(err, user.ErrInvalidToken):
				s.clearAuthCookie(w)
			default:
				writeError(w, r, err)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth answers 401 unless withOptionalAuth found a user.
func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentUser(r); !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody("Unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ cookies ------------------------------------

func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Auth.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
		MaxAge:   int(time.Until(exp).Seconds()),
	})
}

func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Auth.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Auth.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// bearerOrCookie extracts a bearer token from the Authorization header or the auth cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.Auth.CookieName); err == nil {
		return c.Value
	}
	return ""
}
