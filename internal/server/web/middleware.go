package web

import (
	"context"
	"net/http"

	"github.com/okovalenko/mediadrop/internal/server/models"
)

// sessionCookieName is the browser cookie carrying the opaque session token.
const sessionCookieName = "mediadrop_session"

type ctxKey string

const sessionCtxKey = ctxKey("session")

// sessionFromRequest resolves the session cookie against the store. A
// missing cookie, an unknown token, and an expired session all come back
// as nil.
func (s *Server) sessionFromRequest(r *http.Request) *models.Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	session, err := s.sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}
	return session
}

// sessionFromContext returns the session a middleware attached, or nil.
func sessionFromContext(ctx context.Context) *models.Session {
	session, _ := ctx.Value(sessionCtxKey).(*models.Session)
	return session
}

// requireUser gates a route on a live session. Anonymous requests are
// redirected to the login page.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := s.sessionFromRequest(r)
		if session == nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		ctx := context.WithValue(r.Context(), sessionCtxKey, session)
		next(w, r.WithContext(ctx))
	}
}

// requireAdmin gates a route on an admin session. Any failure, whether no
// session at all or a non-admin one, redirects to the dashboard; the
// response never says which check failed.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := s.sessionFromRequest(r)
		if session == nil || !session.IsAdmin() {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
		ctx := context.WithValue(r.Context(), sessionCtxKey, session)
		next(w, r.WithContext(ctx))
	}
}
