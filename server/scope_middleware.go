package server

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// ScopeMiddleware attaches the browser scope from the signed cookie, issuing a new one when the
// cookie is missing or does not verify.
func (s *Server) ScopeMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var scope string
		if cookie, err := r.Cookie(scopeCookieName); err == nil && cookie.Value != "" {
			if scope, err = s.scopes.Verify(cookie.Value); err != nil {
				log.Debug().Err(err).Msg("discarding browser scope cookie")
			}
		}

		if scope == "" {
			var (
				token string
				err   error
			)
			scope, token, err = s.scopes.NewScope()
			if err != nil {
				s.serverError(w, r, err)
				return
			}
			s.SetScopeCookie(w, token, r)
		}

		next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyScope, scope)))
	}
}
