package server

import (
	"context"
	"errors"
	"net/http"

	apperrors "github.com/jrsteele09/go-rift-portal/internal/errors"
	"github.com/jrsteele09/go-rift-portal/navigation"
)

// GuardMiddleware runs the navigation guard before the page is built. Redirect descriptors and
// non-canonical paths are answered with a redirect to the resolved path.
func (s *Server) GuardMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, err := s.holderFor(r)
		if err != nil {
			s.serverError(w, r, err)
			return
		}

		decision, err := s.guard.Evaluate(r.Context(), r.URL.Path, h)
		if errors.Is(err, apperrors.ErrRouteNotFound) {
			s.notFound(w, r)
			return
		}
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		s.metrics.ObserveGuard(decision.Match.Path, decision.State.String())

		if decision.State == navigation.Redirected || decision.Target != r.URL.Path {
			redirectSuccess(w, r, decision.Target)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyHolder, h)
		ctx = context.WithValue(ctx, ContextKeyDecision, decision)
		next(w, r.WithContext(ctx))
	}
}

// OnboardingMiddleware sends signed-in visitors of profile-only pages to create their profile first
func (s *Server) OnboardingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decision, ok := decisionFrom(r.Context())
		if !ok || !decision.Match.RequiresProfile() {
			next(w, r)
			return
		}

		h, err := s.holderFor(r)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		if !h.Authenticated() {
			next(w, r)
			return
		}

		record, err := h.Record(r.Context())
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		if !record.HasProfile() {
			redirectSuccess(w, r, RouteCreateProfile)
			return
		}
		next(w, r)
	}
}

// RequireSession guards form posts that only make sense for a signed-in browser
func (s *Server) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, err := s.holderFor(r)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		ok, err := h.Check(r.Context())
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		if !ok {
			redirectWithError(w, r, s.guard.Table().Fallback(), "Please sign up to continue")
			return
		}
		next(w, withHolder(r, h))
	}
}

func decisionFrom(ctx context.Context) (navigation.Decision, bool) {
	d, ok := ctx.Value(ContextKeyDecision).(navigation.Decision)
	return d, ok
}
