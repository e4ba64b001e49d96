package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	apperrors "github.com/jrsteele09/go-rift-portal/internal/errors"
	"github.com/jrsteele09/go-rift-portal/sessions"
	"golang.org/x/oauth2"
)

const (
	// scopeCookieName carries the signed browser scope
	scopeCookieName = "rift_scope"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyScope stores the browser scope id
	ContextKeyScope ContextKey = "scope"
	// ContextKeyHolder stores the request's session holder
	ContextKeyHolder ContextKey = "holder"
	// ContextKeyDecision stores the guard decision for the requested page
	ContextKeyDecision ContextKey = "decision"
)

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func (s *Server) SetScopeCookie(w http.ResponseWriter, token string, r *http.Request) {
	isSecure := s.config.GetSecureCookies() || getScheme(r) == "https"

	http.SetCookie(w, &http.Cookie{
		Name:     scopeCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.GetScopeCookieMaxAge().Seconds()),
	})
}

// scopeFrom returns the browser scope attached by ScopeMiddleware
func scopeFrom(ctx context.Context) (string, bool) {
	scope, ok := ctx.Value(ContextKeyScope).(string)
	return scope, ok && scope != ""
}

// holderFor returns the request's session holder, creating it on first use
func (s *Server) holderFor(r *http.Request) (*sessions.Holder, error) {
	if h, ok := r.Context().Value(ContextKeyHolder).(*sessions.Holder); ok {
		return h, nil
	}
	scope, ok := scopeFrom(r.Context())
	if !ok {
		return nil, fmt.Errorf("[Server holderFor] %w: no scope on request", apperrors.ErrInvalidScope)
	}
	return sessions.NewHolder(s.storage, scope), nil
}

func withHolder(r *http.Request, h *sessions.Holder) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ContextKeyHolder, h))
}

func (s *Server) getOidcConfig(ctx context.Context) (*OidcConfig, error) {
	if !s.config.OIDCEnabled() {
		return nil, fmt.Errorf("%w: external sign-in", apperrors.ErrNotConfigured)
	}

	s.oidcLock.Lock()
	defer s.oidcLock.Unlock()
	if s.oidcConfig != nil {
		return s.oidcConfig, nil
	}

	provider, err := oidc.NewProvider(ctx, s.config.GetOIDCIssuer())
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	clientID := s.config.GetOIDCClientID()
	s.oidcConfig = &OidcConfig{
		OidcProvider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: s.config.GetOIDCClientSecret(),
			Endpoint:     provider.Endpoint(),
			RedirectURL:  strings.TrimSuffix(s.config.GetBaseURL(), "/") + RouteCallback,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		OidcVerifier: provider.Verifier(&oidc.Config{
			ClientID: clientID,
		}),
	}
	return s.oidcConfig, nil
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError helper for htmx-aware error redirects
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	fullPath := path + "?error=" + url.QueryEscape(errorMsg)

	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", fullPath)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, fullPath, http.StatusSeeOther)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
