package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-rift-portal/accounts"
	apperrors "github.com/jrsteele09/go-rift-portal/internal/errors"
	"github.com/jrsteele09/go-rift-portal/server/authflowrepo"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// OIDCStartHandler sends the browser to the external identity provider (PKCE + nonce)
func (s *Server) OIDCStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		oidcConfig, err := s.getOidcConfig(r.Context())
		if errors.Is(err, apperrors.ErrNotConfigured) {
			redirectWithError(w, r, RouteSignup, "External sign-in is not available")
			return
		}
		if err != nil {
			s.serverError(w, r, err)
			return
		}

		scope, ok := scopeFrom(r.Context())
		if !ok {
			s.serverError(w, r, apperrors.ErrInvalidScope)
			return
		}

		state := generateRandomString(32)
		authState := &authflowrepo.AuthFlowState{
			Scope:        scope,
			CodeVerifier: oauth2.GenerateVerifier(),
			Nonce:        generateRandomString(16),
			ReturnURL:    r.URL.Query().Get("return"),
			CreatedAt:    time.Now(),
		}
		if err := s.authFlows.Upsert(state, authState); err != nil {
			s.serverError(w, r, err)
			return
		}

		authURL := oidcConfig.OAuth2Config.AuthCodeURL(state,
			oauth2.S256ChallengeOption(authState.CodeVerifier),
			oidc.Nonce(authState.Nonce),
		)
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// OAuthCallbackHandler completes the external sign-in: the code is exchanged, the ID token and
// nonce verified, and the matching account signed in (created on first visit).
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.FormValue("state")
		code := r.FormValue("code")
		errorParam := r.FormValue("error")

		// Check for authorization errors
		if errorParam != "" {
			log.Warn().Str("error", errorParam).Str("description", r.FormValue("error_description")).Msg("external sign-in refused")
			redirectWithError(w, r, RouteSignup, "External sign-in was cancelled")
			return
		}
		if code == "" || state == "" {
			redirectWithError(w, r, RouteSignup, "Missing code or state parameter")
			return
		}

		authState, err := s.authFlows.Take(state)
		if err != nil {
			redirectWithError(w, r, RouteSignup, "Sign-in expired, please try again")
			return
		}
		if scope, _ := scopeFrom(r.Context()); scope != authState.Scope {
			redirectWithError(w, r, RouteSignup, "Sign-in was started in another browser")
			return
		}

		oidcConfig, err := s.getOidcConfig(r.Context())
		if errors.Is(err, apperrors.ErrNotConfigured) {
			redirectWithError(w, r, RouteSignup, "External sign-in is not available")
			return
		}
		if err != nil {
			s.serverError(w, r, err)
			return
		}

		oauth2Token, err := oidcConfig.OAuth2Config.Exchange(r.Context(), code, oauth2.VerifierOption(authState.CodeVerifier))
		if err != nil {
			log.Error().Err(err).Msg("token exchange failed")
			redirectWithError(w, r, RouteSignup, "External sign-in failed")
			return
		}

		rawIDToken, ok := oauth2Token.Extra("id_token").(string)
		if !ok {
			redirectWithError(w, r, RouteSignup, "External sign-in failed")
			return
		}
		idToken, err := oidcConfig.OidcVerifier.Verify(r.Context(), rawIDToken)
		if err != nil {
			log.Error().Err(err).Msg("ID token verification failed")
			redirectWithError(w, r, RouteSignup, "External sign-in failed")
			return
		}

		var claims externalIdentity
		if err := idToken.Claims(&claims); err != nil {
			s.serverError(w, r, err)
			return
		}
		// Validate nonce to prevent replay attacks
		if claims.Nonce != authState.Nonce {
			redirectWithError(w, r, RouteSignup, "External sign-in failed")
			return
		}

		account, err := s.externalAccount(r, claims)
		if errors.Is(err, errUnverifiedEmail) {
			log.Warn().Str("subject", claims.Sub).Msg("external sign-in without a verified email")
			redirectWithError(w, r, RouteSignup, "Your sign-in provider has not verified your email address")
			return
		}
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		if !s.signIn(w, r, account, "oidc") {
			return
		}

		next := nextOnboardingStep(account)
		if next == RouteDashboard && authState.ReturnURL != "" {
			if _, err := s.guard.Table().Resolve(authState.ReturnURL); err == nil {
				next = authState.ReturnURL
			}
		}
		redirectSuccess(w, r, next)
	}
}

var errUnverifiedEmail = errors.New("provider email not verified")

// externalIdentity holds the ID token claims the portal reads
type externalIdentity struct {
	Nonce         string `json:"nonce"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// externalAccount finds the account linked to the provider subject, links an existing account
// with the same email, or creates a new verified one. Linking and creating need an email the
// provider has verified.
func (s *Server) externalAccount(r *http.Request, id externalIdentity) (*accounts.Account, error) {
	ctx := r.Context()
	subject, email, picture := id.Sub, id.Email, id.Picture
	account, err := s.accounts.GetBySubject(ctx, accounts.ProviderOIDC, subject)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, apperrors.ErrAccountNotFound) {
		return nil, err
	}
	if email == "" || !id.EmailVerified {
		return nil, errUnverifiedEmail
	}

	account, err = s.accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		account.Provider = accounts.ProviderOIDC
		account.Subject = subject
		account.Verified = true
		if account.Avatar == "" {
			account.Avatar = picture
		}
		if err := s.accounts.Update(ctx, account); err != nil {
			return nil, err
		}
		return account, nil
	case !errors.Is(err, apperrors.ErrAccountNotFound):
		return nil, err
	}

	account = &accounts.Account{
		Email:    accounts.NormalizeEmail(email),
		Provider: accounts.ProviderOIDC,
		Subject:  subject,
		Avatar:   picture,
		Verified: true,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	log.Info().Str("identity", account.ID).Str("name", id.Name).Msg("created account from external sign-in")
	return account, nil
}
