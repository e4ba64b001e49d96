package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-rift-portal/accounts"
	apperrors "github.com/jrsteele09/go-rift-portal/internal/errors"
	"github.com/jrsteele09/go-rift-portal/internal/events"
	"github.com/jrsteele09/go-rift-portal/internal/utils"
	"github.com/jrsteele09/go-rift-portal/sessions"
	"github.com/rs/zerolog/log"
)

// SignupPostHandler registers an account and signs the browser in. With intent=signin the form
// signs an existing password account in instead.
func (s *Server) SignupPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.renderPage(w, r, http.StatusBadRequest, "signup", "Invalid form submission", nil)
			return
		}

		form := signupForm{
			Email:    strings.TrimSpace(r.FormValue("email")),
			Password: r.FormValue("password"),
		}
		values := map[string]string{"email": form.Email}
		if err := s.validate.Struct(&form); err != nil {
			s.renderPage(w, r, http.StatusUnprocessableEntity, "signup", validationMessage(&form, err), values)
			return
		}

		if r.FormValue("intent") == "signin" {
			s.passwordSignIn(w, r, form, values)
			return
		}

		hash, err := accounts.HashPassword(form.Password)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		account := &accounts.Account{
			Email:        accounts.NormalizeEmail(form.Email),
			PasswordHash: hash,
			Provider:     accounts.ProviderPassword,
		}
		if err := s.accounts.Create(r.Context(), account); err != nil {
			if errors.Is(err, apperrors.ErrAccountExists) {
				s.renderPage(w, r, http.StatusConflict, "signup", "An account with this email already exists", values)
				return
			}
			s.serverError(w, r, err)
			return
		}

		if !s.signIn(w, r, account, "password") {
			// Drop the account so the visitor can sign up again
			if err := s.accounts.Delete(r.Context(), account.ID); err != nil {
				log.Error().Err(err).Str("identity", account.ID).Msg("failed to remove account after sign-in failure")
			}
			return
		}
		redirectSuccess(w, r, RouteVerifyEmail)
	}
}

func (s *Server) passwordSignIn(w http.ResponseWriter, r *http.Request, form signupForm, values map[string]string) {
	account, err := s.accounts.GetByEmail(r.Context(), form.Email)
	if err != nil && !errors.Is(err, apperrors.ErrAccountNotFound) {
		s.serverError(w, r, err)
		return
	}
	if account == nil || !account.CheckPassword(form.Password) {
		s.renderPage(w, r, http.StatusUnauthorized, "signup", "Invalid email or password", values)
		return
	}
	if !s.signIn(w, r, account, "password") {
		return
	}
	redirectSuccess(w, r, nextOnboardingStep(account))
}

// signIn stores the account's record in the browser's session. It answers the request itself
// and returns false on failure.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, account *accounts.Account, method string) bool {
	h, err := s.holderFor(r)
	if err != nil {
		s.serverError(w, r, err)
		return false
	}
	record := account.Record()
	if err := h.SignIn(r.Context(), record); err != nil {
		s.serverError(w, r, err)
		return false
	}
	s.metrics.ObserveSignIn(method)
	s.events.Publish(events.TopicSignedIn, events.SessionEvent{
		Scope:      h.Scope(),
		IdentityID: account.ID,
		Email:      account.Email,
		Detail:     method,
		Muted:      !record.NotificationsEnabled(),
	})
	return true
}

// nextOnboardingStep is where a freshly signed-in account continues
func nextOnboardingStep(account *accounts.Account) string {
	switch {
	case !account.Verified:
		return RouteVerifyEmail
	case !account.HasProfile():
		return RouteCreateProfile
	case !account.HasRiotAccount():
		return RouteVerifyRiotAccount
	default:
		return RouteDashboard
	}
}

// VerifyEmailPostHandler confirms the signed-in account's address and moves on to the profile
func (s *Server) VerifyEmailPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, err := s.holderFor(r)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		record, err := h.Record(r.Context())
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			redirectWithError(w, r, s.guard.Table().Fallback(), "Please sign up to continue")
			return
		}
		if err != nil {
			s.serverError(w, r, err)
			return
		}

		if err := s.accounts.SetVerified(r.Context(), record.Email, true); err != nil && !errors.Is(err, apperrors.ErrAccountNotFound) {
			s.serverError(w, r, err)
			return
		}
		redirectSuccess(w, r, RouteCreateProfile)
	}
}

// CreateProfilePostHandler stores the username and display name chosen during onboarding
func (s *Server) CreateProfilePostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.renderPage(w, r, http.StatusBadRequest, "createProfile", "Invalid form submission", nil)
			return
		}
		form := profileForm{
			Username:    strings.TrimSpace(r.FormValue("username")),
			DisplayName: strings.TrimSpace(r.FormValue("display_name")),
		}
		values := map[string]string{"username": form.Username, "display_name": form.DisplayName}
		if err := s.validate.Struct(&form); err != nil {
			s.renderPage(w, r, http.StatusUnprocessableEntity, "createProfile", validationMessage(&form, err), values)
			return
		}

		h, err := s.holderFor(r)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		record, err := h.Update(r.Context(), func(rec *sessions.Record) {
			rec.DisplayName = form.DisplayName
		})
		if err != nil {
			s.serverError(w, r, err)
			return
		}

		if err := s.updateAccount(r, record.IdentityID, func(a *accounts.Account) {
			a.Username = form.Username
			a.DisplayName = form.DisplayName
		}); err != nil {
			s.serverError(w, r, err)
			return
		}

		s.events.Publish(events.TopicProfileCompleted, events.SessionEvent{
			Scope:      h.Scope(),
			IdentityID: record.IdentityID,
			Email:      record.Email,
			Detail:     form.Username,
			Muted:      !record.NotificationsEnabled(),
		})
		redirectSuccess(w, r, RouteVerifyRiotAccount)
	}
}

// VerifyRiotAccountPostHandler links a Riot ID (Name#TAG) to the account
func (s *Server) VerifyRiotAccountPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.renderPage(w, r, http.StatusBadRequest, "verifyRiotAccount", "Invalid form submission", nil)
			return
		}
		form := riotAccountForm{RiotID: strings.TrimSpace(r.FormValue("riot_id"))}
		values := map[string]string{"riot_id": form.RiotID}
		if err := s.validate.Struct(&form); err != nil {
			s.renderPage(w, r, http.StatusUnprocessableEntity, "verifyRiotAccount", validationMessage(&form, err), values)
			return
		}

		h, err := s.holderFor(r)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		record, err := h.Record(r.Context())
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		if err := s.updateAccount(r, record.IdentityID, func(a *accounts.Account) {
			a.RiotID = form.RiotID
		}); err != nil {
			s.serverError(w, r, err)
			return
		}

		s.events.Publish(events.TopicRiotVerified, events.SessionEvent{
			Scope:      h.Scope(),
			IdentityID: record.IdentityID,
			Email:      record.Email,
			Detail:     form.RiotID,
			Muted:      !record.NotificationsEnabled(),
		})
		redirectSuccess(w, r, RouteDashboard)
	}
}

// updateAccount applies fn to the stored account. Sessions without an account row are left alone.
func (s *Server) updateAccount(r *http.Request, id string, fn func(*accounts.Account)) error {
	account, err := s.accounts.GetByID(r.Context(), id)
	if errors.Is(err, apperrors.ErrAccountNotFound) {
		log.Debug().Str("identity", id).Msg("session has no stored account")
		return nil
	}
	if err != nil {
		return err
	}
	fn(account)
	return s.accounts.Update(r.Context(), account)
}

// SettingsPostHandler saves the theme and notification preferences into the session record
func (s *Server) SettingsPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.renderPage(w, r, http.StatusBadRequest, "settings", "Invalid form submission", nil)
			return
		}
		form := settingsForm{
			Theme:         r.FormValue("theme"),
			Notifications: r.FormValue("notifications") == "on",
		}
		if err := s.validate.Struct(&form); err != nil {
			s.renderPage(w, r, http.StatusUnprocessableEntity, "settings", validationMessage(&form, err), map[string]string{"theme": form.Theme})
			return
		}

		h, err := s.holderFor(r)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		record, err := h.Update(r.Context(), func(rec *sessions.Record) {
			rec.Preferences = &sessions.Preferences{
				Theme:         sessions.Theme(form.Theme),
				Notifications: utils.Ptr(form.Notifications),
			}
		})
		if err != nil {
			s.serverError(w, r, err)
			return
		}

		if record.NotificationsEnabled() {
			if err := s.notifications.For(h.Scope()).Success(r.Context(), "Settings saved", 0); err != nil {
				log.Warn().Err(err).Msg("failed to queue settings toast")
			}
		}
		redirectSuccess(w, r, RouteSettings)
	}
}

// SignoutHandler clears the browser's session and returns home
func (s *Server) SignoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, err := s.holderFor(r)
		if err != nil {
			s.serverError(w, r, err)
			return
		}

		ev := events.SessionEvent{Scope: h.Scope()}
		if record, err := h.Record(r.Context()); err == nil {
			ev.IdentityID = record.IdentityID
			ev.Email = record.Email
			ev.Muted = !record.NotificationsEnabled()
		}

		if err := h.SignOut(r.Context()); err != nil {
			s.serverError(w, r, err)
			return
		}
		s.events.Publish(events.TopicSignedOut, ev)
		redirectSuccess(w, r, RouteHome)
	}
}
