package server

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/jrsteele09/go-rift-portal/accounts"
	apperrors "github.com/jrsteele09/go-rift-portal/internal/errors"
	"github.com/jrsteele09/go-rift-portal/notify"
	"github.com/jrsteele09/go-rift-portal/sessions"
	"github.com/rs/zerolog/log"
)

// NavLink is an entry of the top navigation
type NavLink struct {
	Path   string
	Label  string
	Active bool
}

// PageData is the template model shared by every page
type PageData struct {
	AppName     string
	Title       string
	Page        string // Route name
	Path        string
	SignedIn    bool
	Record      *sessions.Record
	Account     *accounts.Account
	Theme       string
	Toasts      []notify.Toast
	Error       string
	Form        map[string]string
	Nav         []NavLink
	OIDCEnabled bool
}

var (
	publicNav = []NavLink{
		{Path: "/", Label: "Home"},
		{Path: "/about", Label: "About"},
	}
	memberNav = []NavLink{
		{Path: "/dashboard", Label: "Dashboard"},
		{Path: "/teams", Label: "Teams"},
		{Path: "/events", Label: "Events"},
		{Path: "/rankings", Label: "Rankings"},
		{Path: "/settings", Label: "Settings"},
	}
)

// PageHandler renders the page the guard allowed. The external sign-in callback is a page too;
// when the provider sends it a code the exchange happens here.
func (s *Server) PageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decision, ok := decisionFrom(r.Context())
		if !ok {
			s.serverError(w, r, errors.New("page rendered without a guard decision"))
			return
		}

		name := decision.Match.Route.Name
		if name == "authCallback" && (r.URL.Query().Has("code") || r.URL.Query().Has("error")) {
			s.OAuthCallbackHandler()(w, r)
			return
		}

		s.renderPage(w, r, http.StatusOK, name, r.URL.Query().Get("error"), nil)
	}
}

// renderPage builds the page model for the request's browser and renders the named page
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, name, errMsg string, form map[string]string) {
	p, ok := s.pages[name]
	if !ok {
		s.serverError(w, r, apperrors.Wrapf(apperrors.ErrNotFound, "page %q", name))
		return
	}

	data := s.pageData(r, p)
	data.Error = errMsg
	data.Form = form
	s.render(w, status, p, data)
}

func (s *Server) pageData(r *http.Request, p *page) PageData {
	data := PageData{
		AppName:     s.config.GetAppName(),
		Title:       p.title,
		Page:        p.name,
		Path:        r.URL.Path,
		Theme:       string(sessions.ThemeLight),
		OIDCEnabled: s.config.OIDCEnabled(),
	}

	h, err := s.holderFor(r)
	if err != nil {
		data.Nav = navFor(publicNav, r.URL.Path)
		return data
	}
	ctx := r.Context()

	// Public pages never consulted the session in the guard
	signedIn := h.Authenticated()
	if !signedIn {
		if signedIn, err = h.Check(ctx); err != nil {
			log.Warn().Err(err).Str("scope", h.Scope()).Msg("session check failed while rendering")
		}
	}

	if signedIn {
		record, err := h.Record(ctx)
		if err != nil {
			log.Warn().Err(err).Str("scope", h.Scope()).Msg("session record unreadable while rendering")
		} else {
			data.SignedIn = true
			data.Record = record
			data.Theme = string(record.ThemeOrDefault())
			if account, err := s.accounts.GetByID(ctx, record.IdentityID); err == nil {
				data.Account = account
			}
		}
	}

	toasts, err := s.notifications.Drain(ctx, h.Scope())
	if err != nil {
		log.Warn().Err(err).Str("scope", h.Scope()).Msg("failed to drain toasts")
	}
	data.Toasts = toasts

	if data.SignedIn {
		data.Nav = navFor(memberNav, r.URL.Path)
	} else {
		data.Nav = navFor(publicNav, r.URL.Path)
	}
	return data
}

func navFor(links []NavLink, current string) []NavLink {
	out := make([]NavLink, len(links))
	for i, l := range links {
		l.Active = l.Path == current
		out[i] = l
	}
	return out
}

func (s *Server) render(w http.ResponseWriter, status int, p *page, data PageData) {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, layoutTemplate, data); err != nil {
		log.Error().Err(err).Str("page", p.name).Msg("template execution failed")
		http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// serverError logs err and answers the current request with the error page
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	p, ok := s.pages["error"]
	if !ok {
		http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.render(w, http.StatusInternalServerError, p, PageData{
		AppName: s.config.GetAppName(),
		Title:   p.title,
		Page:    p.name,
		Path:    r.URL.Path,
		Theme:   string(sessions.ThemeLight),
		Nav:     navFor(publicNav, ""),
	})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pages["notFound"]
	if !ok {
		http.Error(w, "404 - Page Not Found", http.StatusNotFound)
		return
	}
	s.render(w, http.StatusNotFound, p, s.pageData(r, p))
}

// NotFoundHandler catches every path the mux does not know. Paths the route table can still
// resolve (a trailing slash, a redirect descriptor) are redirected to their canonical form.
func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			if m, err := s.guard.Table().Resolve(r.URL.Path); err == nil && m.Path != r.URL.Path {
				redirectSuccess(w, r, m.Path)
				return
			}
		}
		s.notFound(w, r)
	}
}
