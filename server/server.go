package server

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-rift-portal/accounts"
	"github.com/jrsteele09/go-rift-portal/accounts/repomem"
	"github.com/jrsteele09/go-rift-portal/imagetools"
	"github.com/jrsteele09/go-rift-portal/internal/config"
	"github.com/jrsteele09/go-rift-portal/internal/events"
	"github.com/jrsteele09/go-rift-portal/internal/metrics"
	"github.com/jrsteele09/go-rift-portal/navigation"
	"github.com/jrsteele09/go-rift-portal/notify"
	"github.com/jrsteele09/go-rift-portal/server/authflowrepo"
	"github.com/jrsteele09/go-rift-portal/sessions"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const authFlowTTL = 10 * time.Minute

type OidcConfig struct {
	OidcProvider *oidc.Provider
	OAuth2Config *oauth2.Config
	OidcVerifier *oidc.IDTokenVerifier
}

// Dependencies are the optional collaborators of the server. Nil fields get in-memory defaults,
// except Tools, Gallery and MCP whose routes answer 503 when absent.
type Dependencies struct {
	Accounts  accounts.Repo
	Events    *events.Bus
	Metrics   *metrics.Metrics
	AuthFlows authflowrepo.Repo
	Tools     *imagetools.Dispatcher
	Gallery   *imagetools.Gallery
	MCP       http.Handler // SSE transport, mounted when set
	MCPPaths  [2]string    // SSE and message endpoint paths
}

type Server struct {
	env           string // Environment (e.g., "DEV", "PROD")
	mux           *http.ServeMux
	routes        []string
	config        config.Config
	guard         *navigation.Guard
	storage       sessions.Storage
	notifications *notify.Center
	accounts      accounts.Repo
	events        *events.Bus
	metrics       *metrics.Metrics
	authFlows     authflowrepo.Repo
	tools         *imagetools.Dispatcher
	gallery       *imagetools.Gallery
	mcp           http.Handler
	mcpPaths      [2]string
	validate      *validator.Validate
	scopes        *ScopeSigner
	pages         map[string]*page

	oidcConfig *OidcConfig
	oidcLock   sync.Mutex
}

// New builds the server. The guard, the session storage and the notification centre are required.
func New(cfg config.Config, guard *navigation.Guard, storage sessions.Storage, notifications *notify.Center, deps Dependencies) (*Server, error) {
	if guard == nil || storage == nil || notifications == nil {
		return nil, fmt.Errorf("[Server New] guard, storage and notifications are required")
	}

	validate, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("[Server New] validator: %w", err)
	}

	s := &Server{
		env:           cfg.GetEnv(),
		mux:           http.NewServeMux(),
		config:        cfg,
		guard:         guard,
		storage:       storage,
		notifications: notifications,
		accounts:      deps.Accounts,
		events:        deps.Events,
		metrics:       deps.Metrics,
		authFlows:     deps.AuthFlows,
		tools:         deps.Tools,
		gallery:       deps.Gallery,
		mcp:           deps.MCP,
		mcpPaths:      deps.MCPPaths,
		validate:      validate,
		scopes:        NewScopeSigner(cfg.GetScopeSecret(), cfg.GetScopeCookieMaxAge()),
	}
	if s.accounts == nil {
		s.accounts = repomem.New()
	}
	if s.events == nil {
		s.events = events.New()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.authFlows == nil {
		s.authFlows = authflowrepo.NewInMemoryRepo(authFlowTTL)
	}

	if s.pages, err = loadPages(guard.Table()); err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered mux patterns in registration order
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
