package server

import (
	"net/http"
)

func (s *Server) initRoutes() {
	// PAGES - one per navigable path of the route table, all behind the guard
	for _, path := range s.guard.Table().Paths() {
		pattern := "GET " + path
		if path == "/" {
			pattern = "GET /{$}"
		}
		s.RegisterRouteHandler(pattern, ChainMiddleware(s.PageHandler(), s.HTMLMiddleWare(s.GuardMiddleware, s.OnboardingMiddleware)...))
	}

	// SIGNUP & ONBOARDING
	s.RegisterRouteHandler("POST "+RouteSignup, ChainMiddleware(s.SignupPostHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteVerifyEmail, ChainMiddleware(s.VerifyEmailPostHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteCreateProfile, ChainMiddleware(s.CreateProfilePostHandler(), s.HTMLMiddleWare(s.RequireSession)...))
	s.RegisterRouteHandler("POST "+RouteVerifyRiotAccount, ChainMiddleware(s.VerifyRiotAccountPostHandler(), s.HTMLMiddleWare(s.RequireSession)...))
	s.RegisterRouteHandler("POST "+RouteSettings, ChainMiddleware(s.SettingsPostHandler(), s.HTMLMiddleWare(s.RequireSession)...))
	s.RegisterRouteHandler("POST "+RouteSignout, ChainMiddleware(s.SignoutHandler(), s.HTMLMiddleWare()...))

	// EXTERNAL SIGN-IN (the callback itself is a page of the route table)
	s.RegisterRouteHandler("GET "+RouteOIDCStart, ChainMiddleware(s.OIDCStartHandler(), s.HTMLMiddleWare()...))

	// API routes
	s.RegisterRouteHandler("GET "+RouteAPIGamingImages, ChainMiddleware(s.GamingImagesHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPITool, ChainMiddleware(s.ToolCallHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteAPITool, ChainMiddleware(noContent, s.APIMiddleware()...))

	// MCP over SSE
	if s.mcp != nil {
		s.RegisterRouteHandler("GET "+s.mcpPaths[0], s.mcp)
		s.RegisterRouteHandler("POST "+s.mcpPaths[1], s.mcp)
	}

	// Operations
	s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteStaticJS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))

	s.RegisterRouteHandler("/", ChainMiddleware(s.NotFoundHandler(), s.HTMLMiddleWare()...))
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func logError(method, path, error string) {
	logRoute(method, path+" "+Red+error+ResetColor)
}
