package server

// Route path constants for everything that is not a page of the route table
const (
	// Onboarding and account actions (POST targets share the page path)
	RouteSignup            = "/signup"
	RouteVerifyEmail       = "/verify-email"
	RouteCreateProfile     = "/create-profile"
	RouteVerifyRiotAccount = "/verify-riot-account"
	RouteSettings          = "/settings"
	RouteDashboard         = "/dashboard"
	RouteHome              = "/"
	RouteSignout           = "/signout"

	// External sign-in
	RouteOIDCStart = "/auth/oidc/start"
	RouteCallback  = "/auth/callback"

	// API Routes
	RouteAPIGamingImages = "/api/images/gaming"
	RouteAPITool         = "/api/tools/{name}"

	// Operations
	RouteMetrics = "/metrics"
	RouteHealth  = "/healthz"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
	RouteStaticJS  = "/js/{file}"
)
