package server

// Route path constants
const (
	RouteIndex = "/{$}"

	// Consent flow
	RouteLogin    = "/login"
	RouteRedirect = "/redirect"

	// Authenticated API
	RouteMe              = "/me"
	RouteDeleteMe        = "/deleteme"
	RouteMetering        = "/metering/{kind}"
	RouteMeteringRefresh = "/metering/refresh/{kind}"

	RouteMetrics = "/metrics"
)
