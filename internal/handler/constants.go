package handler

// Route paths.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteLogin is the login page path.
	RouteLogin = "/login"
	// RouteLogout is the logout action path.
	RouteLogout = "/logout"
	// RouteDashboard is the dashboard path.
	RouteDashboard = "/dashboard"
	// RouteMeetings is the meeting list path.
	RouteMeetings = "/meetings"
	// RouteMeetingsNew is the meeting creation form path.
	RouteMeetingsNew = RouteMeetings + "/new"
	// RouteHealth is the health check path.
	RouteHealth = "/health"

	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteSuffixNew is the creation form path relative to the meetings route.
	RouteSuffixNew = "/new"
	// RouteSuffixClose is the suffix for close routes.
	RouteSuffixClose = "/close"
	// RouteSuffixDelete is the suffix for delete routes.
	RouteSuffixDelete = "/delete"
	// RouteSuffixEdit is the suffix for edit routes.
	RouteSuffixEdit = "/edit"
)

// Flash message types.
const (
	flashTypeSuccess = "success"
	flashTypeError   = "error"
	flashTypeInfo    = "info"
)

// recentMeetingsLimit caps the dashboard's recent-meetings table.
const recentMeetingsLimit = 5
