package devserver

// Route path constants
const (
	RouteLogin          = "/auth/login"
	RouteRegister       = "/auth/register"
	RouteForgotPassword = "/auth/forgot-password"
	RouteResetPassword  = "/auth/reset-password"
	RouteRefresh        = "/auth/refresh"
	RouteLogout         = "/auth/logout"
	RouteVerify         = "/auth/verify"
	RouteMe             = "/auth/me"
)
