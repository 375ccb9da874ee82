package constants

// Session
const (
	SessionCookieName = "assignmate_session"
	ContextKeyUserID  = "user_id"
)

// Auth
const MinPasswordLength = 8

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Dashboard list caps
const (
	DashboardUpcomingLimit = 5
	DashboardRecentLimit   = 5
)
