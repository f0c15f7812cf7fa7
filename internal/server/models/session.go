package models

import "time"

// Session is a server-held identity snapshot keyed by an opaque token.
// The token reaches the client only as a cookie value; everything else
// stays on the server.
type Session struct {
	Token     string
	UserID    int64
	Username  string
	Role      string
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// IsAdmin reports whether the session belongs to an admin account.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}
