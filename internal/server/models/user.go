// Package models defines server-side data models persisted in the database.
package models

// Roles a user can hold. Role is assigned at registration and never
// changes afterwards.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an account row. PasswordHash holds a bcrypt hash; the plaintext
// password is never stored.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
