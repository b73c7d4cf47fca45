package domain

import "time"

const SessionTTL = 24 * time.Hour

// Principal is the identity snapshot copied into a session at login. It is
// never refreshed from the users table, so role or email changes only take
// effect on the next login.
type Principal struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Session is a server-held login. ID is the opaque cookie value; stores
// only ever see its fingerprint.
type Session struct {
	ID        string
	Principal Principal
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
