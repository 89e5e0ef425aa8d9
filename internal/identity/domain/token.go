package domain

import "time"

// RefreshToken is a server-persisted session credential. Rows are
// created at login and deleted at logout or expiry, never mutated.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the persisted token is past its TTL.
func (rt *RefreshToken) Expired(now time.Time) bool {
	return now.After(rt.ExpiresAt)
}
