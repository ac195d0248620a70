package model

import "time"

// Login is one active session. Token is the opaque bearer credential handed
// to the client; the row is deleted on logout.
type Login struct {
	ID        string    `json:"id"        db:"id"`
	Token     string    `json:"-"         db:"token"`
	UserID    string    `json:"userId"    db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
}

// Expired reports whether the session is past its expiry at time now.
func (l *Login) Expired(now time.Time) bool {
	return !l.ExpiresAt.IsZero() && !now.Before(l.ExpiresAt)
}
