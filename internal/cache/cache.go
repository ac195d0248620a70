// Package cache keeps a short-lived token → user ID mapping in front of the
// logins table so authenticated requests skip one database read.
//
// The cache only ever answers "which user owns this token". The user row is
// still loaded from the database, so role changes and deletions apply at once.
package cache

import (
	"context"
	"time"
)

// TokenCache maps session tokens to user IDs.
//
// Get reports ok=false on a miss. Add only writes when the token has no
// entry, so it can never overwrite the marker left by Revoke. Revoke
// replaces any entry with that marker for ttl; a revoked token always misses.
// ttl must cover the longest TTL ever passed to Add, otherwise a slow
// validation that read the session before logout could re-add it.
type TokenCache interface {
	Get(ctx context.Context, token string) (userID string, ok bool, err error)
	Add(ctx context.Context, token, userID string, ttl time.Duration) error
	Revoke(ctx context.Context, token string, ttl time.Duration) error
}

// Noop is the TokenCache used when no Redis address is configured.
// Every lookup misses.
type Noop struct{}

var _ TokenCache = Noop{}

func (Noop) Get(context.Context, string) (string, bool, error)        { return "", false, nil }
func (Noop) Add(context.Context, string, string, time.Duration) error { return nil }
func (Noop) Revoke(context.Context, string, time.Duration) error      { return nil }
