// Package store defines the volatile artifact store used by the protocol
// engine: a namespaced, TTL-aware key/value store with secondary lookups by
// uid and userCode and bulk revocation by grantId.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound   = errors.New("store: not found")
	ErrInvalidKey = errors.New("store: invalid key")
)

// Namespaces written by the protocol engine.
const (
	NamespaceSession           = "Session"
	NamespaceGrant             = "Grant"
	NamespaceInteraction       = "Interaction"
	NamespaceAuthorizationCode = "AuthorizationCode"
	NamespaceAccessToken       = "AccessToken"
	NamespaceRefreshToken      = "RefreshToken"
)

// Store is implemented by the memory and sqlite drivers. All reads treat a
// record whose exp is at or before the current Unix second as absent.
type Store interface {
	// Upsert writes or overwrites namespace:id. A positive ttl sets
	// payload.exp to now plus the whole seconds of ttl. Overwriting keeps the
	// key's original insertion position.
	Upsert(ctx context.Context, namespace, id string, payload Payload, ttl time.Duration) error

	// Find returns the record stored under namespace:id or ErrNotFound.
	Find(ctx context.Context, namespace, id string) (Payload, error)

	// FindByUID returns the first record of namespace, in insertion order,
	// whose uid equals uid.
	FindByUID(ctx context.Context, namespace, uid string) (Payload, error)

	// FindByUserCode is FindByUID keyed on userCode.
	FindByUserCode(ctx context.Context, namespace, userCode string) (Payload, error)

	// Destroy deletes namespace:id. Absent keys are a no-op.
	Destroy(ctx context.Context, namespace, id string) error

	// Consume deletes namespace:id and reports whether this call removed a
	// live record. For any single write at most one Consume returns true.
	Consume(ctx context.Context, namespace, id string) (bool, error)

	// RevokeByGrantID deletes every record of namespace carrying grantID and
	// returns how many were removed.
	RevokeByGrantID(ctx context.Context, namespace, grantID string) (int, error)

	// Reset clears everything. It runs once at process start.
	Reset(ctx context.Context) error

	// DeleteExpired eagerly removes expired records.
	DeleteExpired(ctx context.Context) (int, error)

	Ping(ctx context.Context) error
	Close() error
}

// Key builds the composite storage key.
func Key(namespace, id string) string {
	return namespace + ":" + id
}

// ValidateKey rejects empty namespaces or ids.
func ValidateKey(namespace, id string) error {
	if namespace == "" || id == "" {
		return fmt.Errorf("%w: namespace=%q id=%q", ErrInvalidKey, namespace, id)
	}
	return nil
}

// ExpiresAt converts a TTL into an absolute Unix second. Non-positive TTLs
// return 0, meaning no expiry.
func ExpiresAt(now time.Time, ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return now.Unix() + int64(ttl/time.Second)
}

// Expired reports whether exp is set and not after now.
func Expired(exp int64, now time.Time) bool {
	return exp != 0 && exp <= now.Unix()
}
