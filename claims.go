package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims exposes the verified content of a bearer token
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() string
	HasRole(role string) bool
	IsAtLeast(minRole string) bool
	IssuedAt() time.Time
	IdentitySnapshot() *Snapshot
}

// TokenClaims is the concrete claims payload signed into bearer tokens. The
// identity snapshot rides alongside the registered claims so the server can
// reconcile without a session store.
type TokenClaims struct {
	jwt.RegisteredClaims
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

var _ AuthClaims = (*TokenClaims)(nil)

// Subject returns the subject claim
func (c *TokenClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *TokenClaims) UserID() string {
	if c.Snapshot != nil && c.Snapshot.UserID != "" {
		return c.Snapshot.UserID
	}
	return c.Subject()
}

// Role returns the role captured at issuance
func (c *TokenClaims) Role() string {
	if c.Snapshot == nil {
		return ""
	}
	return c.Snapshot.Role
}

// HasRole checks if the token carries a specific role
func (c *TokenClaims) HasRole(role string) bool {
	return c.Role() == role
}

// IsAtLeast checks if the captured role is at least the minimum required role
func (c *TokenClaims) IsAtLeast(minRole string) bool {
	return RoleIsAtLeast(UserRole(c.Role()), UserRole(minRole))
}

// IssuedAt returns the issued at time
func (c *TokenClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// IdentitySnapshot returns the snapshot embedded at issuance
func (c *TokenClaims) IdentitySnapshot() *Snapshot {
	return c.Snapshot
}
