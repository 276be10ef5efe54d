package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProviderLocal tags users created through the registration form. Users
// arriving through a federated provider carry that provider's tag instead.
const ProviderLocal = "local"

// ResetTokenTTL is how long a password reset token stays redeemable.
var ResetTokenTTL = time.Hour

// User is the authoritative identity record
type User struct {
	bun.BaseModel        `bun:"table:users,alias:usr"`
	ID                   uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role                 UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	Name                 string     `bun:"name" json:"name,omitempty"`
	Username             string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email                string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Provider             string     `bun:"provider,notnull" json:"provider,omitempty"`
	PasswordHash         string     `bun:"password_hash" json:"-"`
	ResetPasswordToken   *string    `bun:"reset_password_token,nullzero" json:"-"`
	ResetPasswordExpires *time.Time `bun:"reset_password_expires,nullzero" json:"-"`
	LoggedInAt           *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt            *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt            *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt            *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// SetResetToken stores a reset token and its expiry together. The two fields
// are both set or both unset, never one without the other.
func (u *User) SetResetToken(token string, expires time.Time) *User {
	u.ResetPasswordToken = &token
	u.ResetPasswordExpires = &expires
	return u
}

// ClearResetToken unsets both reset fields.
func (u *User) ClearResetToken() *User {
	u.ResetPasswordToken = nil
	u.ResetPasswordExpires = nil
	return u
}

// HasActiveResetToken reports whether the record carries a reset token that
// has not yet expired at the given instant.
func (u *User) HasActiveResetToken(now time.Time) bool {
	if u.ResetPasswordToken == nil || u.ResetPasswordExpires == nil {
		return false
	}
	return now.Before(*u.ResetPasswordExpires)
}

// EnsureProvider defaults the provider tag for locally created records.
func (u *User) EnsureProvider() {
	if u.Provider == "" {
		u.Provider = ProviderLocal
	}
}
