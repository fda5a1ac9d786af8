// Package domain contains the core business entities for the Ventra catalog
// backend. These are pure Go structs with no external dependencies,
// representing the fundamental concepts of the system.
package domain

import (
	"time"
)

// User represents a registered account in the system.
// Identity verification is delegated to an external identity provider;
// the AuthUID field carries the provider's opaque subject identifier.
type User struct {
	// ID is the unique identifier for the user (auto-generated).
	ID int64 `json:"id"`

	// AuthUID is the unique subject identifier issued by the external
	// identity provider.
	AuthUID string `json:"auth_uid"`

	// Email is the unique email address for the user.
	Email string `json:"email"`

	// DisplayName is the optional human-readable name.
	DisplayName string `json:"display_name"`

	// Disabled indicates whether the account is blocked from access.
	// New accounts start disabled and require operator approval.
	Disabled bool `json:"disabled"`

	// DisabledAt is the timestamp of the most recent disable transition.
	// Nil while the account is enabled.
	DisabledAt *time.Time `json:"disabled_at,omitempty"`

	// DisabledBy identifies the operator who disabled the account.
	// Empty while the account is enabled.
	DisabledBy string `json:"disabled_by,omitempty"`

	// DisableReason is the optional reason recorded when disabling.
	// Empty while the account is enabled.
	DisableReason string `json:"disable_reason,omitempty"`

	// LastLoginAt is the timestamp of the most recent login, if any.
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new User. Accounts are created disabled and must be
// enabled by an operator before they can be used.
func NewUser(authUID, email, displayName string, now time.Time) *User {
	return &User{
		AuthUID:     authUID,
		Email:       email,
		DisplayName: displayName,
		Disabled:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarkDisabled records a disable transition with audit metadata.
func (u *User) MarkDisabled(actor, reason string, now time.Time) {
	u.Disabled = true
	u.DisabledAt = &now
	u.DisabledBy = actor
	u.DisableReason = reason
	u.UpdatedAt = now
}

// MarkEnabled clears the disable state and its audit metadata.
func (u *User) MarkEnabled(now time.Time) {
	u.Disabled = false
	u.DisabledAt = nil
	u.DisabledBy = ""
	u.DisableReason = ""
	u.UpdatedAt = now
}
