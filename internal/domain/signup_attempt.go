package domain

import (
	"time"
)

// Signup throttling thresholds. An email that accumulates MaxSignupAttempts
// attempts within SignupBurstWindow of its first attempt is blocked for
// SignupBlockDuration. These are the canonical defaults; deployments can
// override them through configuration.
const (
	MaxSignupAttempts   = 5
	SignupBurstWindow   = time.Hour
	SignupBlockDuration = 15 * time.Minute
)

// SignupAttempt tracks registration attempts for a single email address.
// At most one record exists per email at any time. The record is created on
// the first attempt, mutated on each subsequent attempt while no account
// exists, and deleted as soon as an account is successfully created.
type SignupAttempt struct {
	// ID is the unique identifier for the record (auto-generated).
	ID int64 `json:"id"`

	// Email is the tracking key.
	Email string `json:"email"`

	// SourceAddr is the caller's network address, recorded best-effort for
	// audit purposes only. It plays no part in throttling decisions.
	SourceAddr string `json:"source_addr"`

	// AttemptCount is the number of attempts observed in the current burst.
	AttemptCount int `json:"attempt_count"`

	// FirstAttemptAt is when the record was created. The burst window is
	// measured from this instant.
	FirstAttemptAt time.Time `json:"first_attempt_at"`

	// LastAttemptAt is when the most recent attempt was observed.
	LastAttemptAt time.Time `json:"last_attempt_at"`

	// Blocked indicates the email is currently rejected outright.
	Blocked bool `json:"blocked"`

	// BlockedUntil is the instant the block lapses. Set whenever Blocked
	// is true, nil otherwise.
	BlockedUntil *time.Time `json:"blocked_until,omitempty"`
}

// NewSignupAttempt creates the tracking record for a first attempt.
func NewSignupAttempt(email, sourceAddr string, now time.Time) *SignupAttempt {
	return &SignupAttempt{
		Email:          email,
		SourceAddr:     sourceAddr,
		AttemptCount:   1,
		FirstAttemptAt: now,
		LastAttemptAt:  now,
	}
}

// BlockActive reports whether the record carries a block that has not yet
// lapsed at the given instant.
func (a *SignupAttempt) BlockActive(now time.Time) bool {
	return a.Blocked && a.BlockedUntil != nil && now.Before(*a.BlockedUntil)
}

// ResetBlock clears a lapsed block and zeroes the attempt counter, giving
// the email a completely fresh quota.
func (a *SignupAttempt) ResetBlock() {
	a.AttemptCount = 0
	a.Blocked = false
	a.BlockedUntil = nil
}

// Block marks the record blocked until the given instant.
func (a *SignupAttempt) Block(until time.Time) {
	a.Blocked = true
	a.BlockedUntil = &until
}
