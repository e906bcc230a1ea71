package core

import "time"

// Account represents a patient-portal user identity.
//
// The credential store is the single owner of this state: the account
// service reads and mutates it only through CredentialStore operations and
// never caches it across calls. The password hash never leaves the store.
type Account struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	EmailConfirmed   bool `json:"emailConfirmed"`
	TwoFactorEnabled bool `json:"twoFactorEnabled"`

	// AccessFailedCount and LockoutEnd drive the lockout state machine.
	// LockoutEnd in the future means the account is locked regardless of
	// password correctness.
	AccessFailedCount int        `json:"accessFailedCount"`
	LockoutEnd        *time.Time `json:"lockoutEnd,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Locked reports whether the account is currently locked out.
func (a *Account) Locked(now time.Time) bool {
	return a.LockoutEnd != nil && a.LockoutEnd.After(now)
}

// LockoutCleared is the sentinel timestamp written when a lockout is
// explicitly lifted (password reset). Any past timestamp would do; a fixed
// one keeps the stored state recognizable.
var LockoutCleared = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
