package core

import (
	"log/slog"
	"time"
)

// IdentityConfig is the global identity policy seeded into new accounts and
// consulted on every login.
type IdentityConfig struct {
	// EnableOtp turns on two-step verification for accounts that have it
	// enabled individually.
	EnableOtp bool

	// EnableEmailConfirmation requires a confirmation round trip before the
	// first login. New accounts are seeded with EmailConfirmed =
	// !EnableEmailConfirmation.
	EnableEmailConfirmation bool

	// LockoutThreshold is the number of consecutive failed password
	// attempts that locks the account.
	LockoutThreshold int

	// LockoutDuration is how long a lockout lasts once triggered.
	LockoutDuration time.Duration

	// DefaultRole is assigned to every newly registered account.
	DefaultRole string

	// SuppressTwoFactorDelivery skips the out-of-band send of two-factor
	// codes. Callers must not assume delivery occurred either way.
	SuppressTwoFactorDelivery bool
}

type Config struct {
	Store    CredentialStore
	Tokens   TokenIssuer
	Notifier Notifier

	HTTP HTTPAdapter

	// Optional config
	Logger   *slog.Logger
	Identity IdentityConfig
	BasePath string
}

// App is the wired application handed to HTTP adapters.
type App struct {
	Handler  AccountHandler
	Logger   *slog.Logger
	BasePath string
}
