package core

import (
	"context"
	"time"
)

// Ports define interfaces for external dependencies

// ============================================
// CREDENTIAL STORE PORT
// ============================================

// CredentialStore owns account identity, password hashes and lockout state.
//
// IncrementFailedCount must be atomic against concurrent logins for the
// same account (increment-and-return in one round trip); the account
// service treats every operation as an opaque remote call.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// Create persists a new account with the given password. Policy or
	// uniqueness violations surface as *StoreError aggregating every
	// reason.
	Create(ctx context.Context, account *Account, password string) error

	CheckPassword(ctx context.Context, account *Account, password string) (bool, error)

	IncrementFailedCount(ctx context.Context, account *Account) (int, error)
	IsLockedOut(ctx context.Context, account *Account) (bool, error)
	SetLockoutEnd(ctx context.Context, account *Account, end time.Time) error
	ResetFailedCount(ctx context.Context, account *Account) error

	SetEmailConfirmed(ctx context.Context, account *Account, confirmed bool) error

	// UpdatePassword replaces the stored hash. Policy violations surface
	// as *StoreError, same as Create.
	UpdatePassword(ctx context.Context, account *Account, newPassword string) error

	AddRole(ctx context.Context, account *Account, role string) error
}

// ============================================
// TOKEN ISSUER PORT
// ============================================

// TokenPurpose scopes a single-use token to the flow that minted it.
type TokenPurpose string

const (
	PurposeConfirmation TokenPurpose = "confirmation"
	PurposeReset        TokenPurpose = "reset"
)

// ProviderEmail is the only two-factor provider currently supported.
const ProviderEmail = "Email"

// TokenIssuer mints and validates bearer tokens and single-use
// confirmation/reset/two-factor tokens.
type TokenIssuer interface {
	SignBearerToken(ctx context.Context, account *Account) (string, error)

	GenerateConfirmationToken(ctx context.Context, account *Account) (string, error)
	GenerateResetToken(ctx context.Context, account *Account) (string, error)
	GenerateTwoFactorToken(ctx context.Context, account *Account, provider string) (string, error)

	ValidateToken(ctx context.Context, account *Account, purpose TokenPurpose, token string) (bool, error)
	ValidateTwoFactorToken(ctx context.Context, account *Account, provider, token string) (bool, error)

	// ListValidProviders returns the two-factor providers usable for this
	// account.
	ListValidProviders(ctx context.Context, account *Account) ([]string, error)
}

// ============================================
// NOTIFIER PORT
// ============================================

// Notifier delivers messages out-of-band. Delivery is best effort; the
// account flows never leak to the caller whether dispatch succeeded.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// ============================================
// ACCOUNT HANDLER (for HTTP adapters)
// ============================================

// AccountHandler provides the account operations HTTP bindings expose.
// Every binding must implement the same mapping from taxonomy members to
// responses; the state machine itself lives behind this interface.
type AccountHandler interface {
	Register(ctx context.Context, req RegistrationRequest) error
	Login(ctx context.Context, attempt AuthenticationAttempt) (*AuthResult, error)
	CompleteTwoFactor(ctx context.Context, challenge TwoFactorChallenge) (*AuthResult, error)
	RequestPasswordReset(ctx context.Context, req PasswordResetRequest) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
	ConfirmEmail(ctx context.Context, email, token string) error
}
