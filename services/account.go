package services

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/asalhani/clinicapp/core"
)

// AccountService orchestrates registration, login, two-step verification,
// password reset and email confirmation against the credential store, token
// issuer and notifier ports. It holds no per-account state of its own.
type AccountService struct {
	store    core.CredentialStore
	tokens   core.TokenIssuer
	notifier core.Notifier
	identity core.IdentityConfig
}

// Ensure AccountService implements AccountHandler
var _ core.AccountHandler = (*AccountService)(nil)

func NewAccountService(store core.CredentialStore, tokens core.TokenIssuer, notifier core.Notifier, identity core.IdentityConfig) *AccountService {
	return &AccountService{
		store:    store,
		tokens:   tokens,
		notifier: notifier,
		identity: identity,
	}
}

// Register creates a new account seeded from the global identity policy and,
// when confirmation is enabled, mails the confirmation callback. The default
// role is assigned last.
func (s *AccountService) Register(ctx context.Context, req core.RegistrationRequest) error {
	if err := validateRegistration(req); err != nil {
		return err
	}

	account := &core.Account{
		Email:            req.Email,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		TwoFactorEnabled: s.identity.EnableOtp,
		EmailConfirmed:   !s.identity.EnableEmailConfirmation,
	}

	// Create surfaces *StoreError with the full reason list; pass it
	// through untouched so the caller can render every reason.
	if err := s.store.Create(ctx, account, req.Password); err != nil {
		return err
	}

	if s.identity.EnableEmailConfirmation {
		token, err := s.tokens.GenerateConfirmationToken(ctx, account)
		if err != nil {
			return fmt.Errorf("failed to generate confirmation token: %w", err)
		}

		callback, err := core.BuildCallbackURI(req.ClientURI, token, account.Email)
		if err != nil {
			return core.Validation("invalid client URI")
		}

		if err := s.notifier.Send(ctx, core.Message{
			To:      []string{account.Email},
			Subject: "Email Confirmation token",
			Body:    callback,
		}); err != nil {
			return fmt.Errorf("failed to send confirmation email: %w", err)
		}
	}

	if err := s.store.AddRole(ctx, account, s.identity.DefaultRole); err != nil {
		return fmt.Errorf("failed to assign default role: %w", err)
	}

	return nil
}

// Login runs the per-attempt account state machine:
//
//	Unauthenticated -> {Locked, EmailUnconfirmed, InvalidCredentials,
//	                    TwoFactorPending, Authenticated}
//
// Only a successful password login resets the failed-attempt counter.
func (s *AccountService) Login(ctx context.Context, attempt core.AuthenticationAttempt) (*core.AuthResult, error) {
	account, err := s.store.FindByEmail(ctx, attempt.Email)
	if err != nil {
		return nil, err
	}

	if s.identity.EnableEmailConfirmation && !account.EmailConfirmed {
		return nil, core.Unauthorized(core.ReasonEmailNotConfirmed)
	}

	// A lockout in the future blocks the attempt regardless of password
	// correctness, without incrementing or re-notifying.
	locked, err := s.store.IsLockedOut(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to check lockout state: %w", err)
	}
	if locked {
		return nil, core.Unauthorized(core.ReasonLockedOut)
	}

	ok, err := s.store.CheckPassword(ctx, account, attempt.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, s.recordFailedAttempt(ctx, account, attempt.ClientURI)
	}

	if s.identity.EnableOtp && account.TwoFactorEnabled {
		return s.beginTwoFactor(ctx, account)
	}

	token, err := s.tokens.SignBearerToken(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to sign bearer token: %w", err)
	}

	if err := s.store.ResetFailedCount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to reset failed-attempt count: %w", err)
	}

	return &core.AuthResult{IsAuthSuccessful: true, Token: token}, nil
}

// recordFailedAttempt increments the failed counter and, when the increment
// crosses the lockout threshold, sets the lockout and dispatches the reset
// link exactly once. Triggering the lockout zeroes the counter, so once the
// lockout expires a fresh run of threshold failures is needed to re-lock.
// It always returns an UnauthorizedError.
func (s *AccountService) recordFailedAttempt(ctx context.Context, account *core.Account, clientURI string) error {
	count, err := s.store.IncrementFailedCount(ctx, account)
	if err != nil {
		return fmt.Errorf("failed to record failed attempt: %w", err)
	}

	if count < s.identity.LockoutThreshold {
		return core.Unauthorized(core.ReasonInvalidCredentials)
	}

	end := time.Now().Add(s.identity.LockoutDuration)
	if err := s.store.SetLockoutEnd(ctx, account, end); err != nil {
		return fmt.Errorf("failed to set lockout: %w", err)
	}

	if err := s.store.ResetFailedCount(ctx, account); err != nil {
		return fmt.Errorf("failed to reset failed-attempt count: %w", err)
	}

	body := fmt.Sprintf("Your account is locked out. To reset the password click this link: %s", clientURI)
	if err := s.notifier.Send(ctx, core.Message{
		To:      []string{account.Email},
		Subject: "Locked out account information",
		Body:    body,
	}); err != nil {
		return fmt.Errorf("failed to send lockout notification: %w", err)
	}

	return core.Unauthorized(core.ReasonLockedOut)
}

// beginTwoFactor starts the two-step verification flow instead of issuing a
// bearer token. The generated code is mailed unless delivery is suppressed
// by configuration; either way the caller only learns that a challenge is
// pending.
func (s *AccountService) beginTwoFactor(ctx context.Context, account *core.Account) (*core.AuthResult, error) {
	providers, err := s.tokens.ListValidProviders(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to list two-factor providers: %w", err)
	}
	if !contains(providers, core.ProviderEmail) {
		return nil, core.Unauthorized(core.ReasonInvalidProvider)
	}

	token, err := s.tokens.GenerateTwoFactorToken(ctx, account, core.ProviderEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to generate two-factor token: %w", err)
	}

	if !s.identity.SuppressTwoFactorDelivery {
		if err := s.notifier.Send(ctx, core.Message{
			To:      []string{account.Email},
			Subject: "Authentication token",
			Body:    token,
		}); err != nil {
			return nil, fmt.Errorf("failed to send two-factor token: %w", err)
		}
	}

	return &core.AuthResult{
		Is2StepVerificationRequired: true,
		Provider:                    core.ProviderEmail,
	}, nil
}

// CompleteTwoFactor redeems a pending challenge for a bearer token. It does
// not touch the failed-attempt counter; only a direct password login does.
func (s *AccountService) CompleteTwoFactor(ctx context.Context, challenge core.TwoFactorChallenge) (*core.AuthResult, error) {
	if challenge.Email == "" || challenge.Provider == "" || challenge.Token == "" {
		return nil, core.Validation("email, provider and token are required")
	}

	account, err := s.store.FindByEmail(ctx, challenge.Email)
	if err != nil {
		return nil, err
	}

	valid, err := s.tokens.ValidateTwoFactorToken(ctx, account, challenge.Provider, challenge.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to validate two-factor token: %w", err)
	}
	if !valid {
		return nil, core.ErrInvalidToken
	}

	token, err := s.tokens.SignBearerToken(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to sign bearer token: %w", err)
	}

	return &core.AuthResult{IsAuthSuccessful: true, Token: token}, nil
}

// RequestPasswordReset mails a reset callback. It always succeeds once the
// account exists; whether dispatch worked is not leaked to the caller.
func (s *AccountService) RequestPasswordReset(ctx context.Context, req core.PasswordResetRequest) error {
	if req.Email == "" {
		return core.Validation("email is required")
	}

	account, err := s.store.FindByEmail(ctx, req.Email)
	if err != nil {
		return err
	}

	token, err := s.tokens.GenerateResetToken(ctx, account)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	callback, err := core.BuildCallbackURI(req.ClientURI, token, req.Email)
	if err != nil {
		return core.Validation("invalid client URI")
	}

	if err := s.notifier.Send(ctx, core.Message{
		To:      []string{account.Email},
		Subject: "Reset password token",
		Body:    callback,
	}); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	return nil
}

// ResetPassword redeems a reset token for a new password and explicitly
// clears any lockout, rather than leaving it to expire.
func (s *AccountService) ResetPassword(ctx context.Context, req core.ResetPasswordRequest) error {
	if req.Email == "" || req.Token == "" || req.Password == "" {
		return core.Validation("email, token and password are required")
	}

	account, err := s.store.FindByEmail(ctx, req.Email)
	if err != nil {
		return err
	}

	valid, err := s.tokens.ValidateToken(ctx, account, core.PurposeReset, req.Token)
	if err != nil {
		return fmt.Errorf("failed to validate reset token: %w", err)
	}
	if !valid {
		return core.ErrInvalidToken
	}

	// UpdatePassword surfaces *StoreError with every policy violation.
	if err := s.store.UpdatePassword(ctx, account, req.Password); err != nil {
		return err
	}

	if err := s.store.SetLockoutEnd(ctx, account, core.LockoutCleared); err != nil {
		return fmt.Errorf("failed to clear lockout: %w", err)
	}

	return nil
}

// ConfirmEmail redeems a confirmation token, marking the account usable for
// login when confirmation is required.
func (s *AccountService) ConfirmEmail(ctx context.Context, email, token string) error {
	if email == "" || token == "" {
		return core.Validation("email and token are required")
	}

	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	valid, err := s.tokens.ValidateToken(ctx, account, core.PurposeConfirmation, token)
	if err != nil {
		return fmt.Errorf("failed to validate confirmation token: %w", err)
	}
	if !valid {
		return core.ErrInvalidToken
	}

	if err := s.store.SetEmailConfirmed(ctx, account, true); err != nil {
		return fmt.Errorf("failed to confirm email: %w", err)
	}

	return nil
}

func validateRegistration(req core.RegistrationRequest) error {
	if req.Email == "" {
		return core.Validation("email is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return core.Validation("invalid email format")
	}
	if req.Password == "" {
		return core.Validation("password is required")
	}
	if req.ClientURI == "" {
		return core.Validation("client URI is required")
	}
	return nil
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}
