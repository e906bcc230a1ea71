package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/asalhani/clinicapp/core"
)

func testIdentity() core.IdentityConfig {
	return core.IdentityConfig{
		EnableOtp:               false,
		EnableEmailConfirmation: false,
		LockoutThreshold:        5,
		LockoutDuration:         15 * time.Minute,
		DefaultRole:             "Viewer",
	}
}

func newTestService(identity core.IdentityConfig) (*AccountService, *FakeCredentialStore, *FakeTokenIssuer, *FakeNotifier) {
	store := NewFakeCredentialStore()
	issuer := NewFakeTokenIssuer()
	notifier := NewFakeNotifier()
	return NewAccountService(store, issuer, notifier, identity), store, issuer, notifier
}

func mustRegister(t *testing.T, service *AccountService, email, password string) {
	t.Helper()
	err := service.Register(context.Background(), core.RegistrationRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  password,
		ClientURI: "https://clinic.example/confirm",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
}

// Requirement: Register creates an account seeded from the identity policy,
// assigns the default role, and mails a confirmation callback only when
// confirmation is enabled.
func TestAccountService_Register(t *testing.T) {
	tests := []struct {
		name             string
		identity         core.IdentityConfig
		req              core.RegistrationRequest
		setup            func(*FakeCredentialStore)
		wantErr          bool
		wantValidation   bool
		wantStoreErr     bool
		wantConfirmed    bool
		wantTwoFactor    bool
		wantConfirmMails int
	}{
		{
			name:     "creates immediately usable account when confirmation disabled",
			identity: testIdentity(),
			req: core.RegistrationRequest{
				FirstName: "Ada", LastName: "Lovelace",
				Email: "ada@clinic.example", Password: "P@ssw0rd1",
				ClientURI: "https://clinic.example/confirm",
			},
			wantConfirmed:    true,
			wantConfirmMails: 0,
		},
		{
			name: "seeds unconfirmed account and mails callback when confirmation enabled",
			identity: core.IdentityConfig{
				EnableEmailConfirmation: true,
				LockoutThreshold:        5,
				LockoutDuration:         15 * time.Minute,
				DefaultRole:             "Viewer",
			},
			req: core.RegistrationRequest{
				FirstName: "Ada", LastName: "Lovelace",
				Email: "ada@clinic.example", Password: "P@ssw0rd1",
				ClientURI: "https://clinic.example/confirm",
			},
			wantConfirmed:    false,
			wantConfirmMails: 1,
		},
		{
			name: "seeds two-factor from global policy",
			identity: core.IdentityConfig{
				EnableOtp:        true,
				LockoutThreshold: 5,
				LockoutDuration:  15 * time.Minute,
				DefaultRole:      "Viewer",
			},
			req: core.RegistrationRequest{
				Email: "ada@clinic.example", Password: "P@ssw0rd1",
				ClientURI: "https://clinic.example/confirm",
			},
			wantConfirmed: true,
			wantTwoFactor: true,
		},
		{
			name:     "rejects missing email",
			identity: testIdentity(),
			req: core.RegistrationRequest{
				Password: "P@ssw0rd1", ClientURI: "https://clinic.example/confirm",
			},
			wantErr: true, wantValidation: true,
		},
		{
			name:     "rejects malformed email",
			identity: testIdentity(),
			req: core.RegistrationRequest{
				Email: "not-an-email", Password: "P@ssw0rd1",
				ClientURI: "https://clinic.example/confirm",
			},
			wantErr: true, wantValidation: true,
		},
		{
			name:     "surfaces store reasons as a list",
			identity: testIdentity(),
			req: core.RegistrationRequest{
				Email: "ada@clinic.example", Password: "bad",
				ClientURI: "https://clinic.example/confirm",
			},
			wantErr: true, wantStoreErr: true,
		},
		{
			name:     "surfaces duplicate email as store error",
			identity: testIdentity(),
			req: core.RegistrationRequest{
				Email: "ada@clinic.example", Password: "P@ssw0rd1",
				ClientURI: "https://clinic.example/confirm",
			},
			setup: func(store *FakeCredentialStore) {
				_ = store.Create(context.Background(), &core.Account{Email: "ada@clinic.example"}, "P@ssw0rd1")
			},
			wantErr: true, wantStoreErr: true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			service, store, _, notifier := newTestService(test.identity)
			if test.setup != nil {
				test.setup(store)
			}

			// Act
			err := service.Register(context.Background(), test.req)

			// Assert
			if (err != nil) != test.wantErr {
				t.Fatalf("Register() error = %v, wantErr %v", err, test.wantErr)
			}
			if test.wantValidation {
				var validation *core.ValidationError
				if !errors.As(err, &validation) {
					t.Fatalf("Register() error = %v, want ValidationError", err)
				}
			}
			if test.wantStoreErr {
				var storeErr *core.StoreError
				if !errors.As(err, &storeErr) {
					t.Fatalf("Register() error = %v, want StoreError", err)
				}
				if len(storeErr.Reasons) == 0 {
					t.Error("StoreError should carry at least one reason")
				}
			}
			if err != nil {
				return
			}

			stored := store.Stored(test.req.Email)
			if stored == nil {
				t.Fatal("Register() should persist the account")
			}
			if stored.EmailConfirmed != test.wantConfirmed {
				t.Errorf("EmailConfirmed = %v, want %v", stored.EmailConfirmed, test.wantConfirmed)
			}
			if stored.TwoFactorEnabled != test.wantTwoFactor {
				t.Errorf("TwoFactorEnabled = %v, want %v", stored.TwoFactorEnabled, test.wantTwoFactor)
			}
			if got := store.Roles(test.req.Email); len(got) != 1 || got[0] != "Viewer" {
				t.Errorf("Roles = %v, want [Viewer]", got)
			}

			mails := notifier.SentWithSubject("Email Confirmation token")
			if len(mails) != test.wantConfirmMails {
				t.Fatalf("confirmation mails = %d, want %d", len(mails), test.wantConfirmMails)
			}
			if test.wantConfirmMails > 0 {
				body := mails[0].Body
				if !strings.Contains(body, "token=") || !strings.Contains(body, "email=") {
					t.Errorf("confirmation callback %q should carry token and email query params", body)
				}
				if !strings.HasPrefix(body, test.req.ClientURI) {
					t.Errorf("confirmation callback %q should extend client URI %q", body, test.req.ClientURI)
				}
			}
		})
	}
}

// Requirement: Login maps each account state to its taxonomy member; a
// successful password login issues a token and resets the failed counter.
func TestAccountService_Login(t *testing.T) {
	tests := []struct {
		name       string
		identity   core.IdentityConfig
		setup      func(*AccountService, *FakeCredentialStore)
		email      string
		password   string
		wantErr    error
		wantReason string
		wantToken  bool
	}{
		{
			name:     "unknown email returns not found",
			identity: testIdentity(),
			email:    "ghost@clinic.example",
			password: "whatever",
			wantErr:  core.ErrNotFound,
		},
		{
			name: "unconfirmed email is rejected",
			identity: core.IdentityConfig{
				EnableEmailConfirmation: true,
				LockoutThreshold:        5,
				LockoutDuration:         15 * time.Minute,
				DefaultRole:             "Viewer",
			},
			setup: func(service *AccountService, _ *FakeCredentialStore) {
				mustRegister(t, service, "ada@clinic.example", "P@ssw0rd1")
			},
			email:      "ada@clinic.example",
			password:   "P@ssw0rd1",
			wantReason: core.ReasonEmailNotConfirmed,
		},
		{
			name:     "wrong password is unauthorized",
			identity: testIdentity(),
			setup: func(service *AccountService, _ *FakeCredentialStore) {
				mustRegister(t, service, "ada@clinic.example", "P@ssw0rd1")
			},
			email:      "ada@clinic.example",
			password:   "wrong",
			wantReason: core.ReasonInvalidCredentials,
		},
		{
			name:     "locked account rejects even the correct password",
			identity: testIdentity(),
			setup: func(service *AccountService, store *FakeCredentialStore) {
				mustRegister(t, service, "ada@clinic.example", "P@ssw0rd1")
				account := store.Stored("ada@clinic.example")
				_ = store.SetLockoutEnd(context.Background(), account, time.Now().Add(10*time.Minute))
			},
			email:      "ada@clinic.example",
			password:   "P@ssw0rd1",
			wantReason: core.ReasonLockedOut,
		},
		{
			name:     "correct password issues a bearer token",
			identity: testIdentity(),
			setup: func(service *AccountService, _ *FakeCredentialStore) {
				mustRegister(t, service, "ada@clinic.example", "P@ssw0rd1")
			},
			email:     "ada@clinic.example",
			password:  "P@ssw0rd1",
			wantToken: true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			service, store, _, _ := newTestService(test.identity)
			if test.setup != nil {
				test.setup(service, store)
			}

			// Act
			result, err := service.Login(context.Background(), core.AuthenticationAttempt{
				Email:     test.email,
				Password:  test.password,
				ClientURI: "https://clinic.example/reset",
			})

			// Assert
			if test.wantErr != nil {
				if !errors.Is(err, test.wantErr) {
					t.Fatalf("Login() error = %v, want %v", err, test.wantErr)
				}
				return
			}
			if test.wantReason != "" {
				var unauthorized *core.UnauthorizedError
				if !errors.As(err, &unauthorized) {
					t.Fatalf("Login() error = %v, want UnauthorizedError", err)
				}
				if unauthorized.Reason != test.wantReason {
					t.Fatalf("Login() reason = %q, want %q", unauthorized.Reason, test.wantReason)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if test.wantToken && (result == nil || result.Token == "" || !result.IsAuthSuccessful) {
				t.Fatalf("Login() result = %+v, want a signed token", result)
			}
		})
	}
}

// Requirement: each wrong password increments the failed counter by exactly
// one; crossing the threshold locks the account and dispatches the lockout
// notification exactly once; a later successful login resets the counter.
func TestAccountService_Login_LockoutProgression(t *testing.T) {
	// Arrange
	service, store, _, notifier := newTestService(testIdentity())
	mustRegister(t, service, "ada@clinic.example", "P@ssw0rd1")
	ctx := context.Background()

	// Act: four wrong attempts stay short of the threshold of five.
	for i := 1; i <= 4; i++ {
		_, err := service.Login(ctx, core.AuthenticationAttempt{
			Email: "ada@clinic.example", Password: "wrong",
			ClientURI: "https://clinic.example/reset",
		})

		var unauthorized *core.UnauthorizedError
		if !errors.As(err, &unauthorized) || unauthorized.Reason != core.ReasonInvalidCredentials {
			t.Fatalf("attempt %d: error = %v, want InvalidCredentials", i, err)
		}
		if got := store.Stored("ada@clinic.example").AccessFailedCount; got != i {
			t.Fatalf("attempt %d: AccessFailedCount = %d, want %d", i, got, i)
		}
	}
	if got := len(notifier.SentWithSubject("Locked out account information")); got != 0 {
		t.Fatalf("lockout mails before threshold = %d, want 0", got)
	}

	// Act: the fifth wrong attempt crosses the threshold.
	_, err := service.Login(ctx, core.AuthenticationAttempt{
		Email: "ada@clinic.example", Password: "wrong",
		ClientURI: "https://clinic.example/reset",
	})

	// Assert
	var unauthorized *core.UnauthorizedError
	if !errors.As(err, &unauthorized) || unauthorized.Reason != core.ReasonLockedOut {
		t.Fatalf("fifth attempt: error = %v, want LockedOut", err)
	}
	if unauthorized.Message != "The account is locked out" {
		t.Errorf("lockout message = %q", unauthorized.Message)
	}

	stored := store.Stored("ada@clinic.example")
	if stored.LockoutEnd == nil || !stored.LockoutEnd.After(time.Now()) {
		t.Fatal("LockoutEnd should be set in the future")
	}
	if stored.AccessFailedCount != 0 {
		t.Fatalf("AccessFailedCount after lockout = %d, want 0", stored.AccessFailedCount)
	}

	mails := notifier.SentWithSubject("Locked out account information")
	if len(mails) != 1 {
		t.Fatalf("lockout mails = %d, want exactly 1", len(mails))
	}
	if !strings.Contains(mails[0].Body, "https://clinic.example/reset") {
		t.Errorf("lockout mail %q should carry the reset link", mails[0].Body)
	}

	// Act: further attempts while locked do not increment or re-notify.
	_, err = service.Login(ctx, core.AuthenticationAttempt{
		Email: "ada@clinic.example", Password: "wrong",
		ClientURI: "https://clinic.example/reset",
	})
	if !errors.As(err, &unauthorized) || unauthorized.Reason != core.ReasonLockedOut {
		t.Fatalf("locked attempt: error = %v, want LockedOut", err)
	}
	if got := store.Stored("ada@clinic.example").AccessFailedCount; got != 0 {
		t.Fatalf("AccessFailedCount while locked = %d, want 0", got)
	}
	if got := len(notifier.SentWithSubject("Locked out account information")); got != 1 {
		t.Fatalf("lockout mails after locked attempt = %d, want still 1", got)
	}

	// Act: once the lockout is cleared, a successful login resets the counter.
	account := store.Stored("ada@clinic.example")
	_ = store.SetLockoutEnd(ctx, account, core.LockoutCleared)

	result, err := service.Login(ctx, core.AuthenticationAttempt{
		Email: "ada@clinic.example", Password: "P@ssw0rd1",
	})
	if err != nil {
		t.Fatalf("Login() after clear error = %v", err)
	}
	if !result.IsAuthSuccessful || result.Token == "" {
		t.Fatalf("Login() after clear result = %+v", result)
	}
	if got := store.Stored("ada@clinic.example").AccessFailedCount; got != 0 {
		t.Fatalf("AccessFailedCount after success = %d, want 0", got)
	}
}

// Requirement: triggering a lockout zeroes the failed counter, so after the
// lockout expires a full fresh run of threshold failures is needed before
// the account re-locks and a second notification goes out.
func TestAccountService_Login_ExpiredLockoutStartsFreshEpisode(t *testing.T) {
	// Arrange: lock the account, then let the lockout lapse.
	service, store, _, notifier := newTestService(testIdentity())
	mustRegister(t, service, "ada@clinic.example", "P@ssw0rd1")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = service.Login(ctx, core.AuthenticationAttempt{
			Email: "ada@clinic.example", Password: "wrong",
			ClientURI: "https://clinic.example/reset",
		})
	}
	if got := len(notifier.SentWithSubject("Locked out account information")); got != 1 {
		t.Fatalf("lockout mails = %d, want 1", got)
	}

	account := store.Stored("ada@clinic.example")
	_ = store.SetLockoutEnd(ctx, account, time.Now().Add(-time.Minute))

	// Act: a single wrong password after expiry.
	_, err := service.Login(ctx, core.AuthenticationAttempt{
		Email: "ada@clinic.example", Password: "wrong",
		ClientURI: "https://clinic.example/reset",
	})

	// Assert: plain invalid credentials, no immediate re-lock, no new mail.
	var unauthorized *core.UnauthorizedError
	if !errors.As(err, &unauthorized) || unauthorized.Reason != core.ReasonInvalidCredentials {
		t.Fatalf("post-expiry attempt: error = %v, want InvalidCredentials", err)
	}
	if got := store.Stored("ada@clinic.example").AccessFailedCount; got != 1 {
		t.Fatalf("AccessFailedCount = %d, want 1", got)
	}
	if got := len(notifier.SentWithSubject("Locked out account information")); got != 1 {
		t.Fatalf("lockout mails after single post-expiry failure = %d, want still 1", got)
	}

	// Act: four more wrong passwords complete a fresh episode.
	for i := 0; i < 4; i++ {
		_, err = service.Login(ctx, core.AuthenticationAttempt{
			Email: "ada@clinic.example", Password: "wrong",
			ClientURI: "https://clinic.example/reset",
		})
	}

	// Assert: the account re-locks and exactly one more notification is sent.
	if !errors.As(err, &unauthorized) || unauthorized.Reason != core.ReasonLockedOut {
		t.Fatalf("fifth post-expiry attempt: error = %v, want LockedOut", err)
	}
	if got := len(notifier.SentWithSubject("Locked out account information")); got != 2 {
		t.Fatalf("lockout mails after second episode = %d, want 2", got)
	}
}

// Requirement: with two-factor enabled the password login returns a pending
// challenge instead of a token, and the code is mailed unless suppressed.
func TestAccountService_Login_TwoFactor(t *testing.T) {
	tests := []struct {
		name      string
		suppress  bool
		providers []string
		wantMails int
		wantErr   bool
	}{
		{name: "mails the challenge code", providers: []string{core.ProviderEmail}, wantMails: 1},
		{name: "suppressed delivery still returns the challenge", suppress: true, providers: []string{core.ProviderEmail}, wantMails: 0},
		{name: "rejects when email provider unavailable", providers: []string{"Phone"}, wantErr: true},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			identity := testIdentity()
			identity.EnableOtp = true
			identity.SuppressTwoFactorDelivery = test.suppress
			service, _, issuer, notifier := newTestService(identity)
			issuer.providers = test.providers
			mustRegister(t, service, "ada@clinic.example", "P@ssw0rd1")

			// Act
			result, err := service.Login(context.Background(), core.AuthenticationAttempt{
				Email: "ada@clinic.example", Password: "P@ssw0rd1",
			})

			// Assert
			if test.wantErr {
				var unauthorized *core.UnauthorizedError
				if !errors.As(err, &unauthorized) || unauthorized.Reason != core.ReasonInvalidProvider {
					t.Fatalf("Login() error = %v, want InvalidProvider", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if !result.Is2StepVerificationRequired || result.Provider != core.ProviderEmail {
				t.Fatalf("Login() result = %+v, want pending challenge", result)
			}
			if result.Token != "" || result.IsAuthSuccessful {
				t.Fatal("pending challenge must not carry a usable bearer token")
			}
			if got := len(notifier.SentWithSubject("Authentication token")); got != test.wantMails {
				t.Fatalf("challenge mails = %d, want %d", got, test.wantMails)
			}
		})
	}
}

// Requirement: CompleteTwoFactor issues a token on a valid challenge answer
// and never touches the failed-attempt counter.
func TestAccountService_CompleteTwoFactor(t *testing.T) {
	tests := []struct {
		name      string
		challenge core.TwoFactorChallenge
		prefail   int
		wantErr   error
		wantValid bool
	}{
		{
			name: "valid challenge issues a token without resetting the counter",
			challenge: core.TwoFactorChallenge{
				Email:    "ada@clinic.example",
				Provider: core.ProviderEmail,
				Token:    "twofactor:Email-ada@clinic.example",
			},
			prefail:   3,
			wantValid: true,
		},
		{
			name:      "missing fields are a validation error",
			challenge: core.TwoFactorChallenge{Email: "ada@clinic.example"},
		},
		{
			name: "unknown email is not found",
			challenge: core.TwoFactorChallenge{
				Email: "ghost@clinic.example", Provider: core.ProviderEmail, Token: "x",
			},
			wantErr: core.ErrNotFound,
		},
		{
			name: "rejected token is invalid",
			challenge: core.TwoFactorChallenge{
				Email: "ada@clinic.example", Provider: core.ProviderEmail, Token: "bogus",
			},
			wantErr: core.ErrInvalidToken,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			service, store, _, _ := newTestService(testIdentity())
			mustRegister(t, service, "ada@clinic.example", "P@ssw0rd1")
			ctx := context.Background()
			for i := 0; i < test.prefail; i++ {
				_, _ = store.IncrementFailedCount(ctx, store.Stored("ada@clinic.example"))
			}

			// Act
			result, err := service.CompleteTwoFactor(ctx, test.challenge)

			// Assert
			if test.wantValid {
				if err != nil {
					t.Fatalf("CompleteTwoFactor() error = %v", err)
				}
				if !result.IsAuthSuccessful || result.Token == "" {
					t.Fatalf("CompleteTwoFactor() result = %+v", result)
				}
				if got := store.Stored("ada@clinic.example").AccessFailedCount; got != test.prefail {
					t.Fatalf("AccessFailedCount = %d, want untouched %d", got, test.prefail)
				}
				return
			}
			if test.wantErr != nil {
				if !errors.Is(err, test.wantErr) {
					t.Fatalf("CompleteTwoFactor() error = %v, want %v", err, test.wantErr)
				}
				return
			}
			var validation *core.ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("CompleteTwoFactor() error = %v, want ValidationError", err)
			}
		})
	}
}

// Requirement: infrastructure failures are wrapped and surfaced outside the
// domain taxonomy, so the translator renders them as unclassified faults.
func TestAccountService_InfrastructureFailures(t *testing.T) {
	t.Run("increment failure during a wrong password", func(t *testing.T) {
		service, store, _, _ := newTestService(testIdentity())
		mustRegister(t, service, "ada@clinic.example", "P@ssw0rd1")
		store.incrementErr = errors.New("connection refused")

		_, err := service.Login(context.Background(), core.AuthenticationAttempt{
			Email: "ada@clinic.example", Password: "wrong",
		})

		if err == nil || core.IsDomainFault(err) {
			t.Fatalf("Login() error = %v, want an unclassified fault", err)
		}
		if !strings.Contains(err.Error(), "connection refused") {
			t.Errorf("Login() error = %v, want the cause wrapped", err)
		}
	})

	t.Run("notifier failure during registration", func(t *testing.T) {
		identity := testIdentity()
		identity.EnableEmailConfirmation = true
		service, _, _, notifier := newTestService(identity)
		notifier.sendErr = errors.New("smtp unreachable")

		err := service.Register(context.Background(), core.RegistrationRequest{
			Email: "ada@clinic.example", Password: "P@ssw0rd1",
			ClientURI: "https://clinic.example/confirm",
		})

		if err == nil || core.IsDomainFault(err) {
			t.Fatalf("Register() error = %v, want an unclassified fault", err)
		}
	})

	t.Run("store lookup failure is not a domain fault", func(t *testing.T) {
		service, store, _, _ := newTestService(testIdentity())
		store.findErr = errors.New("timeout")

		_, err := service.Login(context.Background(), core.AuthenticationAttempt{
			Email: "ada@clinic.example", Password: "x",
		})

		if err == nil || core.IsDomainFault(err) {
			t.Fatalf("Login() error = %v, want an unclassified fault", err)
		}
	})
}

// Requirement: RequestPasswordReset mails a callback carrying token and
// email; ResetPassword redeems it and explicitly clears any lockout.
func TestAccountService_PasswordReset(t *testing.T) {
	// Arrange
	service, store, _, notifier := newTestService(testIdentity())
	mustRegister(t, service, "ada@clinic.example", "P@ssw0rd1")
	ctx := context.Background()

	account := store.Stored("ada@clinic.example")
	_ = store.SetLockoutEnd(ctx, account, time.Now().Add(10*time.Minute))
	for i := 0; i < 7; i++ {
		_, _ = store.IncrementFailedCount(ctx, account)
	}

	// Act
	err := service.RequestPasswordReset(ctx, core.PasswordResetRequest{
		Email:     "ada@clinic.example",
		ClientURI: "https://clinic.example/resetpassword",
	})
	if err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}

	// Assert
	mails := notifier.SentWithSubject("Reset password token")
	if len(mails) != 1 {
		t.Fatalf("reset mails = %d, want 1", len(mails))
	}
	if !strings.Contains(mails[0].Body, "token=") {
		t.Errorf("reset callback %q should carry the token", mails[0].Body)
	}

	// Act: redeem the token.
	err = service.ResetPassword(ctx, core.ResetPasswordRequest{
		Email:    "ada@clinic.example",
		Token:    "reset-ada@clinic.example",
		Password: "N3wP@ssword",
	})
	if err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}

	// Assert: the lockout is cleared, not merely left to expire.
	stored := store.Stored("ada@clinic.example")
	if stored.Locked(time.Now()) {
		t.Fatal("ResetPassword() should clear the lockout")
	}
	if stored.LockoutEnd == nil || !stored.LockoutEnd.Equal(core.LockoutCleared) {
		t.Errorf("LockoutEnd = %v, want sentinel %v", stored.LockoutEnd, core.LockoutCleared)
	}

	result, err := service.Login(ctx, core.AuthenticationAttempt{
		Email: "ada@clinic.example", Password: "N3wP@ssword",
	})
	if err != nil {
		t.Fatalf("Login() with new password error = %v", err)
	}
	if !result.IsAuthSuccessful {
		t.Fatal("new password should be usable immediately")
	}
}

func TestAccountService_ResetPassword_Failures(t *testing.T) {
	tests := []struct {
		name    string
		req     core.ResetPasswordRequest
		wantErr error
	}{
		{
			name: "unknown email",
			req: core.ResetPasswordRequest{
				Email: "ghost@clinic.example", Token: "t", Password: "N3wP@ssword",
			},
			wantErr: core.ErrNotFound,
		},
		{
			name: "rejected token",
			req: core.ResetPasswordRequest{
				Email: "ada@clinic.example", Token: "bogus", Password: "N3wP@ssword",
			},
			wantErr: core.ErrInvalidToken,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			service, _, _, _ := newTestService(testIdentity())
			mustRegister(t, service, "ada@clinic.example", "P@ssw0rd1")

			// Act
			err := service.ResetPassword(context.Background(), test.req)

			// Assert
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("ResetPassword() error = %v, want %v", err, test.wantErr)
			}
		})
	}

	t.Run("weak replacement surfaces store reasons", func(t *testing.T) {
		service, _, _, _ := newTestService(testIdentity())
		mustRegister(t, service, "ada@clinic.example", "P@ssw0rd1")

		err := service.ResetPassword(context.Background(), core.ResetPasswordRequest{
			Email: "ada@clinic.example", Token: "reset-ada@clinic.example", Password: "bad",
		})

		var storeErr *core.StoreError
		if !errors.As(err, &storeErr) {
			t.Fatalf("ResetPassword() error = %v, want StoreError", err)
		}
	})
}

// Requirement: ConfirmEmail flips the confirmation flag; the account becomes
// usable for login when confirmation is required.
func TestAccountService_ConfirmEmail(t *testing.T) {
	// Arrange
	identity := testIdentity()
	identity.EnableEmailConfirmation = true
	service, store, _, _ := newTestService(identity)
	mustRegister(t, service, "ada@clinic.example", "P@ssw0rd1")
	ctx := context.Background()

	if _, err := service.Login(ctx, core.AuthenticationAttempt{
		Email: "ada@clinic.example", Password: "P@ssw0rd1",
	}); err == nil {
		t.Fatal("login before confirmation should fail")
	}

	// Act
	err := service.ConfirmEmail(ctx, "ada@clinic.example", "confirmation-ada@clinic.example")
	if err != nil {
		t.Fatalf("ConfirmEmail() error = %v", err)
	}

	// Assert
	if !store.Stored("ada@clinic.example").EmailConfirmed {
		t.Fatal("ConfirmEmail() should mark the account confirmed")
	}
	result, err := service.Login(ctx, core.AuthenticationAttempt{
		Email: "ada@clinic.example", Password: "P@ssw0rd1",
	})
	if err != nil {
		t.Fatalf("Login() after confirmation error = %v", err)
	}
	if !result.IsAuthSuccessful {
		t.Fatal("confirmed account should log in")
	}

	t.Run("rejected token", func(t *testing.T) {
		err := service.ConfirmEmail(ctx, "ada@clinic.example", "bogus")
		if !errors.Is(err, core.ErrInvalidToken) {
			t.Fatalf("ConfirmEmail() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		err := service.ConfirmEmail(ctx, "ghost@clinic.example", "token")
		if !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("ConfirmEmail() error = %v, want ErrNotFound", err)
		}
	})
}
