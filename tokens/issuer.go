// Package tokens implements the token issuer port: signed bearer tokens and
// single-use confirmation/reset/two-factor tokens, all derived from one
// shared secret.
package tokens

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/asalhani/clinicapp/core"
	"github.com/asalhani/clinicapp/pkg/cache"
)

const minSecretLen = 32

var (
	ErrSecretRequired = errors.New("secret is required")
	ErrSecretTooShort = fmt.Errorf("secret too short - minimum of %d characters", minSecretLen)
)

// Config configures the issuer.
type Config struct {
	// Secret signs every token. Minimum 32 characters.
	Secret string

	// Issuer and Audience are stamped into bearer claims.
	Issuer   string
	Audience string

	// BearerTTL is the bearer token lifetime. Default 2h.
	BearerTTL time.Duration

	// OneTimeTTL is the confirmation/reset token lifetime. Default 30m.
	OneTimeTTL time.Duration

	// TwoFactorWindow is the validity window of a two-factor code. A code
	// is accepted for the window it was minted in plus the following one.
	// Default 5m.
	TwoFactorWindow time.Duration
}

// Issuer mints and validates tokens. Confirmation and reset tokens are
// short-lived JWTs carrying a purpose claim and a unique ID consumed
// through the replay guard, so each can be redeemed at most once.
// Two-factor codes are six-digit HMAC-derived values scoped to a time
// window.
type Issuer struct {
	secret   []byte
	issuer   string
	audience string

	bearerTTL  time.Duration
	oneTimeTTL time.Duration
	window     time.Duration

	replay *cache.ReplayGuard

	now func() time.Time
}

// Ensure Issuer implements the port
var _ core.TokenIssuer = (*Issuer)(nil)

func New(config Config) (*Issuer, error) {
	if config.Secret == "" {
		return nil, ErrSecretRequired
	}
	if len(config.Secret) < minSecretLen {
		return nil, ErrSecretTooShort
	}

	if config.BearerTTL == 0 {
		config.BearerTTL = 2 * time.Hour
	}
	if config.OneTimeTTL == 0 {
		config.OneTimeTTL = 30 * time.Minute
	}
	if config.TwoFactorWindow == 0 {
		config.TwoFactorWindow = 5 * time.Minute
	}

	return &Issuer{
		secret:     []byte(config.Secret),
		issuer:     config.Issuer,
		audience:   config.Audience,
		bearerTTL:  config.BearerTTL,
		oneTimeTTL: config.OneTimeTTL,
		window:     config.TwoFactorWindow,
		replay: cache.NewReplayGuard(cache.Config{
			TTL: config.OneTimeTTL * 2,
		}),
		now: time.Now,
	}, nil
}

type bearerClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// SignBearerToken mints the credential presented on authenticated requests.
func (i *Issuer) SignBearerToken(_ context.Context, account *core.Account) (string, error) {
	now := i.now()
	claims := bearerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.bearerTTL)),
		},
		Email: account.Email,
		Name:  account.FirstName + " " + account.LastName,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign bearer token: %w", err)
	}
	return signed, nil
}

type oneTimeClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

func (i *Issuer) generateOneTime(account *core.Account, purpose core.TokenPurpose) (string, error) {
	now := i.now()
	claims := oneTimeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.oneTimeTTL)),
		},
		Email:   account.Email,
		Purpose: string(purpose),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", purpose, err)
	}
	return signed, nil
}

func (i *Issuer) GenerateConfirmationToken(_ context.Context, account *core.Account) (string, error) {
	return i.generateOneTime(account, core.PurposeConfirmation)
}

func (i *Issuer) GenerateResetToken(_ context.Context, account *core.Account) (string, error) {
	return i.generateOneTime(account, core.PurposeReset)
}

// ValidateToken checks signature, expiry, purpose and ownership, then
// consumes the token's unique ID. A replayed token validates false.
func (i *Issuer) ValidateToken(_ context.Context, account *core.Account, purpose core.TokenPurpose, token string) (bool, error) {
	claims := &oneTimeClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return i.now() }))
	if err != nil || !parsed.Valid {
		return false, nil
	}

	if claims.Purpose != string(purpose) || claims.Email != account.Email {
		return false, nil
	}

	return i.replay.MarkUsed(claims.ID), nil
}

// GenerateTwoFactorToken derives the six-digit code for the current window.
func (i *Issuer) GenerateTwoFactorToken(_ context.Context, account *core.Account, provider string) (string, error) {
	return i.twoFactorCode(account, provider, i.currentWindow()), nil
}

// ValidateTwoFactorToken accepts the code for the current or previous
// window, consuming it on first use.
func (i *Issuer) ValidateTwoFactorToken(_ context.Context, account *core.Account, provider, token string) (bool, error) {
	current := i.currentWindow()
	for _, window := range []int64{current, current - 1} {
		if token != i.twoFactorCode(account, provider, window) {
			continue
		}
		key := fmt.Sprintf("twofactor|%s|%s|%d", provider, account.Email, window)
		return i.replay.MarkUsed(key), nil
	}
	return false, nil
}

// ListValidProviders reports the two-factor providers usable for this
// account. Email is valid once the address is confirmed.
func (i *Issuer) ListValidProviders(_ context.Context, account *core.Account) ([]string, error) {
	if !account.EmailConfirmed {
		return nil, nil
	}
	return []string{core.ProviderEmail}, nil
}

func (i *Issuer) currentWindow() int64 {
	return i.now().Unix() / int64(i.window.Seconds())
}

func (i *Issuer) twoFactorCode(account *core.Account, provider string, window int64) string {
	mac := hmac.New(sha256.New, i.secret)
	fmt.Fprintf(mac, "twofactor|%s|%s|", provider, account.Email)
	_ = binary.Write(mac, binary.BigEndian, window)
	sum := mac.Sum(nil)

	code := binary.BigEndian.Uint32(sum[:4]) % 1_000_000
	return fmt.Sprintf("%06d", code)
}
