package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/asalhani/clinicapp/core"
)

// FakeCredentialStore is a test-only fake implementing core.CredentialStore.
// It stores accounts in a map keyed by email and exposes error fields for
// behavior injection.
type FakeCredentialStore struct {
	mu        sync.RWMutex
	accounts  map[string]*core.Account
	passwords map[string]string
	roles     map[string][]string

	createErr    error
	findErr      error
	checkErr     error
	incrementErr error
}

func NewFakeCredentialStore() *FakeCredentialStore {
	return &FakeCredentialStore{
		accounts:  make(map[string]*core.Account),
		passwords: make(map[string]string),
		roles:     make(map[string][]string),
	}
}

func (f *FakeCredentialStore) FindByEmail(_ context.Context, email string) (*core.Account, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	account, ok := f.accounts[email]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (f *FakeCredentialStore) Create(_ context.Context, account *core.Account, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.accounts[account.Email]; exists {
		return &core.StoreError{Reasons: []string{fmt.Sprintf("Email '%s' is already taken.", account.Email)}}
	}
	if len(password) < 6 {
		return &core.StoreError{Reasons: []string{"Passwords must be at least 6 characters."}}
	}
	account.ID = fmt.Sprintf("account-%d", len(f.accounts)+1)
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	stored := *account
	f.accounts[account.Email] = &stored
	f.passwords[account.Email] = password
	return nil
}

func (f *FakeCredentialStore) CheckPassword(_ context.Context, account *core.Account, password string) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.checkErr != nil {
		return false, f.checkErr
	}
	return f.passwords[account.Email] == password, nil
}

func (f *FakeCredentialStore) IncrementFailedCount(_ context.Context, account *core.Account) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incrementErr != nil {
		return 0, f.incrementErr
	}
	stored := f.accounts[account.Email]
	stored.AccessFailedCount++
	return stored.AccessFailedCount, nil
}

func (f *FakeCredentialStore) IsLockedOut(_ context.Context, account *core.Account) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	stored, ok := f.accounts[account.Email]
	if !ok {
		return false, core.ErrNotFound
	}
	return stored.Locked(time.Now()), nil
}

func (f *FakeCredentialStore) SetLockoutEnd(_ context.Context, account *core.Account, end time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.accounts[account.Email]
	stored.LockoutEnd = &end
	return nil
}

func (f *FakeCredentialStore) ResetFailedCount(_ context.Context, account *core.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[account.Email].AccessFailedCount = 0
	return nil
}

func (f *FakeCredentialStore) SetEmailConfirmed(_ context.Context, account *core.Account, confirmed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[account.Email].EmailConfirmed = confirmed
	return nil
}

func (f *FakeCredentialStore) UpdatePassword(_ context.Context, account *core.Account, newPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(newPassword) < 6 {
		return &core.StoreError{Reasons: []string{"Passwords must be at least 6 characters."}}
	}
	f.passwords[account.Email] = newPassword
	return nil
}

func (f *FakeCredentialStore) AddRole(_ context.Context, account *core.Account, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[account.Email] = append(f.roles[account.Email], role)
	return nil
}

// Stored returns the stored account record for assertions.
func (f *FakeCredentialStore) Stored(email string) *core.Account {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.accounts[email]
}

// Roles returns the roles assigned to an account.
func (f *FakeCredentialStore) Roles(email string) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.roles[email]
}

// FakeTokenIssuer is a test-only fake implementing core.TokenIssuer. Minted
// tokens are deterministic strings; validation accepts them back.
type FakeTokenIssuer struct {
	mu        sync.Mutex
	providers []string

	bearerErr   error
	validateErr error

	signed    []string
	generated []string
}

func NewFakeTokenIssuer() *FakeTokenIssuer {
	return &FakeTokenIssuer{providers: []string{core.ProviderEmail}}
}

func (f *FakeTokenIssuer) SignBearerToken(_ context.Context, account *core.Account) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bearerErr != nil {
		return "", f.bearerErr
	}
	token := "bearer-" + account.Email
	f.signed = append(f.signed, token)
	return token, nil
}

func (f *FakeTokenIssuer) GenerateConfirmationToken(_ context.Context, account *core.Account) (string, error) {
	return f.generate("confirmation", account.Email)
}

func (f *FakeTokenIssuer) GenerateResetToken(_ context.Context, account *core.Account) (string, error) {
	return f.generate("reset", account.Email)
}

func (f *FakeTokenIssuer) GenerateTwoFactorToken(_ context.Context, account *core.Account, provider string) (string, error) {
	return f.generate("twofactor:"+provider, account.Email)
}

func (f *FakeTokenIssuer) generate(scope, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := scope + "-" + email
	f.generated = append(f.generated, token)
	return token, nil
}

func (f *FakeTokenIssuer) ValidateToken(_ context.Context, account *core.Account, purpose core.TokenPurpose, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.validateErr != nil {
		return false, f.validateErr
	}
	return token == string(purpose)+"-"+account.Email, nil
}

func (f *FakeTokenIssuer) ValidateTwoFactorToken(_ context.Context, account *core.Account, provider, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.validateErr != nil {
		return false, f.validateErr
	}
	return token == "twofactor:"+provider+"-"+account.Email, nil
}

func (f *FakeTokenIssuer) ListValidProviders(_ context.Context, _ *core.Account) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.providers, nil
}

// FakeNotifier is a test-only fake implementing core.Notifier. Sent messages
// are recorded for assertions.
type FakeNotifier struct {
	mu      sync.Mutex
	sendErr error
	sent    []core.Message
}

func NewFakeNotifier() *FakeNotifier {
	return &FakeNotifier{}
}

func (f *FakeNotifier) Send(_ context.Context, msg core.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

// Sent returns all recorded messages.
func (f *FakeNotifier) Sent() []core.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.Message, len(f.sent))
	copy(out, f.sent)
	return out
}

// SentWithSubject returns the recorded messages whose subject contains s.
func (f *FakeNotifier) SentWithSubject(s string) []core.Message {
	var out []core.Message
	for _, msg := range f.Sent() {
		if strings.Contains(msg.Subject, s) {
			out = append(out, msg)
		}
	}
	return out
}
