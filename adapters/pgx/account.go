package pgx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/asalhani/clinicapp/core"
)

// pgUniqueViolation is the SQLSTATE for unique-constraint violations.
const pgUniqueViolation = "23505"

const accountColumns = `id, email, first_name, last_name, email_confirmed, two_factor_enabled, access_failed_count, lockout_end, created_at, updated_at`

func (a *Adapter) FindByEmail(ctx context.Context, email string) (*core.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	account := &core.Account{}
	err := a.db.QueryRow(ctx, q, email).Scan(
		&account.ID, &account.Email, &account.FirstName, &account.LastName,
		&account.EmailConfirmed, &account.TwoFactorEnabled,
		&account.AccessFailedCount, &account.LockoutEnd,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return account, nil
}

func (a *Adapter) Create(ctx context.Context, account *core.Account, password string) error {
	if reasons := validatePassword(password); len(reasons) > 0 {
		return &core.StoreError{Reasons: reasons}
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	account.ID = uuid.NewString()

	q := `INSERT INTO accounts (id, email, first_name, last_name, password_hash, email_confirmed, two_factor_enabled)
	      VALUES ($1, $2, $3, $4, $5, $6, $7)
	      RETURNING created_at, updated_at`
	err = a.db.QueryRow(ctx, q,
		account.ID, account.Email, account.FirstName, account.LastName,
		hash, account.EmailConfirmed, account.TwoFactorEnabled,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return &core.StoreError{Reasons: []string{
				fmt.Sprintf("Email '%s' is already taken.", account.Email),
			}}
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (a *Adapter) CheckPassword(ctx context.Context, account *core.Account, password string) (bool, error) {
	var hash string
	err := a.db.QueryRow(ctx, `SELECT password_hash FROM accounts WHERE id = $1`, account.ID).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, core.ErrNotFound
		}
		return false, fmt.Errorf("failed to load password hash: %w", err)
	}
	return a.hasher.Verify(password, hash)
}

// IncrementFailedCount is a single atomic round trip so concurrent logins
// for the same account cannot lose an increment.
func (a *Adapter) IncrementFailedCount(ctx context.Context, account *core.Account) (int, error) {
	q := `UPDATE accounts SET access_failed_count = access_failed_count + 1, updated_at = now()
	      WHERE id = $1 RETURNING access_failed_count`

	var count int
	if err := a.db.QueryRow(ctx, q, account.ID).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, core.ErrNotFound
		}
		return 0, fmt.Errorf("failed to increment failed count: %w", err)
	}
	account.AccessFailedCount = count
	return count, nil
}

func (a *Adapter) IsLockedOut(ctx context.Context, account *core.Account) (bool, error) {
	var lockoutEnd *time.Time
	err := a.db.QueryRow(ctx, `SELECT lockout_end FROM accounts WHERE id = $1`, account.ID).Scan(&lockoutEnd)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, core.ErrNotFound
		}
		return false, fmt.Errorf("failed to load lockout state: %w", err)
	}
	return lockoutEnd != nil && lockoutEnd.After(time.Now()), nil
}

func (a *Adapter) SetLockoutEnd(ctx context.Context, account *core.Account, end time.Time) error {
	q := `UPDATE accounts SET lockout_end = $1, updated_at = now() WHERE id = $2`
	if _, err := a.db.Exec(ctx, q, end, account.ID); err != nil {
		return fmt.Errorf("failed to set lockout end: %w", err)
	}
	account.LockoutEnd = &end
	return nil
}

func (a *Adapter) ResetFailedCount(ctx context.Context, account *core.Account) error {
	q := `UPDATE accounts SET access_failed_count = 0, updated_at = now() WHERE id = $1`
	if _, err := a.db.Exec(ctx, q, account.ID); err != nil {
		return fmt.Errorf("failed to reset failed count: %w", err)
	}
	account.AccessFailedCount = 0
	return nil
}

func (a *Adapter) SetEmailConfirmed(ctx context.Context, account *core.Account, confirmed bool) error {
	q := `UPDATE accounts SET email_confirmed = $1, updated_at = now() WHERE id = $2`
	if _, err := a.db.Exec(ctx, q, confirmed, account.ID); err != nil {
		return fmt.Errorf("failed to set email confirmed: %w", err)
	}
	account.EmailConfirmed = confirmed
	return nil
}

func (a *Adapter) UpdatePassword(ctx context.Context, account *core.Account, newPassword string) error {
	if reasons := validatePassword(newPassword); len(reasons) > 0 {
		return &core.StoreError{Reasons: reasons}
	}

	hash, err := a.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	q := `UPDATE accounts SET password_hash = $1, updated_at = now() WHERE id = $2`
	if _, err := a.db.Exec(ctx, q, hash, account.ID); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (a *Adapter) AddRole(ctx context.Context, account *core.Account, role string) error {
	q := `INSERT INTO account_roles (account_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := a.db.Exec(ctx, q, account.ID, role); err != nil {
		return fmt.Errorf("failed to add role: %w", err)
	}
	return nil
}
