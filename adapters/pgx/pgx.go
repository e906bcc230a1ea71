// Package pgx implements the credential store on PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE accounts (
//	    id                  text PRIMARY KEY,
//	    email               text NOT NULL UNIQUE,
//	    first_name          text NOT NULL DEFAULT '',
//	    last_name           text NOT NULL DEFAULT '',
//	    password_hash       text NOT NULL,
//	    email_confirmed     boolean NOT NULL DEFAULT false,
//	    two_factor_enabled  boolean NOT NULL DEFAULT false,
//	    access_failed_count integer NOT NULL DEFAULT 0,
//	    lockout_end         timestamptz,
//	    created_at          timestamptz NOT NULL DEFAULT now(),
//	    updated_at          timestamptz NOT NULL DEFAULT now()
//	);
//
//	CREATE TABLE account_roles (
//	    account_id text NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
//	    role       text NOT NULL,
//	    PRIMARY KEY (account_id, role)
//	);
package pgx

import (
	"context"
	"fmt"
	"unicode"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/asalhani/clinicapp/core"
	"github.com/asalhani/clinicapp/pkg/crypto"
)

// minPasswordLen is the password-policy floor enforced on create and reset.
const minPasswordLen = 6

// Querier is the subset of pgxpool.Pool the adapter needs. Tests satisfy it
// with pgxmock.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Adapter struct {
	db     Querier
	hasher crypto.PasswordHasher
}

var _ core.CredentialStore = (*Adapter)(nil)

func New(db Querier, hasher crypto.PasswordHasher) *Adapter {
	if hasher == nil {
		hasher = crypto.NewArgon2id()
	}
	return &Adapter{db: db, hasher: hasher}
}

// validatePassword collects every policy violation so callers can surface
// the full list at once.
func validatePassword(password string) []string {
	var reasons []string

	if len(password) < minPasswordLen {
		reasons = append(reasons, fmt.Sprintf("Passwords must be at least %d characters.", minPasswordLen))
	}

	hasDigit := false
	for _, r := range password {
		if unicode.IsDigit(r) {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		reasons = append(reasons, "Passwords must have at least one digit ('0'-'9').")
	}

	return reasons
}
