package core

import (
	"errors"
	"fmt"
	"strings"
)

// Fault taxonomy. The account service returns these; the HTTP binding maps
// them to direct responses (400/401) and anything else falls through to the
// error translator middleware.

var (
	// ErrNotFound means no account matches the email. It is always rendered
	// as a generic "Invalid Request" to prevent user enumeration.
	ErrNotFound = errors.New("account not found") // 400 "Invalid Request"

	// ErrInvalidToken means a confirmation, reset or two-factor token was
	// rejected by the token issuer.
	ErrInvalidToken = errors.New("invalid token") // 400
)

// Unauthorized sub-reasons. Each produces a distinct user-facing message but
// the same 401 status.
const (
	ReasonEmailNotConfirmed  = "EmailNotConfirmed"
	ReasonLockedOut          = "LockedOut"
	ReasonInvalidCredentials = "InvalidCredentials"
	ReasonInvalidProvider    = "InvalidProvider"
)

// UnauthorizedError is a 401 with a machine-readable sub-reason.
type UnauthorizedError struct {
	Reason  string
	Message string
}

func (e *UnauthorizedError) Error() string { return e.Message }

// Unauthorized builds the canonical UnauthorizedError for a sub-reason.
func Unauthorized(reason string) *UnauthorizedError {
	msg := map[string]string{
		ReasonEmailNotConfirmed:  "Email is not confirmed",
		ReasonLockedOut:          "The account is locked out",
		ReasonInvalidCredentials: "Invalid Authentication",
		ReasonInvalidProvider:    "Invalid 2-Step Verification Provider.",
	}[reason]
	if msg == "" {
		msg = "Unauthorized"
	}
	return &UnauthorizedError{Reason: reason, Message: msg}
}

// ValidationError means the caller sent a malformed request. Never
// incident-worthy beyond a 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validation builds a ValidationError with a formatted message.
func Validation(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// StoreError aggregates one or more credential-store failure reasons, for
// example password-policy violations or a duplicate email. Callers must
// surface the full list, not a single message.
type StoreError struct {
	Reasons []string
}

func (e *StoreError) Error() string {
	return "credential store rejected the operation: " + strings.Join(e.Reasons, "; ")
}

// Fault is an explicit application-level failure. The error translator maps
// it to HTTP 400 with the fault's own message; everything outside the
// taxonomy maps to 500 with a generic message.
type Fault struct {
	Message string
	Err     error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	}
	return f.Message
}

func (f *Fault) Unwrap() error { return f.Err }

// NewFault wraps err as a domain fault carrying a caller-relevant message.
func NewFault(message string, err error) *Fault {
	return &Fault{Message: message, Err: err}
}

// IsDomainFault reports whether err belongs to the domain taxonomy. The
// translator renders domain faults as 400 with their own message and
// anything else as 500 with a generic one.
func IsDomainFault(err error) bool {
	var (
		fault        *Fault
		unauthorized *UnauthorizedError
		validation   *ValidationError
		store        *StoreError
	)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidToken):
		return true
	case errors.As(err, &fault), errors.As(err, &unauthorized),
		errors.As(err, &validation), errors.As(err, &store):
		return true
	}
	return false
}
