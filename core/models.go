package core

// Transient request/response shapes for the account endpoints. None of
// these outlive a single call.

// RegistrationRequest contains the data needed to register a new account.
//
// ClientURI is the client-side page that receives the emailed confirmation
// callback; the confirmation token and email are appended to it as query
// parameters.
type RegistrationRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	ClientURI string `json:"clientURI"`
}

// AuthenticationAttempt contains the credentials for a password login.
// ClientURI is used when a lockout notification has to carry a reset link.
type AuthenticationAttempt struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	ClientURI string `json:"clientURI"`
}

// TwoFactorChallenge carries the answer to a pending two-step verification.
type TwoFactorChallenge struct {
	Email    string `json:"email"`
	Provider string `json:"provider"`
	Token    string `json:"token"`
}

// PasswordResetRequest asks for a reset link to be mailed.
type PasswordResetRequest struct {
	Email     string `json:"email"`
	ClientURI string `json:"clientURI"`
}

// ResetPasswordRequest redeems a reset token for a new password.
type ResetPasswordRequest struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

// AuthResult is the success payload of Login and CompleteTwoFactor.
//
// Exactly one of the two shapes is populated: a signed bearer token
// (IsAuthSuccessful) or a pending two-step challenge descriptor
// (Is2StepVerificationRequired plus Provider).
type AuthResult struct {
	IsAuthSuccessful            bool   `json:"isAuthSuccessful"`
	Is2StepVerificationRequired bool   `json:"is2StepVerificationRequired,omitempty"`
	Provider                    string `json:"provider,omitempty"`
	Token                       string `json:"token,omitempty"`
}

// Message is an out-of-band notification handed to the Notifier.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// ErrorEnvelope is the uniform error body written by the error translator.
// It is the only user-facing error shape this module constructs.
type ErrorEnvelope struct {
	ErrorID      string `json:"errorId"`
	StatusCode   int    `json:"statusCode"`
	ErrorMessage string `json:"errorMessage"`
	ErrorDetails string `json:"errorDetails"`
}
