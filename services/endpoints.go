package services

import (
	"fmt"

	"github.com/asalhani/clinicapp/core"
)

// BaseEndpoints returns framework-agnostic endpoint specifications for the
// account operations. Paths are relative to the configured base path;
// adapters attach their own handlers by OperationID, so multiple bindings
// (Fiber, Gin, Echo) share the same definitions.
func BaseEndpoints() []core.Endpoint {
	return []core.Endpoint{
		{
			Path:   "/registration",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: "registerAccount",
				Description: "Register a new account with email and password",
			},
		},
		{
			Path:   "/login",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: "login",
				Description: "Authenticate with email and password",
			},
		},
		{
			Path:   "/twostepverification",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: "twoStepVerification",
				Description: "Complete a pending two-step verification challenge",
			},
		},
		{
			Path:   "/forgotpassword",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: "forgotPassword",
				Description: "Request a password reset link by email",
			},
		},
		{
			Path:   "/resetpassword",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: "resetPassword",
				Description: "Redeem a reset token for a new password",
			},
		},
		{
			Path:   "/emailconfirmation",
			Method: "GET",
			Metadata: core.EndpointMetadata{
				OperationID: "emailConfirmation",
				Description: "Confirm an account's email address",
			},
		},
	}
}

// EndpointRegistry manages the endpoint collection and rejects duplicate
// METHOD:PATH registrations.
type EndpointRegistry struct {
	endpoints map[string]*core.Endpoint
	order     []string
}

// NewEndpointRegistry creates a registry with all base account endpoints
// pre-registered.
func NewEndpointRegistry() *EndpointRegistry {
	reg := &EndpointRegistry{
		endpoints: make(map[string]*core.Endpoint),
	}

	base := BaseEndpoints()
	for i := range base {
		// Base endpoints never conflict with each other.
		_ = reg.Register(&base[i])
	}

	return reg
}

// Register adds a single endpoint, failing if the METHOD:PATH combination is
// already taken.
func (r *EndpointRegistry) Register(ep *core.Endpoint) error {
	key := fmt.Sprintf("%s:%s", ep.Method, ep.Path)

	if _, exists := r.endpoints[key]; exists {
		return fmt.Errorf("endpoint conflict: %s %s already registered", ep.Method, ep.Path)
	}

	r.endpoints[key] = ep
	r.order = append(r.order, key)
	return nil
}

// Endpoints returns all registered endpoints in registration order.
func (r *EndpointRegistry) Endpoints() []*core.Endpoint {
	result := make([]*core.Endpoint, 0, len(r.endpoints))
	for _, key := range r.order {
		result = append(result, r.endpoints[key])
	}
	return result
}
