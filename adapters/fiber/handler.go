package fiber

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/asalhani/clinicapp/core"
)

// authErrorResponse is the 401 body shape.
type authErrorResponse struct {
	ErrorMessage string `json:"errorMessage"`
}

// errorListResponse carries aggregated credential-store reasons.
type errorListResponse struct {
	Errors []string `json:"errors"`
}

// handleRegistration returns a handler for the registration endpoint
func handleRegistration(accounts core.AccountHandler) fiber.Handler {
	return func(c fiber.Ctx) error {
		var req core.RegistrationRequest
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		if err := accounts.Register(c.Context(), req); err != nil {
			return respondAccountError(c, err)
		}

		return c.SendStatus(http.StatusOK)
	}
}

// handleLogin returns a handler for the login endpoint
func handleLogin(accounts core.AccountHandler) fiber.Handler {
	return func(c fiber.Ctx) error {
		var attempt core.AuthenticationAttempt
		if err := c.Bind().Body(&attempt); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		result, err := accounts.Login(c.Context(), attempt)
		if err != nil {
			return respondAccountError(c, err)
		}

		return c.Status(http.StatusOK).JSON(result)
	}
}

// handleTwoStepVerification returns a handler for the two-step endpoint
func handleTwoStepVerification(accounts core.AccountHandler) fiber.Handler {
	return func(c fiber.Ctx) error {
		var challenge core.TwoFactorChallenge
		if err := c.Bind().Body(&challenge); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		result, err := accounts.CompleteTwoFactor(c.Context(), challenge)
		if err != nil {
			if errors.Is(err, core.ErrInvalidToken) {
				return c.Status(http.StatusBadRequest).JSON("Invalid Token Verification")
			}
			return respondAccountError(c, err)
		}

		return c.Status(http.StatusOK).JSON(result)
	}
}

// handleForgotPassword returns a handler for the forgot-password endpoint
func handleForgotPassword(accounts core.AccountHandler) fiber.Handler {
	return func(c fiber.Ctx) error {
		var req core.PasswordResetRequest
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		if err := accounts.RequestPasswordReset(c.Context(), req); err != nil {
			return respondAccountError(c, err)
		}

		return c.SendStatus(http.StatusOK)
	}
}

// handleResetPassword returns a handler for the reset-password endpoint
func handleResetPassword(accounts core.AccountHandler) fiber.Handler {
	return func(c fiber.Ctx) error {
		var req core.ResetPasswordRequest
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		if err := accounts.ResetPassword(c.Context(), req); err != nil {
			if errors.Is(err, core.ErrInvalidToken) {
				return c.Status(http.StatusBadRequest).JSON(errorListResponse{
					Errors: []string{"Invalid token."},
				})
			}
			return respondAccountError(c, err)
		}

		return c.SendStatus(http.StatusOK)
	}
}

// handleEmailConfirmation returns a handler for the email-confirmation
// endpoint; email and token arrive as query parameters.
func handleEmailConfirmation(accounts core.AccountHandler) fiber.Handler {
	return func(c fiber.Ctx) error {
		email := c.Query("email")
		token := c.Query("token")

		if err := accounts.ConfirmEmail(c.Context(), email, token); err != nil {
			var validation *core.ValidationError
			if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrInvalidToken) || errors.As(err, &validation) {
				return c.Status(http.StatusBadRequest).JSON("Invalid Email Confirmation Request")
			}
			return respondAccountError(c, err)
		}

		return c.SendStatus(http.StatusOK)
	}
}

// respondAccountError maps taxonomy members to direct responses. Anything
// outside the taxonomy propagates to the error translator middleware, which
// owns the uniform envelope.
func respondAccountError(c fiber.Ctx, err error) error {
	var (
		unauthorized *core.UnauthorizedError
		validation   *core.ValidationError
		store        *core.StoreError
	)

	switch {
	case errors.Is(err, core.ErrNotFound):
		// Generic message to prevent user enumeration.
		return c.Status(http.StatusBadRequest).JSON("Invalid Request")

	case errors.As(err, &unauthorized):
		return c.Status(http.StatusUnauthorized).JSON(authErrorResponse{
			ErrorMessage: unauthorized.Message,
		})

	case errors.As(err, &validation):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": validation.Message,
		})

	case errors.As(err, &store):
		return c.Status(http.StatusBadRequest).JSON(errorListResponse{
			Errors: store.Reasons,
		})

	default:
		return err
	}
}
