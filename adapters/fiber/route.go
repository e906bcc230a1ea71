// Package fiber binds the account handler and the error translator to a
// Fiber v3 application.
package fiber

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/asalhani/clinicapp/core"
	"github.com/asalhani/clinicapp/services"
)

type Adapter struct {
	app *fiber.App
}

var _ core.HTTPAdapter = (*Adapter)(nil)

func New(app *fiber.App) *Adapter {
	return &Adapter{app: app}
}

// RegisterRoutes installs the error translator as the outermost scope and
// mounts every endpoint from the shared registry under basePath.
func (a *Adapter) RegisterRoutes(handler core.AccountHandler, basePath string, logger *slog.Logger) error {
	a.app.Use(NewErrorTranslator(logger))

	handlers := map[string]fiber.Handler{
		"registerAccount":     handleRegistration(handler),
		"login":               handleLogin(handler),
		"twoStepVerification": handleTwoStepVerification(handler),
		"forgotPassword":      handleForgotPassword(handler),
		"resetPassword":       handleResetPassword(handler),
		"emailConfirmation":   handleEmailConfirmation(handler),
	}

	api := a.app.Group(basePath)
	for _, ep := range services.NewEndpointRegistry().Endpoints() {
		h, ok := handlers[ep.Metadata.OperationID]
		if !ok {
			return fmt.Errorf("no fiber handler for operation %q", ep.Metadata.OperationID)
		}

		switch ep.Method {
		case fiber.MethodGet:
			api.Get(ep.Path, h)
		case fiber.MethodPost:
			api.Post(ep.Path, h)
		default:
			return fmt.Errorf("unsupported method %s for operation %q", ep.Method, ep.Metadata.OperationID)
		}
	}

	return nil
}
