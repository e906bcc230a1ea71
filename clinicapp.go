package clinicapp

import (
	"errors"
	"log/slog"
	"time"

	"github.com/asalhani/clinicapp/core"
	"github.com/asalhani/clinicapp/services"
)

// interfaces
type (
	CredentialStore = core.CredentialStore
	TokenIssuer     = core.TokenIssuer
	Notifier        = core.Notifier

	HTTPAdapter = core.HTTPAdapter

	AccountHandler = core.AccountHandler
)

// structs
type (
	App            = core.App
	Config         = core.Config
	IdentityConfig = core.IdentityConfig
)

type (
	Account               = core.Account
	RegistrationRequest   = core.RegistrationRequest
	AuthenticationAttempt = core.AuthenticationAttempt
	TwoFactorChallenge    = core.TwoFactorChallenge
	AuthResult            = core.AuthResult
	ErrorEnvelope         = core.ErrorEnvelope
	Message               = core.Message
)

const (
	defaultBasePath         = "/accounts"
	defaultLockoutThreshold = 5
	defaultLockoutDuration  = 15 * time.Minute
	defaultRole             = "Viewer"
)

// Constructors & helpers (convenience re-exports)
var (
	NewAccountService = services.NewAccountService
	Translate         = core.Translate
	BuildCallbackURI  = core.BuildCallbackURI
)

var (
	ErrNotFound     = core.ErrNotFound
	ErrInvalidToken = core.ErrInvalidToken
)

// Config errors (server-side configuration)
var (
	ErrStoreRequired       = errors.New("credential store is required")
	ErrTokenIssuerRequired = errors.New("token issuer is required")
	ErrNotifierRequired    = errors.New("notifier is required")
	ErrHTTPAdapterRequired = errors.New("http adapter is required")
)

// New validates the configuration, fills in defaults, wires the account
// service and registers the HTTP routes.
func New(config Config) (*App, error) {
	if config.Store == nil {
		return nil, ErrStoreRequired
	}
	if config.Tokens == nil {
		return nil, ErrTokenIssuerRequired
	}
	if config.Notifier == nil {
		return nil, ErrNotifierRequired
	}
	if config.HTTP == nil {
		return nil, ErrHTTPAdapterRequired
	}

	// Set Defaults

	identity := config.Identity
	if identity.LockoutThreshold == 0 {
		identity.LockoutThreshold = defaultLockoutThreshold
	}
	if identity.LockoutDuration == 0 {
		identity.LockoutDuration = defaultLockoutDuration
	}
	if identity.DefaultRole == "" {
		identity.DefaultRole = defaultRole
	}

	basePath := config.BasePath
	if basePath == "" {
		basePath = defaultBasePath
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler := services.NewAccountService(config.Store, config.Tokens, config.Notifier, identity)

	app := &App{
		Handler:  handler,
		Logger:   logger,
		BasePath: basePath,
	}

	if err := config.HTTP.RegisterRoutes(handler, basePath, logger); err != nil {
		return nil, err
	}

	return app, nil
}
