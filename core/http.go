package core

import "log/slog"

// HTTPAdapter binds the account handler and the error translator to a
// concrete framework. RegisterRoutes must install the translator as the
// outermost scope so no fault can bypass it.
type HTTPAdapter interface {
	RegisterRoutes(handler AccountHandler, basePath string, logger *slog.Logger) error
}
