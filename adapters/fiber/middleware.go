package fiber

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/asalhani/clinicapp/core"
)

// NewErrorTranslator creates the outermost middleware: it captures any
// fault raised downstream (returned error or panic), attaches the
// structured log record, and writes the uniform error envelope. No fault
// ever reaches the framework's own error handler; the scope always
// terminates with a written response.
func NewErrorTranslator(logger *slog.Logger) fiber.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c fiber.Ctx) error {
		err := runScope(c)
		if err == nil {
			return nil
		}

		envelope := core.Translate(err)

		logger.LogAttrs(c.Context(), slog.LevelError,
			fmt.Sprintf("%s - ErrorId: %s", err.Error(), envelope.ErrorID),
			slog.String("error_id", envelope.ErrorID),
			slog.String("request_method", c.Method()),
			slog.String("request_path", c.OriginalURL()),
			slog.String("request_headers", flattenHeaders(c.GetReqHeaders())),
			slog.String("request_body", requestBody(c)),
			slog.String("host", c.Hostname()),
			slog.Int("status_code", envelope.StatusCode),
		)

		return c.Status(envelope.StatusCode).JSON(envelope)
	}
}

// runScope executes the rest of the chain, converting panics into errors so
// classification happens in exactly one place.
func runScope(c fiber.Ctx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("panic: %v", r)
			}
		}
	}()
	return c.Next()
}

// flattenHeaders renders headers as "{Key: v1, v2}, {Key2: v3}" with
// multi-valued headers joined by ", ". Keys are sorted for stable output.
func flattenHeaders(headers map[string][]string) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("{%s: %s}", k, strings.Join(headers[k], ", ")))
	}
	return strings.Join(parts, ", ")
}

// requestBody returns the request body when the declared content type is
// JSON, and the empty string otherwise. Fiber buffers the body in memory,
// so reading it here leaves it intact for every other collaborator in the
// request scope.
func requestBody(c fiber.Ctx) string {
	if !strings.Contains(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		return ""
	}
	return string(c.Body())
}
