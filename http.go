package devconnect

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/samber/oops"

	"github.com/goliatone/go-devconnect/middleware/jwtware"
)

type RouteAuthenticator struct {
	cfg       Config
	validator jwtware.TokenValidator
	recorder  func(c *fiber.Ctx, err error)
	Logger    Logger
	// AuthErrorHandler renders gate rejections
	AuthErrorHandler fiber.ErrorHandler
}

func NewHTTPAuthenticator(validator jwtware.TokenValidator, cfg Config) *RouteAuthenticator {
	a := &RouteAuthenticator{
		cfg:       cfg,
		validator: validator,
		Logger:    defLogger{},
	}
	a.AuthErrorHandler = a.defaultAuthErrHandler
	return a
}

// WithRejectionRecorder sets a hook that observes every refused request
func (a *RouteAuthenticator) WithRejectionRecorder(fn func(c *fiber.Ctx, err error)) *RouteAuthenticator {
	a.recorder = fn
	return a
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// ProtectedRoute returns the auth gate for protected routes. Validated
// claims end up in c.Locals(ContextKey) and in c.UserContext().
func (a *RouteAuthenticator) ProtectedRoute(listeners ...jwtware.ValidationListener) fiber.Handler {
	return jwtware.New(jwtware.Config{
		ErrorHandler:        a.handleAuthError,
		ContextKey:          a.cfg.GetContextKey(),
		TokenLookup:         "header:" + a.cfg.GetTokenHeader(),
		TokenValidator:      a.validator,
		ContextEnricher:     WithClaimsContext,
		ValidationListeners: listeners,
	})
}

func (a *RouteAuthenticator) handleAuthError(c *fiber.Ctx, err error) error {
	if a.recorder != nil {
		a.recorder(c, err)
	}
	return a.AuthErrorHandler(c, err)
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c *fiber.Ctx, err error) error {
	a.Logger.Debug("Auth gate rejected request", "path", c.Path(), "error", err)
	return WriteError(c, err, a.Logger)
}

// WriteError renders err as {errors:[{msg, param}]}. Internal detail is
// logged and never sent.
func WriteError(c *fiber.Ctx, err error, logger Logger) error {
	status, errs := ErrorStatus(err)
	if status >= fiber.StatusInternalServerError && logger != nil {
		args := []any{"path", c.Path(), "error", err}
		if oopsErr, ok := oops.AsOops(err); ok {
			args = append(args, "code", oopsErr.Code(), "context", print.MaybePrettyJSON(oopsErr.Context()))
		}
		logger.Error("Request failed", args...)
	}
	return c.Status(status).JSON(fiber.Map{
		"errors": errs,
	})
}
