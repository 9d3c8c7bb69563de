// Package server assembles the fiber application: auth routes, profile
// routes, health and metrics endpoints.
package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/samber/oops"
	"github.com/uptrace/bun"

	devconnect "github.com/goliatone/go-devconnect"
	"github.com/goliatone/go-devconnect/activitymap"
	"github.com/goliatone/go-devconnect/config"
	"github.com/goliatone/go-devconnect/metrics"
	"github.com/goliatone/go-devconnect/persistence"
	"github.com/goliatone/go-devconnect/profile"
	"github.com/goliatone/go-devconnect/repository"
)

type Options struct {
	Config  *config.Config
	DB      *bun.DB
	Logger  devconnect.Logger
	Metrics *metrics.Metrics
	// Clock overrides time.Now for token issue and validation
	Clock func() time.Time
}

// Server holds the assembled application and its collaborators
type Server struct {
	App     *fiber.App
	Auther  *devconnect.Auther
	Tokens  *devconnect.TokenService
	Manager *repository.Manager
	Metrics *metrics.Metrics
}

func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, oops.Code("CONFIG_INVALID").In("server").Errorf("missing configuration")
	}
	if opts.DB == nil {
		return nil, oops.Code(devconnect.CodeStoreUnavailable).In("server").Errorf("missing database")
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	log := opts.Logger
	if log == nil {
		log = devconnect.NopLogger{}
	}

	cfg := opts.Config
	authCfg := cfg.Auth

	tokenOpts := []devconnect.TokenServiceOption{devconnect.WithTokenLogger(log)}
	if opts.Clock != nil {
		tokenOpts = append(tokenOpts, devconnect.WithClock(opts.Clock))
	}

	tokens, err := devconnect.NewTokenService(authCfg, tokenOpts...)
	if err != nil {
		return nil, err
	}

	manager := repository.NewManager(opts.DB)
	if err := manager.Validate(); err != nil {
		return nil, err
	}

	auther := devconnect.NewAuthenticator(manager, tokens, authCfg).
		WithLogger(log).
		WithActivitySink(devconnect.ActivitySinks{
			opts.Metrics.Sink(),
			activitymap.LogSink(log, activitymap.WithRedactedKeys("email")),
		})

	gate := devconnect.NewHTTPAuthenticator(tokens, authCfg).
		WithLogger(log).
		WithRejectionRecorder(func(c *fiber.Ctx, err error) {
			auther.RecordTokenRejection(c.UserContext(), err)
		}).
		ProtectedRoute()

	app := fiber.New(fiber.Config{
		AppName:               "devconnect",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(observe(opts.Metrics))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := persistence.Health(c.UserContext(), opts.DB); err != nil {
			log.Error("health check failed", "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}).Name("healthz")

	app.Get("/metrics", adaptor.HTTPHandler(opts.Metrics.Handler())).Name("metrics")

	devconnect.RegisterAuthRoutes(app, devconnect.NewAuthController(auther, gate,
		devconnect.WithControllerDebug(cfg.Server.Debug),
		devconnect.WithControllerLogger(log),
	))

	profiles := profile.NewService(manager.Profiles(), manager, profile.WithServiceLogger(log))
	profile.RegisterRoutes(app, profile.NewHTTPController(profiles, gate, log))

	return &Server{
		App:     app,
		Auther:  auther,
		Tokens:  tokens,
		Manager: manager,
		Metrics: opts.Metrics,
	}, nil
}

// errorHandler renders errors that escaped a handler with the same body
// shape the handlers use.
func errorHandler(log devconnect.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"errors": []devconnect.FieldError{{Msg: fe.Message}},
			})
		}
		return devconnect.WriteError(c, err, log)
	}
}

func observe(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		route := c.Route().Path
		if route == "" || route == "/" {
			route = "unmatched"
		}
		m.ObserveRequest(route, status)

		return err
	}
}
