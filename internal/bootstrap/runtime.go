// Package bootstrap holds the boot sequence shared by every binary: .env,
// config, logger, database and dev migrations, plus ordered shutdown.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/angelmondragon/bookify-backend/pkg/config"
	"github.com/angelmondragon/bookify-backend/pkg/db"
	"github.com/angelmondragon/bookify-backend/pkg/logger"
	"github.com/angelmondragon/bookify-backend/pkg/migrate"
)

type closer struct {
	name string
	fn   func() error
}

// Runtime is what a binary has once boot succeeds.
type Runtime struct {
	Config *config.Config
	Logger *logger.Logger
	DB     *db.Client

	closers []closer
}

// Start loads configuration for the named service kind, builds its logger and
// opens the database. On failure everything opened so far is closed.
func Start(ctx context.Context, kind string) (*Runtime, error) {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Service.Kind = kind

	logg := logger.New(logger.Options{
		ServiceName: kind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	if envErr != nil {
		logg.Debug(ctx, "no .env file, using process environment")
	}

	rt := &Runtime{Config: cfg, Logger: logg}
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	rt.DB = dbClient
	rt.OnClose("database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("dev migrations: %w", err)
	}
	return rt, nil
}

// OnClose registers fn to run at shutdown. Closers run in reverse order.
func (r *Runtime) OnClose(name string, fn func() error) {
	r.closers = append(r.closers, closer{name: name, fn: fn})
}

// Close runs every registered closer and returns their combined error.
func (r *Runtime) Close() error {
	var err error
	for i := len(r.closers) - 1; i >= 0; i-- {
		c := r.closers[i]
		if cerr := c.fn(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close %s: %w", c.name, cerr))
		}
	}
	r.closers = nil
	return err
}

// Context returns ctx tagged with env and service kind for boot and shutdown logs.
func (r *Runtime) Context(ctx context.Context) context.Context {
	return r.Logger.WithFields(ctx, map[string]any{
		"env":         r.Config.App.Env,
		"serviceKind": r.Config.Service.Kind,
	})
}

// Fatal logs err and exits. logg may be nil before the logger exists.
func Fatal(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "bootstrap"})
	}
	logg.Error(ctx, msg, err)
	os.Exit(1)
}
