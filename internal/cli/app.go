// Package cli wires configuration, adapters and the engine for the cutline
// command line.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/cutline"
	"github.com/aretw0/cutline/internal/logging"
	"github.com/aretw0/cutline/pkg/adapters/loam"
	"github.com/aretw0/cutline/pkg/adapters/memory"
	"github.com/aretw0/cutline/pkg/adapters/process"
	"github.com/aretw0/cutline/pkg/adapters/redis"
	"github.com/aretw0/cutline/pkg/adapters/stream"
	"github.com/aretw0/cutline/pkg/config"
	"github.com/aretw0/cutline/pkg/device"
	"github.com/aretw0/cutline/pkg/observability"
	"github.com/aretw0/cutline/pkg/ports"
)

// Options are the global flags shared by every command.
type Options struct {
	ConfigPath string
	LogLevel   string // overrides log_level from the file
	Debug      bool
	JSONLogs   bool
}

// App is a configured engine together with the resources it owns.
type App struct {
	Config  *config.File
	Engine  *cutline.Engine
	Metrics *observability.Metrics
	Logger  *slog.Logger

	closers []func() error
}

// Setup loads the configuration, opens the profile library and job store,
// builds the engine and registers every configured device.
func Setup(opts Options, extra ...cutline.Option) (*App, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultFile
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger, err := createLogger(opts, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		Metrics: observability.NewMetrics(),
		Logger:  logger,
	}

	profiles, err := app.profiles(filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	engineOpts := []cutline.Option{
		cutline.WithLogger(logger),
		cutline.WithProfiles(profiles),
		cutline.WithMetrics(app.Metrics),
		cutline.WithLifecycleHooks(observability.LoggingHooks(logger)),
	}
	if cfg.Redis != nil {
		redisOpts, err := app.redis(*cfg.Redis)
		if err != nil {
			return nil, err
		}
		engineOpts = append(engineOpts, redisOpts...)
	}

	if app.Engine, err = cutline.New(append(engineOpts, extra...)...); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	// Registered after the stores so that devices are closed first.
	app.closers = append([]func() error{app.Engine.Close}, app.closers...)

	devices := stream.New()
	dryRun := memory.NewTransport()
	spoolers := app.spoolers(filepath.Dir(path))
	for _, d := range cfg.Devices {
		tcfg, err := stream.ParseAddress(d.Address)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("device %s: %w", d.Name, err)
		}
		var devOpts []device.Option
		if d.Faults {
			devOpts = append(devOpts, device.WithFaultDetector(device.StatusFaults))
		}
		var transport ports.Transport = devices
		switch tcfg.Kind {
		case ports.TransportMemory:
			transport = dryRun
		case ports.TransportExec:
			// Spoolers act on end of input, so every job gets its own process.
			transport = spoolers
			devOpts = append(devOpts, device.WithDisconnectAfterJob())
		}
		if err := app.Engine.AddDevice(d.Name, d.Profile, transport, tcfg, devOpts...); err != nil {
			_ = app.Close()
			return nil, err
		}
		logger.Debug("Device registered", "device", d.Name, "profile", d.Profile, "kind", tcfg.Kind)
	}

	return app, nil
}

// profiles chains the inline profiles with the optional Loam library.
// Relative library paths are resolved against the config file directory.
func (a *App) profiles(base string) (ports.ProfileLoader, error) {
	inline, err := memory.NewLoader(a.Config.Profiles...)
	if err != nil {
		return nil, err
	}
	if a.Config.ProfileDir == "" {
		return inline, nil
	}

	dir := a.Config.ProfileDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(base, dir)
	}
	library, err := loam.Open(dir)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug("Profile library opened", "dir", dir)
	return Chain(inline, library), nil
}

// spoolers registers the configured exec:// commands. They run from the
// config file directory.
func (a *App) spoolers(base string) *process.Transport {
	opts := []process.Option{process.WithBaseDir(base), process.WithLogger(a.Logger)}
	for _, s := range a.Config.Spoolers {
		opts = append(opts, process.WithSpooler(s.Name, process.Spooler{
			Command: s.Command,
			Args:    s.Args,
			Env:     s.Env,
		}))
	}
	return process.NewTransport(opts...)
}

func (a *App) redis(rc config.RedisConfig) ([]cutline.Option, error) {
	ttl, err := rc.TTLDuration()
	if err != nil {
		return nil, err
	}
	prefix := rc.Prefix
	if prefix == "" {
		prefix = redis.DefaultPrefix
	}

	store := redis.New(rc.Address, rc.Password, rc.DB, redis.WithPrefix(prefix), redis.WithTTL(ttl))
	a.closers = append(a.closers, store.Close)
	a.Logger.Info("Using redis job store", "address", rc.Address, "prefix", prefix)

	return []cutline.Option{
		cutline.WithJobStore(store),
		cutline.WithLocker(redis.NewLocker(store.Client(), prefix)),
	}, nil
}

// Close shuts the engine down and releases the stores.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// createLogger configures the application logger. Logs go to Stderr so that
// programs written to Stdout stay clean.
func createLogger(opts Options, fileLevel string) (*slog.Logger, error) {
	name := fileLevel
	if opts.LogLevel != "" {
		name = opts.LogLevel
	}
	if opts.Debug {
		name = "debug"
	}
	if name == "" && !opts.JSONLogs {
		return logging.New(slog.LevelWarn), nil
	}

	level, err := logging.ParseLevel(name)
	if err != nil {
		return nil, err
	}
	if opts.JSONLogs {
		return logging.NewJSON(os.Stderr, level), nil
	}
	return logging.New(level), nil
}
