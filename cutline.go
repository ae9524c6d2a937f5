package cutline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/cutline/internal/logging"
	"github.com/aretw0/cutline/internal/pipeline"
	"github.com/aretw0/cutline/pkg/adapters/memory"
	"github.com/aretw0/cutline/pkg/device"
	"github.com/aretw0/cutline/pkg/domain"
	"github.com/aretw0/cutline/pkg/jobs"
	"github.com/aretw0/cutline/pkg/observability"
	"github.com/aretw0/cutline/pkg/ports"
	"github.com/aretw0/cutline/pkg/protocol"
)

// Result is a compiled conversion: the final graphic, its program and the
// pen-up travel distance.
type Result = pipeline.Result

// Engine is the high-level entry point for the library.
// It wraps the conversion pipeline and a job manager.
type Engine struct {
	profiles ports.ProfileLoader
	store    ports.JobStore
	locker   ports.DistributedLocker
	metrics  *observability.Metrics
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	manager  *jobs.Manager
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks for every device.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithProfiles sets the device profile source. The default is empty.
func WithProfiles(l ports.ProfileLoader) Option {
	return func(e *Engine) {
		e.profiles = l
	}
}

// WithJobStore persists job records. The default keeps them in memory.
func WithJobStore(s ports.JobStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker takes a distributed lock per device while a job runs.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithMetrics records conversions and device events.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes an Engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.profiles == nil {
		loader, err := memory.NewLoader()
		if err != nil {
			return nil, err
		}
		eng.profiles = loader
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	hooks := eng.hooks
	if eng.metrics != nil {
		hooks = eng.metrics.Hooks().Merge(hooks)
	}
	managerOpts := []jobs.Option{
		jobs.WithLogger(eng.logger),
		jobs.WithLifecycleHooks(hooks),
	}
	if eng.locker != nil {
		managerOpts = append(managerOpts, jobs.WithLocker(eng.locker))
	}
	eng.manager = jobs.NewManager(eng.store, managerOpts...)

	return eng, nil
}

// Profile looks up a device profile by name.
func (e *Engine) Profile(ctx context.Context, name string) (domain.DeviceProfile, error) {
	return e.profiles.GetProfile(ctx, name)
}

// Profiles lists the known profile names.
func (e *Engine) Profiles(ctx context.Context) ([]string, error) {
	return e.profiles.ListProfiles(ctx)
}

// Dialects describes the registered protocol encoders.
func (e *Engine) Dialects() []protocol.Info {
	return protocol.Describe()
}

// Compile runs the whole pipeline and returns the program with its graphic.
func (e *Engine) Compile(ctx context.Context, src domain.Source, profile domain.DeviceProfile, params domain.JobParams) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := pipeline.Compile(src, profile, params, pipeline.WithLogger(e.logger))

	if e.metrics != nil {
		dialect := profile.Dialect
		if dialect == "" {
			dialect = domain.DefaultDialect
		}
		size := 0
		if res != nil {
			size = res.Program.Size()
		}
		e.metrics.ObserveConversion(dialect, size, err)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Convert is the batch entry point: it returns the complete byte stream.
func (e *Engine) Convert(ctx context.Context, src domain.Source, profile domain.DeviceProfile, params domain.JobParams) ([]byte, error) {
	res, err := e.Compile(ctx, src, profile, params)
	if err != nil {
		return nil, err
	}
	return res.Program.Bytes(), nil
}

// AddDevice registers a device using a named profile.
func (e *Engine) AddDevice(name, profile string, transport ports.Transport, cfg ports.TransportConfig, opts ...device.Option) error {
	p, err := e.profiles.GetProfile(context.Background(), profile)
	if err != nil {
		return fmt.Errorf("device %s: %w", name, err)
	}
	_, err = e.manager.AddDevice(name, p, transport, cfg, opts...)
	return err
}

// Devices lists registered devices.
func (e *Engine) Devices() []jobs.DeviceInfo {
	return e.manager.Devices()
}

// Plot is the live entry point: it compiles src for the device's profile
// and starts streaming it. The job runs in the background.
func (e *Engine) Plot(ctx context.Context, deviceName string, src domain.Source, params domain.JobParams) (*domain.Job, error) {
	return e.manager.Submit(ctx, deviceName, src, params)
}

// Job returns the current snapshot of a job.
func (e *Engine) Job(ctx context.Context, id string) (*domain.Job, error) {
	return e.manager.Get(ctx, id)
}

// Pause suspends a job at its next group boundary.
func (e *Engine) Pause(ctx context.Context, id string) error {
	return e.manager.Pause(ctx, id)
}

// Resume continues a paused job.
func (e *Engine) Resume(ctx context.Context, id string) error {
	return e.manager.Resume(ctx, id)
}

// Cancel stops a job at its next group boundary and disconnects the device.
func (e *Engine) Cancel(ctx context.Context, id string) error {
	return e.manager.Cancel(ctx, id)
}

// Wait blocks until the job is terminal and returns its final snapshot.
func (e *Engine) Wait(ctx context.Context, id string) (*domain.Job, error) {
	return e.manager.Wait(ctx, id)
}

// Jobs exposes the underlying job manager.
func (e *Engine) Jobs() *jobs.Manager {
	return e.manager
}

// Close cancels running jobs and disconnects all devices.
func (e *Engine) Close() error {
	return e.manager.Close()
}
