package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/cutline/internal/logging"
	"github.com/aretw0/cutline/internal/pipeline"
	"github.com/aretw0/cutline/pkg/device"
	"github.com/aretw0/cutline/pkg/domain"
	"github.com/aretw0/cutline/pkg/ports"
	"github.com/aretw0/cutline/pkg/protocol"
	"github.com/google/uuid"
)

const (
	defaultLockTTL  = 30 * time.Minute
	defaultLockWait = 2 * time.Second
)

// deviceEntry holds a registered device and the lock of its running job.
type deviceEntry struct {
	mu      sync.Mutex // serialises submissions to this device
	profile domain.DeviceProfile
	machine *device.Machine

	lockMu  sync.Mutex
	lockJob string
	unlock  ports.UnlockFunc // Function to release distributed lock (if any)
}

// DeviceInfo is a read-only view of a registered device.
type DeviceInfo struct {
	Name     string               `json:"name"`
	Profile  domain.DeviceProfile `json:"profile"`
	Status   domain.Status        `json:"status"`
	JobID    string               `json:"job_id,omitempty"`
	Position protocol.Position    `json:"position"`
}

// Manager orchestrates jobs across devices.
type Manager struct {
	store ports.JobStore

	mu      sync.Mutex              // Global lock for the map
	devices map[string]*deviceEntry // Registered devices

	locker   ports.DistributedLocker // Optional distributed locker
	lockTTL  time.Duration
	lockWait time.Duration

	hooks  domain.LifecycleHooks
	logger *slog.Logger
	newID  func() string

	base context.Context // parent of every job run
	stop context.CancelFunc
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed device locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTimeouts sets the lock TTL and how long a submission waits for it.
func WithLockTimeouts(ttl, wait time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
		m.lockWait = wait
	}
}

// WithLogger configures a logger for the Manager and its machines.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithLifecycleHooks adds hooks to every machine created afterwards.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = m.hooks.Merge(hooks)
	}
}

// WithIDGenerator replaces the UUID job ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a Manager persisting jobs in store.
func NewManager(store ports.JobStore, opts ...Option) *Manager {
	base, stop := context.WithCancel(context.Background())
	m := &Manager{
		store:    store,
		devices:  make(map[string]*deviceEntry),
		lockTTL:  defaultLockTTL,
		lockWait: defaultLockWait,
		logger:   logging.NewNop(), // Default to no-op
		newID:    uuid.NewString,
		base:     base,
		stop:     stop,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddDevice registers a device reached through transport and returns its machine.
func (m *Manager) AddDevice(name string, profile domain.DeviceProfile, transport ports.Transport, cfg ports.TransportConfig, opts ...device.Option) (*device.Machine, error) {
	if name == "" {
		return nil, errors.New("device name is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.devices[name]; exists {
		return nil, fmt.Errorf("device %s already registered", name)
	}

	hooks := m.hooks.Merge(domain.LifecycleHooks{
		OnStatusChange: func(ctx context.Context, e *domain.StatusEvent) {
			if e.To.Terminal() {
				m.releaseLock(ctx, name, e.JobID)
			}
		},
	})
	base := []device.Option{
		device.WithLogger(m.logger),
		device.WithJobStore(m.store),
		device.WithLifecycleHooks(hooks),
	}
	machine := device.New(name, transport, cfg, append(base, opts...)...)

	m.devices[name] = &deviceEntry{profile: profile, machine: machine}
	return machine, nil
}

func (m *Manager) device(name string) (*deviceEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.devices[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDeviceNotFound, name)
	}
	return e, nil
}

func (m *Manager) entries() map[string]*deviceEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*deviceEntry, len(m.devices))
	for k, v := range m.devices {
		out[k] = v
	}
	return out
}

// Devices lists registered devices sorted by name.
func (m *Manager) Devices() []DeviceInfo {
	entries := m.entries()
	out := make([]DeviceInfo, 0, len(entries))
	for name, e := range entries {
		info := DeviceInfo{
			Name:     name,
			Profile:  e.profile,
			Status:   e.machine.Status(),
			Position: e.machine.Position(),
		}
		if job := e.machine.Job(); job != nil {
			info.JobID = job.ID
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Submit compiles src for the device's profile and starts it. The returned
// job is a snapshot taken right after the start. Compilation failures are
// recorded as a failed job and returned together with it.
func (m *Manager) Submit(ctx context.Context, deviceName string, src domain.Source, params domain.JobParams) (*domain.Job, error) {
	e, err := m.device(deviceName)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if status := e.machine.Status(); status.Active() {
		return nil, fmt.Errorf("%w: %s is %s", domain.ErrDeviceBusy, deviceName, status)
	}

	job := domain.NewJob(m.newID(), deviceName, e.profile, params)
	if err := m.lockDevice(ctx, e, deviceName, job.ID); err != nil {
		return nil, err
	}
	if err := m.store.Save(ctx, job); err != nil {
		m.releaseLock(ctx, deviceName, job.ID)
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	res, err := pipeline.Compile(src, e.profile, params, pipeline.WithLogger(m.logger))
	if err != nil {
		m.logger.Warn("Job rejected", "job_id", job.ID, "device", deviceName, "err", err)
		job.Status = domain.StatusFailed
		job.Reason = err.Error()
		job.UpdatedAt = time.Now()
		if serr := m.store.Save(ctx, job); serr != nil {
			m.logger.Warn("Failed to persist job", "job_id", job.ID, "err", serr)
		}
		m.releaseLock(ctx, deviceName, job.ID)
		return job, err
	}

	if err := e.machine.Start(m.base, job, res.Program); err != nil {
		m.releaseLock(ctx, deviceName, job.ID)
		return nil, err
	}
	m.logger.Info("Job submitted", "job_id", job.ID, "device", deviceName, "groups", len(res.Program.Groups))

	if snap := e.machine.Job(); snap != nil && snap.ID == job.ID {
		return snap, nil
	}
	return job, nil
}

// lockDevice takes the distributed lock for a device.
func (m *Manager) lockDevice(ctx context.Context, e *deviceEntry, name, jobID string) error {
	if m.locker == nil {
		return nil
	}

	lctx, cancel := context.WithTimeout(ctx, m.lockWait)
	defer cancel()
	unlock, err := m.locker.Lock(lctx, "device:"+name, m.lockTTL)
	if err != nil {
		return fmt.Errorf("%w: %s is locked by another instance: %v", domain.ErrDeviceBusy, name, err)
	}

	e.lockMu.Lock()
	e.lockJob = jobID
	e.unlock = unlock
	e.lockMu.Unlock()
	return nil
}

// releaseLock releases the distributed lock held for jobID, if any.
func (m *Manager) releaseLock(ctx context.Context, name, jobID string) {
	e, err := m.device(name)
	if err != nil {
		return
	}

	e.lockMu.Lock()
	if e.unlock == nil || e.lockJob != jobID {
		e.lockMu.Unlock()
		return
	}
	unlock := e.unlock
	e.unlock = nil
	e.lockJob = ""
	e.lockMu.Unlock()

	if err := unlock(context.WithoutCancel(ctx)); err != nil {
		m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
			"device", name,
			"job_id", jobID,
			"err", err,
		)
	}
}

// findRunning returns the machine whose current or last job is id.
func (m *Manager) findRunning(id string) (*device.Machine, *domain.Job) {
	for _, e := range m.entries() {
		if job := e.machine.Job(); job != nil && job.ID == id {
			return e.machine, job
		}
	}
	return nil, nil
}

// Get returns the live job if a device holds it, or the stored record.
func (m *Manager) Get(ctx context.Context, id string) (*domain.Job, error) {
	if _, job := m.findRunning(id); job != nil {
		return job, nil
	}
	return m.store.Load(ctx, id)
}

// List returns the IDs of every stored job.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying job store.
func (m *Manager) Store() ports.JobStore {
	return m.store
}

// Pause suspends job id at its next group boundary.
func (m *Manager) Pause(ctx context.Context, id string) error {
	return m.control(ctx, id, (*device.Machine).Pause)
}

// Resume continues a paused job.
func (m *Manager) Resume(ctx context.Context, id string) error {
	return m.control(ctx, id, (*device.Machine).Resume)
}

// Cancel stops job id at its next group boundary.
func (m *Manager) Cancel(ctx context.Context, id string) error {
	return m.control(ctx, id, (*device.Machine).Cancel)
}

func (m *Manager) control(ctx context.Context, id string, fn func(*device.Machine) error) error {
	machine, job := m.findRunning(id)
	if machine == nil {
		if _, err := m.store.Load(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("%w: job %s", domain.ErrNoActiveJob, id)
	}
	if !job.Status.Active() {
		return fmt.Errorf("%w: job %s is %s", domain.ErrNoActiveJob, id, job.Status)
	}
	return fn(machine)
}

// Wait blocks until job id is terminal.
func (m *Manager) Wait(ctx context.Context, id string) (*domain.Job, error) {
	machine, _ := m.findRunning(id)
	if machine == nil {
		return m.store.Load(ctx, id)
	}
	return machine.Wait(ctx)
}

// Close cancels running jobs, waits for them and disconnects every device.
func (m *Manager) Close() error {
	var errs []error
	for name, e := range m.entries() {
		if e.machine.Status().Active() {
			_ = e.machine.Cancel()
			if _, err := e.machine.Wait(context.Background()); err != nil {
				m.logger.Warn("Job ended with error during shutdown", "device", name, "err", err)
			}
		}
		if err := e.machine.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	m.stop()
	return errors.Join(errs...)
}
