package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/cutline/internal/logging"
	"github.com/aretw0/cutline/pkg/domain"
	"github.com/aretw0/cutline/pkg/ports"
	"github.com/aretw0/cutline/pkg/protocol"
)

const (
	defaultMaxStalls    = 50
	defaultStallBackoff = 10 * time.Millisecond
)

// Machine is the runtime state of one device: its connection, position and
// the job currently running on it.
type Machine struct {
	name      string
	transport ports.Transport
	config    ports.TransportConfig

	logger       *slog.Logger
	hooks        domain.LifecycleHooks
	store        ports.JobStore
	detector     FaultDetector
	maxStalls    int
	stallBackoff time.Duration

	disconnectAfterJob bool

	mu       sync.Mutex
	status   domain.Status
	job      *domain.Job
	conn     ports.Conn
	position protocol.Position
	cursor   int // groups fully transmitted

	pauseRequested bool
	wake           chan struct{} // closed when a pause is lifted
	cancel         context.CancelFunc
	done           chan struct{}
	err            error
}

// New creates an idle Machine for the named device.
func New(name string, transport ports.Transport, cfg ports.TransportConfig, opts ...Option) *Machine {
	m := &Machine{
		name:         name,
		transport:    transport,
		config:       cfg,
		logger:       logging.NewNop(),
		maxStalls:    defaultMaxStalls,
		stallBackoff: defaultStallBackoff,
		status:       domain.StatusIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("device", name)
	return m
}

// Name returns the device name.
func (m *Machine) Name() string {
	return m.name
}

// Status returns the status of the current (or last) job, or idle.
func (m *Machine) Status() domain.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Position returns the device position after the last fully sent group.
func (m *Machine) Position() protocol.Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// Connected reports whether a connection is open.
func (m *Machine) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

// Job returns a snapshot of the current (or last) job, or nil.
func (m *Machine) Job() *domain.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.job.Snapshot()
}

// Start runs prog for job in the background. It returns domain.ErrDeviceBusy
// while another job is active. The run stops when ctx is cancelled.
func (m *Machine) Start(ctx context.Context, job *domain.Job, prog *protocol.Program) error {
	if job == nil || prog == nil {
		return errors.New("device: job and program are required")
	}

	m.mu.Lock()
	if m.status.Active() {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", domain.ErrDeviceBusy, m.name, m.status)
	}
	if job.Status == "" {
		job.Status = domain.StatusQueued
	}
	if !domain.CanTransition(job.Status, domain.StatusConnecting) {
		m.mu.Unlock()
		return fmt.Errorf("%w: job %s is %s", domain.ErrInvalidTransition, job.ID, job.Status)
	}

	job = job.Snapshot()
	job.Device = m.name
	job.Progress = domain.Progress{Total: len(prog.Groups)}
	job.Reason = ""

	runCtx, cancel := context.WithCancel(ctx)
	m.job = job
	m.status = job.Status
	m.cursor = 0
	m.pauseRequested = false
	m.wake = make(chan struct{})
	m.cancel = cancel
	m.done = make(chan struct{})
	m.err = nil
	done := m.done
	m.mu.Unlock()

	m.logger.Info("Job started", "job_id", job.ID, "dialect", prog.Dialect, "groups", len(prog.Groups))
	go m.run(runCtx, cancel, prog, done)
	return nil
}

// Pause suspends transmission at the next group boundary. The connection
// stays open.
func (m *Machine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.status.Active() {
		return domain.ErrNoActiveJob
	}
	m.pauseRequested = true
	return nil
}

// Resume lifts a pause.
func (m *Machine) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.status.Active() {
		return domain.ErrNoActiveJob
	}
	if !m.pauseRequested {
		return fmt.Errorf("%w: %s is not paused", domain.ErrInvalidTransition, m.name)
	}
	m.pauseRequested = false
	close(m.wake)
	m.wake = make(chan struct{})
	return nil
}

// Cancel stops the job at the next group boundary, closes the connection and
// discards the remaining groups.
func (m *Machine) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.status.Active() {
		return domain.ErrNoActiveJob
	}
	m.cancel()
	return nil
}

// Wait blocks until the current job reaches a terminal state and returns a
// snapshot of it together with the failure, if any.
func (m *Machine) Wait(ctx context.Context) (*domain.Job, error) {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done == nil {
		return nil, domain.ErrNoActiveJob
	}

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.job.Snapshot(), m.err
}

// Close disconnects an idle device.
func (m *Machine) Close() error {
	m.mu.Lock()
	if m.status.Active() {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", domain.ErrDeviceBusy, m.name, m.status)
	}
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (m *Machine) run(ctx context.Context, cancel context.CancelFunc, prog *protocol.Program, done chan struct{}) {
	defer close(done)
	defer cancel()

	// Status updates must outlive cancellation of the run.
	bg := context.WithoutCancel(ctx)

	m.transition(bg, domain.StatusConnecting, "")
	conn, err := m.connect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			m.finishCancelled(bg)
			return
		}
		m.fail(bg, err)
		return
	}

	m.transition(bg, domain.StatusInitializing, "")
	if err := m.writeAll(conn, prog.Init); err != nil {
		m.fail(bg, err)
		return
	}

	m.transition(bg, domain.StatusPlotting, "")
	for i, g := range prog.Groups {
		if err := m.checkpoint(ctx, bg); err != nil {
			m.finishCancelled(bg)
			return
		}
		if err := m.writeAll(conn, g.Data); err != nil {
			m.fail(bg, err)
			return
		}
		m.advance(bg, i, len(prog.Groups), g)

		if err := m.poll(conn); err != nil {
			m.fail(bg, err)
			return
		}
	}
	if ctx.Err() != nil {
		m.finishCancelled(bg)
		return
	}
	if m.disconnectAfterJob {
		if err := m.disconnect(); err != nil {
			m.fail(bg, domain.WrapError(domain.KindTransport, "close", err))
			return
		}
	}

	m.transition(bg, domain.StatusCompleted, "")
	m.logger.Info("Job completed", "job_id", m.jobID())
}

// connect reuses the open connection or opens a new one.
func (m *Machine) connect(ctx context.Context) (ports.Conn, error) {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn != nil {
		return conn, nil
	}

	conn, err := m.transport.Open(ctx, m.config)
	if err != nil {
		return nil, domain.WrapError(domain.KindTransport, "open", err)
	}

	m.mu.Lock()
	m.conn = conn
	m.position = protocol.Position{}
	m.mu.Unlock()

	// A cancel that raced with Open still owns the new handle.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return conn, nil
}

// checkpoint runs at every group boundary: it blocks while paused and
// reports cancellation.
func (m *Machine) checkpoint(ctx, bg context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.mu.Lock()
		paused := m.pauseRequested
		wake := m.wake
		status := m.status
		m.mu.Unlock()

		if !paused {
			if status == domain.StatusPaused {
				m.transition(bg, domain.StatusPlotting, "")
				m.logger.Info("Job resumed", "job_id", m.jobID())
			}
			return nil
		}
		if status == domain.StatusPlotting {
			m.transition(bg, domain.StatusPaused, "")
			m.logger.Info("Job paused", "job_id", m.jobID())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		}
	}
}

// writeAll writes data completely, retrying partial writes.
func (m *Machine) writeAll(conn ports.Conn, data []byte) error {
	stalls := 0
	for len(data) > 0 {
		n, err := conn.Write(data)
		if err != nil {
			return domain.WrapError(domain.KindTransport, "write", err)
		}
		if n <= 0 {
			stalls++
			if stalls > m.maxStalls {
				return domain.NewError(domain.KindTransport, "write", "device stopped accepting data", len(data))
			}
			time.Sleep(m.stallBackoff)
			continue
		}
		stalls = 0
		data = data[min(n, len(data)):]
	}
	return nil
}

// poll reads back whatever the device sent and runs the fault detector.
func (m *Machine) poll(conn ports.Conn) error {
	data, err := conn.Read()
	if err != nil {
		return domain.WrapError(domain.KindTransport, "read", err)
	}
	if len(data) == 0 || m.detector == nil {
		return nil
	}
	m.logger.Debug("Device replied", "job_id", m.jobID(), "data", string(data))
	return m.detector(data)
}

// advance records a fully transmitted group.
func (m *Machine) advance(ctx context.Context, index, total int, g protocol.Group) {
	m.mu.Lock()
	m.position = g.End
	m.cursor = index + 1
	m.job.Progress.Sent = m.cursor
	m.job.UpdatedAt = time.Now()
	job := m.job.Snapshot()
	m.mu.Unlock()

	m.logger.Debug("Group sent", "job_id", job.ID, "group", index, "bytes", len(g.Data))
	if m.hooks.OnGroupSent != nil {
		m.hooks.OnGroupSent(ctx, &domain.GroupEvent{
			EventBase: m.event(domain.EventGroupSent, job),
			Index:     index,
			Total:     total,
			Bytes:     len(g.Data),
			Position:  domain.Pt(float64(g.End.X), float64(g.End.Y)),
		})
	}
	m.persist(ctx, job)
}

func (m *Machine) fail(ctx context.Context, err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()

	m.logger.Error("Job failed", "job_id", m.jobID(), "err", err)
	m.closeConn()
	m.transition(ctx, domain.StatusFailed, err.Error())
}

func (m *Machine) finishCancelled(ctx context.Context) {
	m.logger.Info("Job cancelled", "job_id", m.jobID())
	m.closeConn()
	m.transition(ctx, domain.StatusCancelled, "cancelled")
}

// disconnect closes the connection and forgets it, returning the Close error.
func (m *Machine) disconnect() error {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

// closeConn closes the connection once and forgets it.
func (m *Machine) closeConn() {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		m.logger.Warn("Failed to close connection", "job_id", m.jobID(), "err", err)
	}
}

// transition moves the job to `to`, then fires hooks and persists it.
func (m *Machine) transition(ctx context.Context, to domain.Status, reason string) {
	m.mu.Lock()
	from := m.status
	if !domain.CanTransition(from, to) {
		m.mu.Unlock()
		m.logger.Error("Rejected status change", "from", from, "to", to)
		return
	}
	m.status = to
	m.job.Status = to
	m.job.Reason = reason
	m.job.UpdatedAt = time.Now()
	job := m.job.Snapshot()
	m.mu.Unlock()

	m.logger.Debug("Status changed", "job_id", job.ID, "from", from, "status", to)
	if m.hooks.OnStatusChange != nil {
		m.hooks.OnStatusChange(ctx, &domain.StatusEvent{
			EventBase: m.event(domain.EventStatusChange, job),
			From:      from,
			To:        to,
			Reason:    reason,
		})
	}
	m.persist(ctx, job)
}

func (m *Machine) persist(ctx context.Context, job *domain.Job) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(ctx, job); err != nil {
		m.logger.Warn("Failed to persist job", "job_id", job.ID, "err", err)
	}
}

func (m *Machine) event(t domain.EventType, job *domain.Job) domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now(),
		Type:      t,
		JobID:     job.ID,
		Device:    m.name,
	}
}

func (m *Machine) jobID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.job == nil {
		return ""
	}
	return m.job.ID
}
