package device

import (
	"log/slog"
	"time"

	"github.com/aretw0/cutline/pkg/domain"
	"github.com/aretw0/cutline/pkg/ports"
)

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger for machine events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithLifecycleHooks registers status and progress callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Machine) {
		m.hooks = m.hooks.Merge(hooks)
	}
}

// WithJobStore persists the job on every status change and group.
func WithJobStore(store ports.JobStore) Option {
	return func(m *Machine) {
		m.store = store
	}
}

// WithFaultDetector sets the detector run on data read after each group.
func WithFaultDetector(d FaultDetector) Option {
	return func(m *Machine) {
		m.detector = d
	}
}

// WithStallLimit bounds how many consecutive writes may accept zero bytes
// before the job fails, and the wait between them.
func WithStallLimit(n int, backoff time.Duration) Option {
	return func(m *Machine) {
		m.maxStalls = n
		m.stallBackoff = backoff
	}
}

// WithDisconnectAfterJob closes the connection when a job completes, before
// it is reported completed. A failing Close fails the job. Use it for
// transports that only act on end of input, such as spooler commands.
func WithDisconnectAfterJob() Option {
	return func(m *Machine) {
		m.disconnectAfterJob = true
	}
}
