// Package process delivers programs to external spooler commands such as
// lp or a vendor upload tool. Commands must be registered by name; device
// addresses only ever select a registered entry.
package process

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/cutline/internal/logging"
	"github.com/aretw0/cutline/pkg/ports"
)

// DefaultGrace is how long Close waits for a spooler to exit before killing it.
const DefaultGrace = 5 * time.Second

// Spooler is an allowed command. The program is written to its stdin and its
// stdout is returned by Conn.Read.
type Spooler struct {
	Command string
	Args    []string
	Env     map[string]string
}

// Transport implements ports.Transport over registered commands.
type Transport struct {
	registry map[string]Spooler
	baseDir  string
	grace    time.Duration
	logger   *slog.Logger
}

// Option configures the transport.
type Option func(*Transport)

// WithSpooler registers a command under name.
func WithSpooler(name string, s Spooler) Option {
	return func(t *Transport) {
		t.registry[name] = s
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) Option {
	return func(t *Transport) {
		t.baseDir = dir
	}
}

// WithGrace sets how long Close waits before killing the process.
func WithGrace(d time.Duration) Option {
	return func(t *Transport) {
		t.grace = d
	}
}

// WithLogger sets the transport logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// NewTransport creates a spooler transport.
func NewTransport(opts ...Option) *Transport {
	t := &Transport{
		registry: make(map[string]Spooler),
		grace:    DefaultGrace,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register adds a trusted command to the allow-list.
func (t *Transport) Register(name, command string, args ...string) {
	t.registry[name] = Spooler{Command: command, Args: args}
}

// Names returns the registered spooler names.
func (t *Transport) Names() []string {
	names := make([]string, 0, len(t.registry))
	for n := range t.registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Open starts the spooler named by cfg.Address. The process outlives ctx; it
// ends when the connection is closed.
func (t *Transport) Open(ctx context.Context, cfg ports.TransportConfig) (ports.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, ok := t.registry[cfg.Address]
	if !ok {
		return nil, fmt.Errorf("spooler not registered: %q", cfg.Address)
	}

	cmd := exec.Command(s.Command, s.Args...)
	cmd.Dir = t.baseDir
	cmd.Env = append(cmd.Environ(), "CUTLINE_SPOOLER="+cfg.Address)
	for k, v := range s.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	c := &conn{name: cfg.Address, grace: t.grace, exited: make(chan struct{})}
	cmd.Stdout = &c.stdout
	cmd.Stderr = &c.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("spooler %s: %w", cfg.Address, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spooler %s: %w", cfg.Address, err)
	}
	c.cmd = cmd
	c.stdin = stdin
	t.logger.Debug("Spooler started", "spooler", cfg.Address, "pid", cmd.Process.Pid)

	go func() {
		err := cmd.Wait()
		c.mu.Lock()
		c.waitErr = err
		c.mu.Unlock()
		close(c.exited)
	}()
	return c, nil
}

type conn struct {
	name  string
	grace time.Duration
	cmd   *exec.Cmd
	stdin io.WriteCloser

	stdout syncBuffer
	stderr syncBuffer

	mu      sync.Mutex
	waitErr error
	exited  chan struct{}

	closeOnce sync.Once
	closeErr  error
}

func (c *conn) Write(p []byte) (int, error) {
	return c.stdin.Write(p)
}

// Read drains stdout. A failed exit is reported once stdout is empty.
func (c *conn) Read() ([]byte, error) {
	if out := c.stdout.Drain(); len(out) > 0 {
		return out, nil
	}
	select {
	case <-c.exited:
		return nil, c.exitError()
	default:
		return nil, nil
	}
}

// Close ends the input stream and waits for the spooler to finish.
func (c *conn) Close() error {
	c.closeOnce.Do(func() {
		_ = c.stdin.Close()
		select {
		case <-c.exited:
		case <-time.After(c.grace):
			_ = c.cmd.Process.Kill()
			<-c.exited
		}
		c.closeErr = c.exitError()
	})
	return c.closeErr
}

func (c *conn) exitError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.waitErr == nil {
		return nil
	}
	return fmt.Errorf("spooler %s failed: %w. Stderr: %s", c.name, c.waitErr, bytes.TrimSpace(c.stderr.Bytes()))
}

// syncBuffer is a bytes.Buffer shared with the exec copy goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

func (b *syncBuffer) Drain() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.buf.Len() == 0 {
		return nil
	}
	out := bytes.Clone(b.buf.Bytes())
	b.buf.Reset()
	return out
}
