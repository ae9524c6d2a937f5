package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/aretw0/cutline/pkg/ports"
)

// Transport is an in-memory ports.Transport for tests and dry runs. Every
// Open returns a fresh Conn that records what was written.
type Transport struct {
	maxWrite  int
	openErr   error
	onWrite   func(p []byte) error
	autoReply func(p []byte) []byte

	mu    sync.Mutex
	conns []*Conn
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithMaxWrite caps the bytes a single Write accepts, forcing partial writes.
func WithMaxWrite(n int) TransportOption {
	return func(t *Transport) {
		t.maxWrite = n
	}
}

// WithOpenError makes every Open fail with err.
func WithOpenError(err error) TransportOption {
	return func(t *Transport) {
		t.openErr = err
	}
}

// WithWriteHook calls fn before every Write. fn may block; a non-nil error
// fails the Write.
func WithWriteHook(fn func(p []byte) error) TransportOption {
	return func(t *Transport) {
		t.onWrite = fn
	}
}

// WithAutoReply queues fn(accepted bytes) as device output after every Write.
func WithAutoReply(fn func(p []byte) []byte) TransportOption {
	return func(t *Transport) {
		t.autoReply = fn
	}
}

// NewTransport creates an in-memory transport.
func NewTransport(opts ...TransportOption) *Transport {
	t := &Transport{}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Open returns a new Conn.
func (t *Transport) Open(ctx context.Context, cfg ports.TransportConfig) (ports.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.openErr != nil {
		return nil, t.openErr
	}

	c := &Conn{transport: t}
	t.mu.Lock()
	t.conns = append(t.conns, c)
	t.mu.Unlock()
	return c, nil
}

// Opens returns how many connections have been opened.
func (t *Transport) Opens() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}

// Last returns the most recently opened connection, or nil.
func (t *Transport) Last() *Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.conns) == 0 {
		return nil
	}
	return t.conns[len(t.conns)-1]
}

// Conn is an in-memory connection.
type Conn struct {
	transport *Transport

	mu      sync.Mutex
	written bytes.Buffer
	pending bytes.Buffer
	closes  int
}

// Write records p, honouring the transport's partial write cap.
func (c *Conn) Write(p []byte) (int, error) {
	if hook := c.transport.onWrite; hook != nil {
		if err := hook(p); err != nil {
			return 0, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closes > 0 {
		return 0, io.ErrClosedPipe
	}

	n := len(p)
	if limit := c.transport.maxWrite; limit > 0 && n > limit {
		n = limit
	}
	c.written.Write(p[:n])
	if reply := c.transport.autoReply; reply != nil {
		c.pending.Write(reply(p[:n]))
	}
	return n, nil
}

// Read drains queued device output. It never blocks.
func (c *Conn) Read() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closes > 0 {
		return nil, io.ErrClosedPipe
	}
	if c.pending.Len() == 0 {
		return nil, nil
	}
	out := bytes.Clone(c.pending.Bytes())
	c.pending.Reset()
	return out, nil
}

// Close marks the connection closed. Every call is counted.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return nil
}

// Reply queues data to be returned by the next Read.
func (c *Conn) Reply(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending.Write(data)
}

// Written returns a copy of everything written so far.
func (c *Conn) Written() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return bytes.Clone(c.written.Bytes())
}

// Closes returns how many times Close was called.
func (c *Conn) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}
