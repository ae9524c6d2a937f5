package stream

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

const readChunk = 256

// conn adapts an io.ReadWriteCloser to ports.Conn.
type conn struct {
	rwc io.ReadWriteCloser

	// idleEOF treats io.EOF from the reader as "no data yet", which is how
	// serial ports report an expired read timeout.
	idleEOF bool

	mu  sync.Mutex
	buf bytes.Buffer
	err error

	closeOnce sync.Once
	closed    chan struct{}
}

func newConn(rwc io.ReadWriteCloser, readable, idleEOF bool) *conn {
	c := &conn{rwc: rwc, idleEOF: idleEOF, closed: make(chan struct{})}
	if readable {
		go c.pump()
	}
	return c
}

func (c *conn) pump() {
	b := make([]byte, readChunk)
	for {
		n, err := c.rwc.Read(b)
		if n > 0 {
			c.mu.Lock()
			c.buf.Write(b[:n])
			c.mu.Unlock()
		}
		if err == nil {
			continue
		}

		select {
		case <-c.closed:
			return
		default:
		}
		if c.idleEOF && errors.Is(err, io.EOF) {
			continue
		}
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		return
	}
}

func (c *conn) Write(p []byte) (int, error) {
	select {
	case <-c.closed:
		return 0, io.ErrClosedPipe
	default:
	}
	return c.rwc.Write(p)
}

// Read drains buffered device output. A reader failure is reported once the
// buffer is empty.
func (c *conn) Read() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.buf.Len() > 0 {
		out := bytes.Clone(c.buf.Bytes())
		c.buf.Reset()
		return out, nil
	}
	return nil, c.err
}

func (c *conn) Close() error {
	err := io.ErrClosedPipe
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.rwc.Close()
	})
	return err
}
