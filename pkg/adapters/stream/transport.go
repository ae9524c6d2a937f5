package stream

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/cutline/pkg/ports"
	"github.com/tarm/serial"
)

const (
	DefaultBaud        = 9600
	defaultReadTimeout = 100 * time.Millisecond
)

// Transport opens serial, file and TCP connections.
type Transport struct {
	dialer net.Dialer
}

// New creates a stream Transport.
func New() *Transport {
	return &Transport{}
}

// Open connects according to cfg.Kind. An empty kind is inferred from the
// address.
func (t *Transport) Open(ctx context.Context, cfg ports.TransportConfig) (ports.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("transport address is required")
	}

	kind := cfg.Kind
	if kind == "" {
		kind = inferKind(cfg.Address)
	}

	switch kind {
	case ports.TransportSerial:
		return t.openSerial(ctx, cfg)
	case ports.TransportFile:
		return t.openFile(cfg)
	case ports.TransportTCP:
		return t.openTCP(ctx, cfg)
	}
	return nil, fmt.Errorf("unsupported transport kind %q", kind)
}

func (t *Transport) openSerial(ctx context.Context, cfg ports.TransportConfig) (ports.Conn, error) {
	baud := cfg.Baud
	if baud <= 0 {
		baud = DefaultBaud
	}
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = defaultReadTimeout
	}

	port, err := serial.OpenPort(&serial.Config{Name: cfg.Address, Baud: baud, ReadTimeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Address, err)
	}
	if err := ctx.Err(); err != nil {
		_ = port.Close()
		return nil, err
	}
	return newConn(port, true, true), nil
}

func (t *Transport) openFile(cfg ports.TransportConfig) (ports.Conn, error) {
	f, err := os.OpenFile(cfg.Address, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open device file %s: %w", cfg.Address, err)
	}
	return newConn(f, false, false), nil
}

func (t *Transport) openTCP(ctx context.Context, cfg ports.TransportConfig) (ports.Conn, error) {
	nc, err := t.dialer.DialContext(ctx, "tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Address, err)
	}
	return newConn(nc, true, false), nil
}

// inferKind guesses the transport for a bare address.
func inferKind(addr string) ports.TransportKind {
	switch {
	case strings.HasPrefix(addr, "/dev/tty"), strings.HasPrefix(addr, "/dev/cu."),
		strings.HasPrefix(strings.ToUpper(addr), "COM"):
		return ports.TransportSerial
	}
	if _, port, err := net.SplitHostPort(addr); err == nil {
		if _, err := strconv.Atoi(port); err == nil {
			return ports.TransportTCP
		}
	}
	return ports.TransportFile
}

// ParseAddress turns a device URL into a TransportConfig:
//
//	serial:///dev/ttyUSB0?baud=38400&timeout=200ms
//	tcp://192.168.1.20:9100
//	file:///dev/usb/lp0
//	memory://
//	exec://lp
//
// A string without a scheme is treated as a bare address whose kind is
// inferred when the connection is opened.
func ParseAddress(s string) (ports.TransportConfig, error) {
	if !strings.Contains(s, "://") {
		return ports.TransportConfig{Address: s}, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return ports.TransportConfig{}, fmt.Errorf("invalid device address %q: %w", s, err)
	}

	cfg := ports.TransportConfig{Kind: ports.TransportKind(u.Scheme)}
	switch cfg.Kind {
	case ports.TransportSerial, ports.TransportFile:
		cfg.Address = u.Host + u.Path
	case ports.TransportTCP, ports.TransportExec:
		cfg.Address = u.Host
	case ports.TransportMemory:
	default:
		return ports.TransportConfig{}, fmt.Errorf("unsupported transport kind %q", u.Scheme)
	}

	q := u.Query()
	if b := q.Get("baud"); b != "" {
		if cfg.Baud, err = strconv.Atoi(b); err != nil {
			return ports.TransportConfig{}, fmt.Errorf("invalid baud %q: %w", b, err)
		}
	}
	if d := q.Get("timeout"); d != "" {
		if cfg.ReadTimeout, err = time.ParseDuration(d); err != nil {
			return ports.TransportConfig{}, fmt.Errorf("invalid timeout %q: %w", d, err)
		}
	}
	return cfg, nil
}
