package ports

import (
	"context"
	"time"
)

// TransportKind selects the byte-stream implementation.
type TransportKind string

const (
	TransportSerial TransportKind = "serial"
	TransportFile   TransportKind = "file"
	TransportTCP    TransportKind = "tcp"
	TransportMemory TransportKind = "memory"
	// TransportExec pipes the program into a registered spooler command.
	TransportExec TransportKind = "exec"
)

// TransportConfig is dialect agnostic: it only says where the bytes go.
type TransportConfig struct {
	Kind    TransportKind `json:"kind" yaml:"kind" mapstructure:"kind"`
	Address string        `json:"address" yaml:"address" mapstructure:"address"` // port path, file path, host:port or spooler name
	Baud    int           `json:"baud,omitempty" yaml:"baud,omitempty" mapstructure:"baud"`

	// ReadTimeout bounds a single Read poll. Zero lets the implementation choose.
	ReadTimeout time.Duration `json:"read_timeout,omitempty" yaml:"read_timeout,omitempty" mapstructure:"read_timeout"`
}

// Conn is an open connection to a device.
type Conn interface {
	// Write sends p and returns how much of it was accepted. A short count
	// with a nil error is legal; callers retry the remainder.
	Write(p []byte) (int, error)

	// Read returns whatever the device has sent since the last call. It must
	// not block for longer than the configured read timeout and may return
	// no data.
	Read() ([]byte, error)

	// Close releases the connection.
	Close() error
}

// Transport opens connections.
type Transport interface {
	Open(ctx context.Context, cfg TransportConfig) (Conn, error)
}
