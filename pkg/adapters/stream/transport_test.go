package stream

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/cutline/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTransport_Contract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.plt")
	ports.RunTransportContract(t, New(), ports.TransportConfig{Kind: ports.TransportFile, Address: path})
}

func TestFileTransport_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.plt")
	tr := New()

	conn, err := tr.Open(context.Background(), ports.TransportConfig{Address: path})
	require.NoError(t, err)
	_, err = conn.Write([]byte("IN;"))
	require.NoError(t, err)

	data, err := conn.Read()
	require.NoError(t, err)
	assert.Empty(t, data)
	require.NoError(t, conn.Close())
	assert.ErrorIs(t, conn.Close(), io.ErrClosedPipe)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "IN;", string(raw))
}

func listen(t *testing.T, handle func(net.Conn)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go handle(c)
		}
	}()
	return ln.Addr().String()
}

func TestTCPTransport_Contract(t *testing.T) {
	addr := listen(t, func(c net.Conn) {
		defer c.Close()
		_, _ = io.Copy(io.Discard, c)
	})
	ports.RunTransportContract(t, New(), ports.TransportConfig{Kind: ports.TransportTCP, Address: addr})
}

func TestTCPTransport_ReadsReplies(t *testing.T) {
	addr := listen(t, func(c net.Conn) {
		defer c.Close()
		buf := make([]byte, 64)
		n, _ := c.Read(buf)
		_, _ = c.Write(append([]byte("ack "), buf[:n]...))
		time.Sleep(50 * time.Millisecond)
	})

	conn, err := New().Open(context.Background(), ports.TransportConfig{Address: addr})
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("IN;"))
	require.NoError(t, err)

	var got []byte
	require.Eventually(t, func() bool {
		data, _ := conn.Read()
		got = append(got, data...)
		return string(got) == "ack IN;"
	}, 2*time.Second, 5*time.Millisecond)

	// Peer hang-up surfaces as a read error.
	require.Eventually(t, func() bool {
		_, err := conn.Read()
		return err != nil
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSerialTransport_MissingPort(t *testing.T) {
	_, err := New().Open(context.Background(), ports.TransportConfig{
		Kind:    ports.TransportSerial,
		Address: filepath.Join(t.TempDir(), "ttyNOPE"),
	})
	assert.Error(t, err)
}

func TestInferKind(t *testing.T) {
	assert.Equal(t, ports.TransportSerial, inferKind("/dev/ttyUSB0"))
	assert.Equal(t, ports.TransportSerial, inferKind("COM3"))
	assert.Equal(t, ports.TransportTCP, inferKind("10.0.0.5:9100"))
	assert.Equal(t, ports.TransportFile, inferKind("/dev/usb/lp0"))
	assert.Equal(t, ports.TransportFile, inferKind("out.plt"))
}

func TestParseAddress(t *testing.T) {
	cfg, err := ParseAddress("serial:///dev/ttyUSB0?baud=38400&timeout=200ms")
	require.NoError(t, err)
	assert.Equal(t, ports.TransportConfig{
		Kind: ports.TransportSerial, Address: "/dev/ttyUSB0", Baud: 38400, ReadTimeout: 200 * time.Millisecond,
	}, cfg)

	cfg, err = ParseAddress("tcp://plotter.local:9100")
	require.NoError(t, err)
	assert.Equal(t, ports.TransportConfig{Kind: ports.TransportTCP, Address: "plotter.local:9100"}, cfg)

	cfg, err = ParseAddress("memory://")
	require.NoError(t, err)
	assert.Equal(t, ports.TransportMemory, cfg.Kind)

	cfg, err = ParseAddress("exec://lp")
	require.NoError(t, err)
	assert.Equal(t, ports.TransportConfig{Kind: ports.TransportExec, Address: "lp"}, cfg)

	cfg, err = ParseAddress("/tmp/out.plt")
	require.NoError(t, err)
	assert.Equal(t, ports.TransportConfig{Address: "/tmp/out.plt"}, cfg)

	_, err = ParseAddress("usb://x")
	assert.Error(t, err)
	_, err = ParseAddress("serial:///dev/ttyS0?baud=fast")
	assert.Error(t, err)
}
