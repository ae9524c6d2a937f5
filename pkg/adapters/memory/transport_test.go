package memory_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aretw0/cutline/pkg/adapters/memory"
	"github.com/aretw0/cutline/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTransport_Contract(t *testing.T) {
	ports.RunTransportContract(t, memory.NewTransport(memory.WithMaxWrite(4)), ports.TransportConfig{Kind: ports.TransportMemory})
}

func TestMemoryTransport_Conn(t *testing.T) {
	tr := memory.NewTransport(
		memory.WithMaxWrite(3),
		memory.WithAutoReply(func(p []byte) []byte { return []byte("ok\n") }),
	)

	conn, err := tr.Open(context.Background(), ports.TransportConfig{})
	require.NoError(t, err)

	n, err := conn.Write([]byte("IN;SP1;"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	data, err := conn.Read()
	require.NoError(t, err)
	assert.Equal(t, "ok\n", string(data))

	data, err = conn.Read()
	require.NoError(t, err)
	assert.Empty(t, data)

	mc := tr.Last()
	assert.Equal(t, "IN;", string(mc.Written()))

	require.NoError(t, conn.Close())
	_, err = conn.Write([]byte("x"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.Equal(t, 1, mc.Closes())
	assert.Equal(t, 1, tr.Opens())
}

func TestMemoryTransport_Failures(t *testing.T) {
	boom := errors.New("port busy")
	_, err := memory.NewTransport(memory.WithOpenError(boom)).Open(context.Background(), ports.TransportConfig{})
	assert.ErrorIs(t, err, boom)

	unplugged := errors.New("unplugged")
	tr := memory.NewTransport(memory.WithWriteHook(func([]byte) error { return unplugged }))
	conn, err := tr.Open(context.Background(), ports.TransportConfig{})
	require.NoError(t, err)
	_, err = conn.Write([]byte("PU0,0;"))
	assert.ErrorIs(t, err, unplugged)
}
