package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/cutline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunJobStoreContract runs a suite of tests to verify that a JobStore implementation
// adheres to the defined interface contract.
func RunJobStoreContract(t *testing.T, store JobStore) {
	ctx := context.Background()
	jobID := "contract-test-job-" + time.Now().Format("20060102150405")

	newJob := func(id string) *domain.Job {
		offset := 0.25
		params := domain.DefaultParams()
		params.Copies = 3
		params.BladeOffset = &offset
		return domain.NewJob(id, "plotter-1", domain.DeviceProfile{Name: "a4", Dialect: "hpgl", Width: 210}, params)
	}

	t.Run("Save and Load", func(t *testing.T) {
		job := newJob(jobID)
		job.Status = domain.StatusPlotting
		job.Progress = domain.Progress{Sent: 2, Total: 5}

		require.NoError(t, store.Save(ctx, job), "Save should not return error")

		loaded, err := store.Load(ctx, jobID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, job.ID, loaded.ID)
		assert.Equal(t, job.Device, loaded.Device)
		assert.Equal(t, domain.StatusPlotting, loaded.Status)
		assert.Equal(t, job.Progress, loaded.Progress)
		assert.Equal(t, job.Profile.Name, loaded.Profile.Name)
		assert.Equal(t, 3, loaded.Params.Copies)
		require.NotNil(t, loaded.Params.BladeOffset)
		assert.Equal(t, 0.25, *loaded.Params.BladeOffset)
	})

	t.Run("Save overwrites", func(t *testing.T) {
		job := newJob(jobID)
		job.Status = domain.StatusFailed
		job.Reason = "write: broken pipe"
		require.NoError(t, store.Save(ctx, job))

		loaded, err := store.Load(ctx, jobID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailed, loaded.Status)
		assert.Equal(t, "write: broken pipe", loaded.Reason)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+jobID)
		assert.ErrorIs(t, err, domain.ErrJobNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newJob(jobID)))

		require.NoError(t, store.Delete(ctx, jobID), "Delete should not return error")

		_, err := store.Load(ctx, jobID)
		assert.ErrorIs(t, err, domain.ErrJobNotFound, "Load after Delete should return ErrJobNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := jobID + "-1"
		id2 := jobID + "-2"
		require.NoError(t, store.Save(ctx, newJob(id1)))
		require.NoError(t, store.Save(ctx, newJob(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// RunTransportContract verifies that a Transport opens a Conn which accepts a
// full payload through repeated writes, polls without blocking, and closes.
func RunTransportContract(t *testing.T, transport Transport, cfg TransportConfig) {
	ctx := context.Background()

	t.Run("Write all", func(t *testing.T) {
		conn, err := transport.Open(ctx, cfg)
		require.NoError(t, err)
		defer conn.Close()

		payload := []byte("IN;PU0,0;PD100,0;PD100,100;")
		for len(payload) > 0 {
			n, err := conn.Write(payload)
			require.NoError(t, err)
			require.GreaterOrEqual(t, n, 0)
			require.LessOrEqual(t, n, len(payload))
			payload = payload[n:]
		}
	})

	t.Run("Read does not block", func(t *testing.T) {
		conn, err := transport.Open(ctx, cfg)
		require.NoError(t, err)
		defer conn.Close()

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = conn.Read()
		}()

		timeout := 2 * time.Second
		if cfg.ReadTimeout > 0 {
			timeout += cfg.ReadTimeout
		}
		select {
		case <-done:
		case <-time.After(timeout):
			t.Fatal("Read blocked")
		}
	})

	t.Run("Close", func(t *testing.T) {
		conn, err := transport.Open(ctx, cfg)
		require.NoError(t, err)
		assert.NoError(t, conn.Close())
	})

	t.Run("Open cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		conn, err := transport.Open(cctx, cfg)
		if err == nil {
			_ = conn.Close()
		}
		assert.ErrorIs(t, err, context.Canceled)
	})
}
