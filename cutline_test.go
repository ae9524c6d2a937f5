package cutline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/cutline"
	"github.com/aretw0/cutline/pkg/adapters/memory"
	"github.com/aretw0/cutline/pkg/domain"
	"github.com/aretw0/cutline/pkg/observability"
	"github.com/aretw0/cutline/pkg/ports"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, opts ...cutline.Option) *cutline.Engine {
	t.Helper()
	profiles, err := memory.NewLoader(
		domain.DeviceProfile{Name: "desk", Dialect: "hpgl", Pen: 1},
		domain.DeviceProfile{Name: "vinyl", Dialect: "camm", Requires: []string{"pen"}},
	)
	require.NoError(t, err)

	eng, err := cutline.New(append([]cutline.Option{cutline.WithProfiles(profiles)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestEngine_ConvertSquareWithOverlap(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	profile, err := eng.Profile(ctx, "desk")
	require.NoError(t, err)
	params := domain.DefaultParams()
	params.Overlap = 10

	res, err := eng.Compile(ctx, square(100), profile, params)
	require.NoError(t, err)
	assert.Equal(t, "IN;SP1;PU0,0;PD100,0;PD100,100;PD0,100;PD0,0;PD10,0;", string(res.Program.Bytes()))
	require.Len(t, res.Graphic.Paths, 1)
	assert.InDelta(t, 410, res.Graphic.Paths[0].Length(), 1e-9)
}

func TestEngine_ConvertErrors(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	_, err := eng.Profile(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	vinyl, err := eng.Profile(ctx, "vinyl")
	require.NoError(t, err)
	_, err = eng.Convert(ctx, square(10), vinyl, domain.DefaultParams())
	assert.ErrorIs(t, err, domain.ErrEncoding)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = eng.Convert(cancelled, square(10), domain.DeviceProfile{}, domain.DefaultParams())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_MetricsAndHooks(t *testing.T) {
	metrics := observability.NewMetrics()
	var statuses []domain.Status
	done := make(chan struct{})
	hooks := domain.LifecycleHooks{
		OnStatusChange: func(_ context.Context, e *domain.StatusEvent) {
			statuses = append(statuses, e.To)
			if e.To.Terminal() {
				close(done)
			}
		},
	}
	eng := newEngine(t, cutline.WithMetrics(metrics), cutline.WithLifecycleHooks(hooks))
	ctx := context.Background()

	profile, _ := eng.Profile(ctx, "desk")
	_, err := eng.Convert(ctx, square(10), profile, domain.DefaultParams())
	require.NoError(t, err)

	transport := memory.NewTransport()
	require.NoError(t, eng.AddDevice("bench", "desk", transport, ports.TransportConfig{Kind: ports.TransportMemory}))
	job, err := eng.Plot(ctx, "bench", square(10), domain.DefaultParams())
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not finish")
	}
	final, err := eng.Wait(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, final.Status)
	assert.Equal(t, []domain.Status{
		domain.StatusConnecting, domain.StatusInitializing, domain.StatusPlotting, domain.StatusCompleted,
	}, statuses)

	families, err := testutil.GatherAndCount(metrics.Registry(), "cutline_conversions_total", "cutline_jobs_finished_total")
	require.NoError(t, err)
	assert.Equal(t, 2, families)

	devices := eng.Devices()
	require.Len(t, devices, 1)
	assert.Equal(t, "bench", devices[0].Name)
	assert.Equal(t, domain.StatusCompleted, devices[0].Status)
}

func TestEngine_AddDeviceUnknownProfile(t *testing.T) {
	eng := newEngine(t)
	err := eng.AddDevice("x", "ghost", memory.NewTransport(), ports.TransportConfig{})
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestEngine_ControlUnknownJob(t *testing.T) {
	eng := newEngine(t)
	err := eng.Pause(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrJobNotFound), err)
}
