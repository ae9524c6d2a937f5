package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/cutline/internal/testutils"
	"github.com/aretw0/cutline/pkg/adapters/memory"
	"github.com/aretw0/cutline/pkg/domain"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const squareSVG = `<svg viewBox="0 0 20 20"><path d="M0 0 H10 V10 H0 Z"/></svg>`

const baseConfig = `log_level: error
profiles:
  - name: desk
    dialect: hpgl
    pen: 1
devices:
  - name: spool
    profile: desk
    address: file://{{dir}}/out.plt
job:
  overlap: 2
`

func writeConfig(t *testing.T, body string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	body = strings.ReplaceAll(body, "{{dir}}", dir)
	return dir, testutils.WriteFile(t, dir, "cutline.yaml", body)
}

func setup(t *testing.T, body string) (*App, string) {
	t.Helper()
	dir, path := writeConfig(t, body)
	app, err := Setup(Options{ConfigPath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app, dir
}

func buffers() (IO, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return IO{In: strings.NewReader(squareSVG), Out: &out, Err: &errOut}, &out, &errOut
}

func TestConvert_StdinToStdout(t *testing.T) {
	app, _ := setup(t, baseConfig)
	streams, out, errOut := buffers()

	err := Convert(context.Background(), app, ConvertOptions{Input: "-", Profile: "desk", Summary: true}, streams)
	require.NoError(t, err)
	assert.Equal(t, "IN;SP1;PU0,0;PD10,0;PD10,10;PD0,10;PD0,0;PD2,0;", out.String())
	assert.Contains(t, errOut.String(), "Program (hpgl)")
}

func TestConvert_OverridesAndFile(t *testing.T) {
	app, dir := setup(t, baseConfig)
	input := testutils.WriteFile(t, dir, "square.svg", squareSVG)
	output := filepath.Join(dir, "square.dmpl")
	streams, out, _ := buffers()

	err := Convert(context.Background(), app, ConvertOptions{
		Input:   input,
		Dialect: "dmpl",
		Output:  output,
		Set:     []string{"overlap=0", "copies=2", "spacing=5"},
	}, streams)
	require.NoError(t, err)
	assert.Empty(t, out.String())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "HM0,0;D10,0;D10,10;D0,10;D0,0;M15,0;D25,0;D25,10;D15,10;D15,0;", string(data))
}

func TestConvert_Errors(t *testing.T) {
	app, _ := setup(t, baseConfig)
	ctx := context.Background()

	tests := []struct {
		name string
		opts ConvertOptions
		want string
	}{
		{"no profile", ConvertOptions{Input: "-"}, "--profile or --dialect is required"},
		{"both", ConvertOptions{Input: "-", Profile: "desk", Dialect: "hpgl"}, "exclusive"},
		{"bad set", ConvertOptions{Input: "-", Profile: "desk", Set: []string{"overlap"}}, "expected key=value"},
		{"unknown param", ConvertOptions{Input: "-", Profile: "desk", Set: []string{"colour=red"}}, "colour"},
		{"missing file", ConvertOptions{Input: "nope.svg", Profile: "desk"}, "failed to open source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			streams, _, _ := buffers()
			err := Convert(ctx, app, tt.opts, streams)
			assert.ErrorContains(t, err, tt.want)
		})
	}

	streams, _, _ := buffers()
	err := Convert(ctx, app, ConvertOptions{Input: "-", Profile: "ghost"}, streams)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestPlot_FileDevice(t *testing.T) {
	app, dir := setup(t, baseConfig)
	streams, out, errOut := buffers()

	progress := NewProgress(errOut, false)
	err := Plot(context.Background(), app, PlotOptions{Input: "-", Device: "spool"}, progress, streams)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "out.plt"))
	require.NoError(t, err)
	assert.Equal(t, "IN;SP1;PU0,0;PD10,0;PD10,10;PD0,10;PD0,0;PD2,0;", string(data))
	assert.Contains(t, errOut.String(), "started on spool")
	assert.Contains(t, out.String(), "completed")
}

func TestPlot_UnknownDevice(t *testing.T) {
	app, _ := setup(t, baseConfig)
	streams, _, _ := buffers()

	err := Plot(context.Background(), app, PlotOptions{Input: "-", Device: "ghost", Quiet: true}, nil, streams)
	assert.ErrorIs(t, err, domain.ErrDeviceNotFound)
}

func TestSetup_RedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	app, _ := setup(t, baseConfig+"redis:\n  address: "+mr.Addr()+"\n  prefix: \"test:\"\n")
	streams, _, _ := buffers()

	require.NoError(t, Plot(context.Background(), app, PlotOptions{Input: "-", Device: "spool", Quiet: true}, nil, streams))

	ids, err := mr.ZMembers("test:index")
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.True(t, mr.Exists("test:"+ids[0]))
}

const spoolerConfig = `log_level: error
profiles:
  - name: desk
    dialect: hpgl
spoolers:
  - name: tee
    command: sh
    args: ["-c", "cat > \"$OUT\""]
    env:
      OUT: spooled.plt
devices:
  - name: shop
    profile: desk
    address: exec://tee
`

func TestPlot_SpoolerDevice(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	app, dir := setup(t, spoolerConfig)

	for range 2 {
		streams, _, _ := buffers()
		require.NoError(t, Plot(context.Background(), app, PlotOptions{Input: "-", Device: "shop", Quiet: true}, nil, streams))

		data, err := os.ReadFile(filepath.Join(dir, "spooled.plt"))
		require.NoError(t, err)
		assert.Equal(t, "IN;PU0,0;PD10,0;PD10,10;PD0,10;PD0,0;", string(data))
	}
}

func TestSetup_ProfileLibrary(t *testing.T) {
	libDir, repo := testutils.SetupTestRepo(t)
	require.NoError(t, repo.Save(context.Background(), core.Document{
		ID:      "vinyl.md",
		Content: "---\ndialect: camm\nwidth: 600\n---\nRoll cutter.",
	}))

	app, _ := setup(t, "profile_dir: "+libDir+"\ndevices:\n  - name: roll\n    profile: vinyl\n    address: memory://\n")

	names, err := app.Engine.Profiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"vinyl"}, names)

	devices := app.Engine.Devices()
	require.Len(t, devices, 1)
	assert.Equal(t, "camm", devices[0].Profile.Dialect)
}

func TestSetup_Errors(t *testing.T) {
	_, path := writeConfig(t, "devices:\n  - name: x\n    profile: ghost\n")
	_, err := Setup(Options{ConfigPath: path})
	assert.ErrorContains(t, err, "unknown profile")

	_, path = writeConfig(t, "profiles:\n  - name: desk\n    dialect: hpgl\ndevices:\n  - name: x\n    profile: desk\n    address: carrier-pigeon://coop\n")
	_, err = Setup(Options{ConfigPath: path})
	assert.ErrorContains(t, err, "unsupported transport")

	_, err = Setup(Options{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml"), LogLevel: "loud"})
	assert.ErrorContains(t, err, "unknown log level")
}

func TestChain(t *testing.T) {
	a, err := memory.NewLoader(domain.DeviceProfile{Name: "desk", Dialect: "hpgl"})
	require.NoError(t, err)
	b, err := memory.NewLoader(
		domain.DeviceProfile{Name: "desk", Dialect: "dmpl"},
		domain.DeviceProfile{Name: "roll", Dialect: "camm"},
	)
	require.NoError(t, err)

	c := Chain(a, b)
	ctx := context.Background()

	desk, err := c.GetProfile(ctx, "desk")
	require.NoError(t, err)
	assert.Equal(t, "hpgl", desk.Dialect)

	roll, err := c.GetProfile(ctx, "roll")
	require.NoError(t, err)
	assert.Equal(t, "camm", roll.Dialect)

	_, err = c.GetProfile(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	names, err := c.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"desk", "roll"}, names)
}

func TestProgress_TracksOneJob(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, true)
	p.Track("j1")
	hooks := p.Hooks()

	hooks.OnGroupSent(context.Background(), &domain.GroupEvent{EventBase: domain.EventBase{JobID: "other"}, Index: 0, Total: 3})
	assert.Nil(t, p.bar)

	hooks.OnGroupSent(context.Background(), &domain.GroupEvent{EventBase: domain.EventBase{JobID: "j1"}, Index: 1, Total: 3})
	require.NotNil(t, p.bar)
	assert.Equal(t, int64(2), p.bar.Current())
	p.Finish()
	assert.Nil(t, p.bar)
}
