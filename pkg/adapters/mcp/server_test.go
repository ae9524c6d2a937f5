package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/cutline"
	"github.com/aretw0/cutline/pkg/adapters/memory"
	"github.com/aretw0/cutline/pkg/domain"
	"github.com/aretw0/cutline/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const squareDoc = `{"paths":[{"d":"M0 0 L10 0 L10 10 L0 10 Z"}]}`

func newServer(t *testing.T) (*Server, *cutline.Engine) {
	t.Helper()
	profiles, err := memory.NewLoader(domain.DeviceProfile{Name: "desk", Dialect: "hpgl", Pen: 1})
	require.NoError(t, err)
	eng, err := cutline.New(cutline.WithProfiles(profiles))
	require.NoError(t, err)
	require.NoError(t, eng.AddDevice("bench", "desk", memory.NewTransport(), ports.TransportConfig{Kind: ports.TransportMemory}))
	t.Cleanup(func() { _ = eng.Close() })
	return NewServer(eng), eng
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func TestListTools(t *testing.T) {
	s, _ := newServer(t)
	resp := s.MCPServer().HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	for _, name := range []string{"list_dialects", "list_devices", "convert", "plot", "job_status", "control_job"} {
		assert.Contains(t, string(raw), `"name":"`+name+`"`)
	}
}

func TestConvert(t *testing.T) {
	s, _ := newServer(t)
	ctx := context.Background()

	res, err := s.handleConvert(ctx, mcp.CallToolRequest{}, ConvertArgs{
		Source:  squareDoc,
		Profile: "desk",
		Params:  `{"overlap": 2}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "hpgl", res.Dialect)
	assert.Equal(t, 1, res.Groups)
	assert.Equal(t, "IN;SP1;PU0,0;PD10,0;PD10,10;PD0,10;PD0,0;PD2,0;", res.Program)

	_, err = s.handleConvert(ctx, mcp.CallToolRequest{}, ConvertArgs{Source: squareDoc, Profile: "ghost"})
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	_, err = s.handleConvert(ctx, mcp.CallToolRequest{}, ConvertArgs{Profile: "desk"})
	assert.ErrorContains(t, err, "source or svg is required")

	_, err = s.handleConvert(ctx, mcp.CallToolRequest{}, ConvertArgs{Source: squareDoc, Profile: "desk", Params: `{"copies":`})
	assert.ErrorContains(t, err, "invalid params")
}

func TestPlotAndStatus(t *testing.T) {
	s, eng := newServer(t)
	ctx := context.Background()

	job, err := s.handlePlot(ctx, mcp.CallToolRequest{}, PlotArgs{
		Device: "bench",
		SVG:    `<svg><rect x="0" y="0" width="5" height="5"/></svg>`,
	})
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)

	_, err = eng.Wait(ctx, job.ID)
	require.NoError(t, err)

	got, err := s.handleJobStatus(ctx, mcp.CallToolRequest{}, JobArgs{ID: job.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, domain.Progress{Sent: 1, Total: 1}, got.Progress)

	_, err = s.handleControlJob(ctx, mcp.CallToolRequest{}, JobArgs{ID: job.ID, Action: "cancel"})
	assert.ErrorIs(t, err, domain.ErrNoActiveJob)

	_, err = s.handleControlJob(ctx, mcp.CallToolRequest{}, JobArgs{ID: job.ID, Action: "explode"})
	assert.ErrorContains(t, err, "unknown action")

	_, err = s.handleJobStatus(ctx, mcp.CallToolRequest{}, JobArgs{ID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestListDialectsAndDevices(t *testing.T) {
	s, _ := newServer(t)
	ctx := context.Background()

	res, err := s.handleListDialects(ctx, mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.Contains(t, text(t, res), `"id":"gpgl"`)

	res, err = s.handleListDevices(ctx, mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.Contains(t, text(t, res), `"bench"`)
}
