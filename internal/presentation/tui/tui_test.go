package tui

import (
	"bytes"
	"testing"
	"time"

	"github.com/aretw0/cutline/pkg/domain"
	"github.com/aretw0/cutline/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobSummary(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	job := &domain.Job{
		ID:        "j1",
		Device:    "bench",
		Profile:   domain.DeviceProfile{Name: "desk", Dialect: "hpgl"},
		Status:    domain.StatusFailed,
		Reason:    "write: broken pipe",
		Progress:  domain.Progress{Sent: 2, Total: 5},
		CreatedAt: start,
		UpdatedAt: start.Add(1500 * time.Millisecond),
	}

	md := JobSummary(job)
	assert.Contains(t, md, "## Job `j1`")
	assert.Contains(t, md, "| Profile | desk (hpgl) |")
	assert.Contains(t, md, "| Status | **failed** |")
	assert.Contains(t, md, "| Groups | 2 / 5 |")
	assert.Contains(t, md, "| Duration | 1.5s |")
	assert.Contains(t, md, "> write: broken pipe")
}

func TestProgramSummaryAndDialects(t *testing.T) {
	prog := &protocol.Program{Dialect: "dmpl", Init: []byte("H"), Groups: []protocol.Group{{Data: []byte("M0,0;")}}}
	md := ProgramSummary(prog, 12.345)
	assert.Contains(t, md, "## Program (dmpl)")
	assert.Contains(t, md, "| Bytes | 6 |")
	assert.Contains(t, md, "| Travel | 12.35 |")

	table := DialectTable([]protocol.Info{
		{ID: "debug", Description: "logs"},
		{ID: "hpgl", Capabilities: []string{"velocity", "force"}, Description: "pens"},
	})
	assert.Contains(t, table, "| debug | - | logs |")
	assert.Contains(t, table, "| hpgl | velocity, force | pens |")
}

func TestRenderer(t *testing.T) {
	render, err := NewRenderer("notty")
	require.NoError(t, err)

	out, err := render("# cutline\n\nplain text")
	require.NoError(t, err)
	assert.Contains(t, out, "cutline")
	assert.Contains(t, out, "plain text")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "v1.2.3")
}
