package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/cutline/pkg/domain"
	"github.com/aretw0/cutline/pkg/protocol"
)

// JobSummary describes a finished job as markdown.
func JobSummary(job *domain.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Job `%s`\n\n", job.ID)
	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Device | %s |\n", job.Device)
	fmt.Fprintf(&b, "| Profile | %s (%s) |\n", job.Profile.Name, job.Profile.Dialect)
	fmt.Fprintf(&b, "| Status | **%s** |\n", job.Status)
	fmt.Fprintf(&b, "| Groups | %d / %d |\n", job.Progress.Sent, job.Progress.Total)
	if !job.UpdatedAt.IsZero() && !job.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "| Duration | %s |\n", job.UpdatedAt.Sub(job.CreatedAt).Round(time.Millisecond))
	}
	if job.Reason != "" && job.Status != domain.StatusCompleted {
		fmt.Fprintf(&b, "\n> %s\n", job.Reason)
	}
	return b.String()
}

// ProgramSummary describes an encoded program as markdown.
func ProgramSummary(p *protocol.Program, travel float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Program (%s)\n\n", p.Dialect)
	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Groups | %d |\n", len(p.Groups))
	fmt.Fprintf(&b, "| Bytes | %d |\n", p.Size())
	fmt.Fprintf(&b, "| Travel | %.2f |\n", travel)
	return b.String()
}

// DialectTable lists dialects as a markdown table.
func DialectTable(infos []protocol.Info) string {
	var b strings.Builder
	b.WriteString("| Dialect | Capabilities | Description |\n|---|---|---|\n")
	for _, info := range infos {
		caps := strings.Join(info.Capabilities, ", ")
		if caps == "" {
			caps = "-"
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", info.ID, caps, info.Description)
	}
	return b.String()
}
