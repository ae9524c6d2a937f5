package cli

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/aretw0/cutline/pkg/domain"
	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"
)

// Progress draws a bar of transmitted groups for one job.
type Progress struct {
	w       io.Writer
	enabled bool

	mu  sync.Mutex
	job string
	bar *pb.ProgressBar
}

// NewProgress creates a progress bar on w. It draws nothing when disabled.
func NewProgress(w io.Writer, enabled bool) *Progress {
	return &Progress{w: w, enabled: enabled}
}

// Track limits the bar to events of job id.
func (p *Progress) Track(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.job = id
}

// Hooks feed the bar from group events.
func (p *Progress) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnGroupSent: func(_ context.Context, e *domain.GroupEvent) {
			p.mu.Lock()
			defer p.mu.Unlock()
			if !p.enabled || e.JobID != p.job {
				return
			}
			if p.bar == nil {
				p.bar = pb.New(e.Total)
				p.bar.SetWriter(p.w)
				p.bar.Start()
			}
			p.bar.SetCurrent(int64(e.Index + 1))
		},
	}
}

// Finish stops the bar.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
