package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/cutline/internal/presentation/tui"
	"github.com/aretw0/cutline/pkg/domain"
)

// PlotOptions configure the plot command.
type PlotOptions struct {
	Input  string
	Format string
	Device string
	Set    []string
	Quiet  bool
}

// Plot sends the input to a configured device and waits for the job to end.
// SIGINT cancels the job at its next group boundary. The progress bar must
// have been registered on the app's engine.
func Plot(ctx context.Context, app *App, opts PlotOptions, progress *Progress, streams IO) error {
	src, err := readSource(opts.Input, opts.Format, streams.In)
	if err != nil {
		return err
	}
	params, err := jobParams(app.Config, opts.Set)
	if err != nil {
		return err
	}

	sc := NewSignalContext(ctx)
	defer sc.Cancel()

	job, err := app.Engine.Plot(sc, opts.Device, src, params)
	if err != nil {
		return err
	}
	if progress != nil {
		progress.Track(job.ID)
		defer progress.Finish()
	}
	if !opts.Quiet {
		printSystemMessage(streams.Err, "Job %s started on %s.", job.ID, opts.Device)
	}

	go func() {
		<-sc.Done()
		if sc.Signal() == nil {
			return
		}
		if err := app.Engine.Cancel(context.Background(), job.ID); err != nil {
			app.Logger.Debug("Cancel after signal", "job_id", job.ID, "err", err)
		}
	}()

	final, waitErr := app.Engine.Wait(context.Background(), job.ID)
	if progress != nil {
		progress.Finish()
	}
	if final == nil {
		return waitErr
	}

	if !opts.Quiet {
		if sig := sc.Signal(); sig != nil {
			printSystemMessage(streams.Err, "Interrupted by %s.", sig)
		}
		if err := render(streams.Out, tui.JobSummary(final)); err != nil {
			return err
		}
	}

	switch final.Status {
	case domain.StatusCompleted:
		return nil
	case domain.StatusCancelled:
		return fmt.Errorf("job %s cancelled after %d of %d groups", final.ID, final.Progress.Sent, final.Progress.Total)
	}
	if waitErr != nil {
		return fmt.Errorf("job %s %s: %w", final.ID, final.Status, waitErr)
	}
	return fmt.Errorf("job %s %s: %s", final.ID, final.Status, final.Reason)
}
