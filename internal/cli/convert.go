package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/cutline/internal/presentation/tui"
	"github.com/aretw0/cutline/pkg/domain"
	"github.com/aretw0/cutline/pkg/protocol"
)

// ConvertOptions configure the convert command.
type ConvertOptions struct {
	Input   string
	Format  string
	Profile string
	// Dialect builds an unbounded ad-hoc profile when Profile is empty.
	Dialect string
	Output  string
	Set     []string
	Summary bool
}

// IO bundles the streams a command reads and writes.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdIO returns the process streams.
func StdIO() IO {
	return IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Convert compiles the input for a profile and writes the program to Output,
// or to Out when Output is empty or "-".
func Convert(ctx context.Context, app *App, opts ConvertOptions, streams IO) error {
	src, err := readSource(opts.Input, opts.Format, streams.In)
	if err != nil {
		return err
	}
	params, err := jobParams(app.Config, opts.Set)
	if err != nil {
		return err
	}
	profile, err := resolveProfile(ctx, app, opts.Profile, opts.Dialect)
	if err != nil {
		return err
	}

	res, err := app.Engine.Compile(ctx, src, profile, params)
	if err != nil {
		return err
	}

	if opts.Output == "" || opts.Output == "-" {
		if _, err := streams.Out.Write(res.Program.Bytes()); err != nil {
			return fmt.Errorf("failed to write program: %w", err)
		}
	} else {
		if err := os.WriteFile(opts.Output, res.Program.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write program: %w", err)
		}
		app.Logger.Info("Program written", "path", opts.Output, "bytes", res.Program.Size())
	}

	if opts.Summary {
		return render(streams.Err, tui.ProgramSummary(res.Program, res.Travel))
	}
	return nil
}

func resolveProfile(ctx context.Context, app *App, name, dialect string) (domain.DeviceProfile, error) {
	switch {
	case name != "" && dialect != "":
		return domain.DeviceProfile{}, fmt.Errorf("--profile and --dialect are exclusive")
	case name != "":
		return app.Engine.Profile(ctx, name)
	case dialect != "":
		return domain.DeviceProfile{Name: "adhoc", Dialect: dialect}, nil
	}
	return domain.DeviceProfile{}, fmt.Errorf("--profile or --dialect is required")
}

// render writes markdown through glamour. Outside a terminal the plain style
// is used.
func render(w io.Writer, markdown string) error {
	style := ""
	if !isTerminal(w) {
		style = "notty"
	}
	r, err := tui.NewRenderer(style)
	if err != nil {
		return err
	}
	out, err := r(markdown)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// PrintDialects renders the dialect table.
func PrintDialects(w io.Writer) error {
	return render(w, tui.DialectTable(protocol.Describe()))
}
