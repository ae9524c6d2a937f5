package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/aretw0/cutline/internal/source"
	"github.com/aretw0/cutline/pkg/config"
	"github.com/aretw0/cutline/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// Unlike signal.NotifyContext it keeps the signal that fired.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
		sc.stop.Do(func() {
			signal.Stop(sc.sigCh)
		})
	}()

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// jobParams layers key=value overrides on the job block of the config file.
func jobParams(cfg *config.File, set []string) (domain.JobParams, error) {
	raw := make(map[string]any, len(cfg.Job)+len(set))
	for k, v := range cfg.Job {
		raw[k] = v
	}
	for _, kv := range set {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return domain.JobParams{}, fmt.Errorf("invalid --set %q: expected key=value", kv)
		}
		raw[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return config.DecodeParams(raw)
}

// readSource loads path, or stdin when path is "-". format overrides the
// extension; stdin defaults to SVG.
func readSource(path, format string, stdin io.Reader) (domain.Source, error) {
	if path == "-" {
		if format == "" {
			format = string(source.FormatSVG)
		}
		return source.Read(stdin, source.Format(format))
	}
	if format == "" {
		return source.Load(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return domain.Source{}, fmt.Errorf("failed to open source: %w", err)
	}
	defer f.Close()
	return source.Read(f, source.Format(format))
}
