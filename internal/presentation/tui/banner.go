package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the cutline banner to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text, color string
	}{
		{"            _   _ _            ", "#38bdf8"},
		{"   ___ _  _| |_| (_)_ _  ___   ", "#22d3ee"},
		{"  / __| || |  _| | | ' \\/ -_)  ", "#2dd4bf"},
		{"  \\___|\\_,_|\\__|_|_|_||_\\___|  ", "#34d399"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
