package cmd

import (
	"io"

	"github.com/fatih/color"
)

// colorNotifier prints mutation outcomes as one coloured line each.
type colorNotifier struct {
	out    io.Writer
	errOut io.Writer
	ok     *color.Color
	failed *color.Color
}

func newColorNotifier(out, errOut io.Writer) *colorNotifier {
	return &colorNotifier{
		out:    out,
		errOut: errOut,
		ok:     color.New(color.FgGreen, color.Bold),
		failed: color.New(color.FgRed, color.Bold),
	}
}

func (n *colorNotifier) Success(title, message string) {
	n.ok.Fprint(n.out, "✓ "+title)
	if message != "" {
		_, _ = io.WriteString(n.out, ": "+message)
	}
	_, _ = io.WriteString(n.out, "\n")
}

func (n *colorNotifier) Error(title, message string) {
	n.failed.Fprint(n.errOut, "✗ "+title)
	if message != "" {
		_, _ = io.WriteString(n.errOut, ": "+message)
	}
	_, _ = io.WriteString(n.errOut, "\n")
}
