package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
)

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
	boldColor    = color.New(color.Bold)
)

// stepTimer prints numbered steps and how long each one took.
type stepTimer struct {
	out        io.Writer
	stepNum    int
	totalSteps int
	start      time.Time
}

func newStepTimer(out io.Writer, totalSteps int) *stepTimer {
	return &stepTimer{out: out, totalSteps: totalSteps}
}

func (t *stepTimer) step(name string) {
	t.stepNum++
	t.start = time.Now()
	titleColor.Fprintf(t.out, "\n[%d/%d] %s...\n", t.stepNum, t.totalSteps, name)
}

func (t *stepTimer) done(details ...string) {
	elapsed := time.Since(t.start).Round(time.Millisecond)
	successColor.Fprintf(t.out, "   ✓ Done (%s)\n", elapsed)
	for _, d := range details {
		dimColor.Fprintf(t.out, "   └── %s\n", d)
	}
}

func (t *stepTimer) info(format string, args ...any) {
	dimColor.Fprintf(t.out, "   ├── "+format+"\n", args...)
}

// renderMarkdown renders the report for the terminal, falling back to the raw
// markdown when rendering fails.
func renderMarkdown(out io.Writer, document string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err == nil {
		var rendered string
		if rendered, err = r.Render(document); err == nil {
			fmt.Fprint(out, rendered)
			return
		}
	}
	fmt.Fprintln(out, document)
}
