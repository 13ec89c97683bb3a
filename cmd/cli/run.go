package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/stk-reviewer/internal/app"
	"github.com/sevigo/stk-reviewer/internal/core"
	"github.com/sevigo/stk-reviewer/internal/reviewer"
	"github.com/sevigo/stk-reviewer/internal/wire"
)

type collectFunc func(ctx context.Context, a *app.App) ([]core.SourceFile, error)

// runReview is shared by every review command: collect, review, write the
// report, then optionally render and publish it.
func runReview(cmd *cobra.Command, collectStep string, collect collectFunc) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	overallStart := time.Now()

	a, err := wire.InitializeApp()
	if err != nil {
		return err
	}

	titleColor.Fprintln(out, "STK AI code review")
	dimColor.Fprintf(out, "   Run: %s\n", a.RunID)

	totalSteps := 3
	if prURL != "" {
		totalSteps++
	}
	timer := newStepTimer(out, totalSteps)

	timer.step(collectStep)
	sources, err := collect(ctx, a)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		warnColor.Fprintln(out, "No items to analyze!")
		return nil
	}
	timer.done(fmt.Sprintf("%d files found", len(sources)))

	timer.step("Reviewing files")
	content, err := a.Review(ctx, sources, reviewer.WithProgress(func(done, total int, r *core.FileReview) {
		timer.info("[%d/%d] %s", done, total, r.Name)
	}))
	if err != nil {
		return err
	}
	timer.done()

	timer.step("Generating report")
	path, document, err := a.WriteReport(content)
	if err != nil {
		return err
	}
	timer.done(path)

	if prURL != "" {
		timer.step("Publishing report")
		if err := a.Publish(ctx, prURL, document); err != nil {
			return err
		}
		timer.done(prURL)
	}

	if renderReport {
		fmt.Fprintln(out)
		renderMarkdown(out, document)
	}

	successColor.Fprint(out, "\nReport generated: ")
	boldColor.Fprintln(out, path)
	dimColor.Fprintf(out, "Total time: %s\n", time.Since(overallStart).Round(time.Millisecond))
	return nil
}
