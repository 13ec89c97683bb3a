package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sevigo/stk-reviewer/internal/app"
	"github.com/sevigo/stk-reviewer/internal/core"
)

var reviewDirCmd = &cobra.Command{
	Use:   "review-dir",
	Short: "Review every matching file in a directory",
	Long: `Review every file under --directory whose name ends with --extension.

Examples:
  stk-reviewer review-dir -d ./src -e .py
  stk-reviewer review-dir -d . -e .go --ignored-directories vendor,testdata --limit 20`,
	Args: cobra.NoArgs,
	RunE: runReviewDir,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(reviewDirCmd)
}

func runReviewDir(cmd *cobra.Command, _ []string) error {
	return runReview(cmd, "Searching files", func(ctx context.Context, a *app.App) ([]core.SourceFile, error) {
		return a.CollectDirectory(ctx)
	})
}
