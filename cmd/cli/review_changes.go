package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sevigo/stk-reviewer/internal/app"
	"github.com/sevigo/stk-reviewer/internal/core"
)

var (
	baseBranch    string
	compareBranch string
)

var reviewChangesCmd = &cobra.Command{
	Use:   "review-changes",
	Short: "Review the code changed between two branches",
	Long: `Review only the lines that changed between --base-branch and --compare-branch
of the Git repository in --directory. Each file is sent as its zero-context diff.

Examples:
  stk-reviewer review-changes --base-branch main --compare-branch feature/login
  stk-reviewer review-changes -d ../service --pr-url https://github.com/acme/service/pull/42`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runReview(cmd, "Collecting changes", func(ctx context.Context, a *app.App) ([]core.SourceFile, error) {
			return a.CollectChanges(ctx, baseBranch, compareBranch)
		})
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reviewChangesCmd.Flags().StringVar(&baseBranch, "base-branch", "main", "Base branch")
	reviewChangesCmd.Flags().StringVar(&compareBranch, "compare-branch", "develop", "Branch compared against the base")
	rootCmd.AddCommand(reviewChangesCmd)
}
