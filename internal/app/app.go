// Package app holds the components of one review run and the steps the CLI
// chains together: collect files, review them, write and publish the report.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sevigo/stk-reviewer/internal/config"
	"github.com/sevigo/stk-reviewer/internal/core"
	"github.com/sevigo/stk-reviewer/internal/files"
	"github.com/sevigo/stk-reviewer/internal/github"
	"github.com/sevigo/stk-reviewer/internal/gitutil"
	"github.com/sevigo/stk-reviewer/internal/report"
	"github.com/sevigo/stk-reviewer/internal/reviewer"
)

// ErrMissingGitHubToken is returned when publishing without a GitHub token.
var ErrMissingGitHubToken = errors.New("a GitHub token is required to publish the report. Provide --github-token or the environment variable GITHUB_TOKEN")

// App holds the main application components.
type App struct {
	Cfg        *config.Config
	Logger     *slog.Logger
	RunID      RunID
	HTTPClient *http.Client
	Submitter  core.Submitter
	Poller     core.Poller
	Git        *gitutil.Client
}

// RunID tags every log line of one invocation.
type RunID string

// NewApp assembles an App from its already constructed parts.
func NewApp(cfg *config.Config, logger *slog.Logger, runID RunID, httpClient *http.Client, submitter core.Submitter, poller core.Poller, git *gitutil.Client) *App {
	logger.Debug("application initialized", "stk", cfg.STK, "review_directory", cfg.Review.Directory)
	return &App{
		Cfg:        cfg,
		Logger:     logger,
		RunID:      runID,
		HTTPClient: httpClient,
		Submitter:  submitter,
		Poller:     poller,
		Git:        git,
	}
}

// ReviewSettings returns the review settings with the reviewed directory's
// .stk-reviewer.yml applied, when there is one.
func (a *App) ReviewSettings() (config.ReviewConfig, error) {
	rc, err := config.LoadRepoConfig(a.Cfg.Review.Directory)
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		return a.Cfg.Review, nil
	case err != nil:
		return config.ReviewConfig{}, err
	}
	a.Logger.Info("loaded repository config", "file", config.RepoConfigFile)
	return a.Cfg.Review.WithRepoConfig(rc), nil
}

func (a *App) filter(settings config.ReviewConfig) (*files.Filter, error) {
	a.Logger.Debug("file filter",
		"extension", settings.Extension,
		"ignored_directories", settings.IgnoredDirectories,
		"ignored_files", settings.IgnoredFiles,
	)
	return files.NewFilter(settings.Extension, settings.IgnoredDirectories, settings.IgnoredFiles)
}

// CollectDirectory returns every reviewable file under the configured directory.
func (a *App) CollectDirectory(ctx context.Context) ([]core.SourceFile, error) {
	settings, err := a.ReviewSettings()
	if err != nil {
		return nil, err
	}
	filter, err := a.filter(settings)
	if err != nil {
		return nil, err
	}
	return files.FindAll(ctx, settings.Directory, filter, settings.Limit, a.Logger)
}

// CollectChanges returns the changed code of every reviewable file between
// two branches of the repository in the configured directory.
func (a *App) CollectChanges(ctx context.Context, base, compare string) ([]core.SourceFile, error) {
	settings, err := a.ReviewSettings()
	if err != nil {
		return nil, err
	}
	filter, err := a.filter(settings)
	if err != nil {
		return nil, err
	}
	return a.Git.ChangedCode(ctx, settings.Directory, base, compare, filter, settings.Limit)
}

// Review runs the remote review of sources.
func (a *App) Review(ctx context.Context, sources []core.SourceFile, opts ...reviewer.Option) (*core.ContentByName, error) {
	o := reviewer.New(a.Submitter, a.Poller, a.Cfg.STK.Concurrency, a.Logger, opts...)
	return o.Run(ctx, core.NewFileReviews(sources))
}

// WriteReport merges the reviews and writes the report file. It returns the
// report path and its content.
func (a *App) WriteReport(content *core.ContentByName) (string, string, error) {
	path, document, err := report.Generate(a.Cfg.Review.ReportDirectory, a.Cfg.Review.ReportFilename, content)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate report: %w", err)
	}
	a.Logger.Info("report written", "path", path, "files", content.Len())
	return path, document, nil
}

// Publish comments the report on the pull request at prURL.
func (a *App) Publish(ctx context.Context, prURL, document string) error {
	pr, err := gitutil.ParsePullRequestURL(prURL)
	if err != nil {
		return err
	}
	if a.Cfg.GitHub.Token == "" {
		return ErrMissingGitHubToken
	}
	client := github.NewPATClient(ctx, a.Cfg.GitHub.Token, a.HTTPClient, a.Logger)
	return github.NewPublisher(client, a.Logger).Publish(ctx, pr, document)
}
