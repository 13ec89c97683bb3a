package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/stk-reviewer/internal/config"
	"github.com/sevigo/stk-reviewer/internal/core"
	"github.com/sevigo/stk-reviewer/internal/gitutil"
	"github.com/sevigo/stk-reviewer/internal/report"
	"github.com/sevigo/stk-reviewer/internal/stk"
	"github.com/sevigo/stk-reviewer/internal/stktest"
)

func newTestApp(t *testing.T, srv *stktest.Server, dir string) *App {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		STK: config.STKConfig{
			QuickCommandID: "qc-review",
			ClientID:       "client",
			ClientSecret:   "secret",
			Host:           srv.URL,
			TokenHost:      srv.URL,
			Realm:          "zup",
			MaxAttempts:    3,
			PollInterval:   time.Millisecond,
			Concurrency:    2,
		},
		Review: config.ReviewConfig{
			Directory:          dir,
			Extension:          ".py",
			IgnoredDirectories: config.DefaultIgnoredDirectories,
			IgnoredFiles:       config.DefaultIgnoredFiles,
			ReportDirectory:    filepath.Join(t.TempDir(), "report"),
			ReportFilename:     "code-report",
		},
	}
	tokens := stk.NewTokenManager(cfg.STK, srv.Client(), logger)
	return NewApp(cfg, logger, RunID("test-run"), srv.Client(),
		stk.NewExecutionClient(cfg.STK, tokens, srv.Client(), logger, stk.DefaultRetryPolicy()),
		stk.NewCallbackClient(cfg.STK, tokens, srv.Client(), logger),
		gitutil.NewClient(logger),
	)
}

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func TestReviewDirectoryEndToEnd(t *testing.T) {
	srv := stktest.NewServer()
	defer srv.Close()

	dir := t.TempDir()
	writeFile(t, dir, "a.py", "print(1)")
	writeFile(t, dir, "b.py", "print(2)")
	writeFile(t, dir, "__init__.py", "")
	writeFile(t, dir, "venv/lib.py", "ignored")

	a := newTestApp(t, srv, dir)
	ctx := context.Background()

	sources, err := a.CollectDirectory(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 2)

	content, err := a.Review(ctx, sources)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "b.py"}, content.Names())

	path, document, err := a.WriteReport(content)
	require.NoError(t, err)
	assert.Equal(t, "# File name: a.py \n\n review of print(1)\n\n---\n\n# File name: b.py \n\n review of print(2)", document)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, document, string(data))
}

func TestCollectDirectoryUsesRepoConfig(t *testing.T) {
	srv := stktest.NewServer()
	defer srv.Close()

	dir := t.TempDir()
	writeFile(t, dir, "a.py", "print(1)")
	writeFile(t, dir, "generated/models.py", "x")
	writeFile(t, dir, "settings_local.py", "y")
	writeFile(t, dir, config.RepoConfigFile, "ignored_directories:\n  - generated\nignored_files:\n  - settings_*.py\n")

	a := newTestApp(t, srv, dir)
	sources, err := a.CollectDirectory(context.Background())
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "a.py", sources[0].Path)
}

func TestCollectDirectoryInvalidRepoConfig(t *testing.T) {
	srv := stktest.NewServer()
	defer srv.Close()

	dir := t.TempDir()
	writeFile(t, dir, config.RepoConfigFile, "ignored_files: [unterminated")

	_, err := newTestApp(t, srv, dir).CollectDirectory(context.Background())
	assert.ErrorIs(t, err, config.ErrConfigParsing)
}

func TestWriteReportEmpty(t *testing.T) {
	srv := stktest.NewServer()
	defer srv.Close()

	_, _, err := newTestApp(t, srv, t.TempDir()).WriteReport(core.NewContentByName())
	assert.ErrorIs(t, err, report.ErrNoContent)
}

func TestPublishValidation(t *testing.T) {
	srv := stktest.NewServer()
	defer srv.Close()
	a := newTestApp(t, srv, t.TempDir())

	err := a.Publish(context.Background(), "https://github.com/acme/payments/issues/1", "doc")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid pull request URL"))

	err = a.Publish(context.Background(), "https://github.com/acme/payments/pull/1", "doc")
	assert.ErrorIs(t, err, ErrMissingGitHubToken)
}
