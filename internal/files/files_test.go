package files

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/stk-reviewer/internal/core"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return root
}

func paths(files []core.SourceFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestFilterMatch(t *testing.T) {
	f, err := NewFilter(".py",
		[]string{"venv", ".git", "__pycache__", "build/**"},
		[]string{"__init__.py", "test_*.py"},
	)
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"main.py", true},
		{"./main.py", true},
		{"pkg/service.py", true},
		{"README.md", false},
		{"pkg/__init__.py", false},
		{"tests/test_service.py", false},
		{"venv/lib/site.py", false},
		{"src/venv/lib/site.py", false},
		{"pkg/__pycache__/mod.py", false},
		{"build/out/gen.py", false},
		{"venvs/keep.py", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Match(tt.path))
		})
	}
}

func TestNewFilterRejectsInvalidPattern(t *testing.T) {
	_, err := NewFilter(".py", []string{"[unterminated"}, nil)
	assert.Error(t, err)
}

func TestFindAll(t *testing.T) {
	root := writeTree(t, map[string]string{
		"b.py":                 "print(2)",
		"a.py":                 "print(1)",
		"pkg/c.py":             "print(3)",
		"pkg/__init__.py":      "",
		"venv/lib/site.py":     "ignored",
		"docs/readme.md":       "# docs",
		"__pycache__/cache.py": "ignored",
	})

	f, err := NewFilter(".py", []string{"venv", "__pycache__"}, []string{"__init__.py"})
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("all matches sorted", func(t *testing.T) {
		got, err := FindAll(context.Background(), root, f, 0, logger)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.py", "b.py", "pkg/c.py"}, paths(got))
		assert.Equal(t, "print(1)", got[0].Content)
	})

	t.Run("limit", func(t *testing.T) {
		got, err := FindAll(context.Background(), root, f, 2, logger)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.py", "b.py"}, paths(got))
	})

	t.Run("no matches", func(t *testing.T) {
		txt, err := NewFilter(".txt", nil, nil)
		require.NoError(t, err)
		got, err := FindAll(context.Background(), root, txt, 0, logger)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := FindAll(context.Background(), filepath.Join(root, "nope"), f, 0, logger)
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := FindAll(ctx, root, f, 0, logger)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
