// Package gitutil reads changed code out of local Git repositories and parses
// pull request URLs.
package gitutil

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/sevigo/stk-reviewer/internal/core"
	"github.com/sevigo/stk-reviewer/internal/files"
)

// Client handles interacting with Git repositories.
type Client struct {
	Logger *slog.Logger
}

// NewClient returns a new Client instance.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{Logger: logger}
}

// Open opens a Git repository at a given path.
func (c *Client) Open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", path, err)
	}
	return repo, nil
}

// ChangedCode returns, for every file that differs between the tips of base
// and compare and passes the filter, its zero-context unified diff without the
// leading "diff --git" line. Files come back in path order; a positive limit
// caps how many are returned.
func (c *Client) ChangedCode(ctx context.Context, repoPath, base, compare string, filter *files.Filter, limit int) ([]core.SourceFile, error) {
	repo, err := c.Open(repoPath)
	if err != nil {
		return nil, err
	}

	baseTree, err := c.tree(repo, base)
	if err != nil {
		return nil, err
	}
	compareTree, err := c.tree(repo, compare)
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTreeWithOptions(ctx, baseTree, compareTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees between %s and %s: %w", base, compare, err)
	}

	var out []core.SourceFile
	for _, change := range changes {
		name := changeName(change)
		if !filter.Match(name) {
			continue
		}
		if limit > 0 && len(out) == limit {
			c.Logger.InfoContext(ctx, "limiting number of files sent", "limit", limit)
			break
		}

		patch, err := change.PatchContext(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to build patch for %s: %w", name, err)
		}
		if isBinary(patch) {
			c.Logger.DebugContext(ctx, "skipping binary file", "file", name)
			continue
		}

		content, err := encode(patch)
		if err != nil {
			return nil, fmt.Errorf("failed to encode patch for %s: %w", name, err)
		}
		out = append(out, core.SourceFile{Path: name, Content: content})
	}

	c.Logger.DebugContext(ctx, "changed files found", "base", base, "compare", compare, "count", len(out))
	return out, nil
}

func (c *Client) tree(repo *git.Repository, rev string) (*object.Tree, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve revision %s: %w", rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit object for %s: %w", rev, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree for %s: %w", rev, err)
	}
	return tree, nil
}

// changeName is the path a change is reported under: the new path, or the
// old one for deletions.
func changeName(change *object.Change) string {
	if action, err := change.Action(); err == nil && action == merkletrie.Delete {
		return change.From.Name
	}
	return change.To.Name
}

func isBinary(patch *object.Patch) bool {
	for _, fp := range patch.FilePatches() {
		if fp.IsBinary() {
			return true
		}
	}
	return false
}

// encode renders the patch with no context lines and drops its first line.
func encode(patch *object.Patch) (string, error) {
	var buf bytes.Buffer
	if err := diff.NewUnifiedEncoder(&buf, 0).Encode(patch); err != nil {
		return "", err
	}
	_, rest, _ := strings.Cut(buf.String(), "\n")
	return rest, nil
}
