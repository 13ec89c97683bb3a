// Package report merges per-file reviews into one markdown document and
// persists it.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sevigo/stk-reviewer/internal/core"
)

// ErrNoContent is returned when there is nothing to merge.
var ErrNoContent = errors.New("no content to generate report")

const (
	sectionFormat = "# File name: %s \n\n %s"
	separator     = "\n\n---\n\n"
)

// MergeContents renders one section per file, in the mapping's order.
func MergeContents(content *core.ContentByName) (string, error) {
	if content.Len() == 0 {
		return "", ErrNoContent
	}

	sections := make([]string, 0, content.Len())
	content.Each(func(name, review string) {
		sections = append(sections, fmt.Sprintf(sectionFormat, name, review))
	})
	return strings.Join(sections, separator), nil
}

// Write stores the document as dir/filename, creating dir when needed, and
// returns the written path.
func Write(dir, filename, document string) (string, error) {
	if filename == "" {
		return "", errors.New("report filename is empty")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(document), 0o644); err != nil {
		return "", fmt.Errorf("writing report %s: %w", path, err)
	}
	return path, nil
}

// Generate merges the content and writes it in one step.
func Generate(dir, filename string, content *core.ContentByName) (string, string, error) {
	document, err := MergeContents(content)
	if err != nil {
		return "", "", err
	}
	path, err := Write(dir, filename, document)
	if err != nil {
		return "", "", err
	}
	return path, document, nil
}
