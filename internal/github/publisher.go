package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sevigo/stk-reviewer/internal/gitutil"
)

// maxCommentLength is GitHub's limit for an issue comment body.
const maxCommentLength = 65536

const (
	commentHeader   = "## 🤖 STK AI code review\n\n"
	truncatedNotice = "\n\n> [!NOTE]\n> The report was truncated. The complete version is in the generated report file.\n"
)

// ErrPullRequestClosed is returned when publishing to a closed pull request.
var ErrPullRequestClosed = errors.New("pull request is not open")

// Publisher posts merged review reports to pull requests.
type Publisher struct {
	client Client
	logger *slog.Logger
}

// NewPublisher creates a publisher backed by client.
func NewPublisher(client Client, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{client: client, logger: logger}
}

// Publish comments the report on the pull request. Closed pull requests are
// rejected.
func (p *Publisher) Publish(ctx context.Context, pr gitutil.PullRequest, report string) error {
	got, err := p.client.GetPullRequest(ctx, pr.Owner, pr.Repo, pr.Number)
	if err != nil {
		return fmt.Errorf("failed to get pull request %s: %w", pr, err)
	}
	if got.GetState() != "open" {
		return fmt.Errorf("%w: %s is %s", ErrPullRequestClosed, pr, got.GetState())
	}

	if err := p.client.CreateComment(ctx, pr.Owner, pr.Repo, pr.Number, FormatComment(report)); err != nil {
		return fmt.Errorf("failed to comment on pull request %s: %w", pr, err)
	}
	p.logger.InfoContext(ctx, "review report published", "pull_request", pr.String())
	return nil
}

// FormatComment wraps the report for a pull request comment, truncating it to
// fit GitHub's size limit.
func FormatComment(report string) string {
	body := commentHeader + report
	if len(body) <= maxCommentLength {
		return body
	}

	cut := maxCommentLength - len(truncatedNotice)
	// Back off to a rune boundary.
	for cut > 0 && !runeStart(body[cut]) {
		cut--
	}
	return body[:cut] + truncatedNotice
}

func runeStart(b byte) bool {
	return b&0xC0 != 0x80
}
