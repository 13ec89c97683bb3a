package gitutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var prURLRegex = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)/pull/(\d+)$`)

// PullRequest identifies a GitHub pull request.
type PullRequest struct {
	Owner  string
	Repo   string
	Number int
}

func (p PullRequest) String() string {
	return fmt.Sprintf("%s/%s#%d", p.Owner, p.Repo, p.Number)
}

// ParsePullRequestURL extracts the pull request a review report is published to.
// Supported format: https://github.com/{owner}/{repo}/pull/{number}
func ParsePullRequestURL(url string) (PullRequest, error) {
	url = strings.TrimSuffix(strings.TrimSpace(url), "/")

	matches := prURLRegex.FindStringSubmatch(url)
	if len(matches) != 4 {
		return PullRequest{}, fmt.Errorf("invalid pull request URL format: %s", url)
	}

	number, err := strconv.Atoi(matches[3])
	if err != nil {
		return PullRequest{}, fmt.Errorf("invalid PR number '%s': %w", matches[3], err)
	}
	if number <= 0 {
		return PullRequest{}, fmt.Errorf("invalid PR number '%s'", matches[3])
	}

	return PullRequest{Owner: matches[1], Repo: matches[2], Number: number}, nil
}
