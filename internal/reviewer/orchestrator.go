// Package reviewer drives a review run: one file first to establish the remote
// conversation, then every remaining file submitted in order and polled by a
// bounded pool of workers.
package reviewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/stk-reviewer/internal/core"
)

var (
	// ErrUnknownExecution is returned when a poll result cannot be joined back
	// to a submitted file.
	ErrUnknownExecution = errors.New("poll result for unknown execution")
	// ErrDuplicateExecution is returned when the remote service hands out the
	// same execution id twice within one run.
	ErrDuplicateExecution = errors.New("duplicate execution id")
)

// ProgressFunc is notified each time a file's review is available.
// done counts finished files including this one. Calls are serialized.
type ProgressFunc func(done, total int, review *core.FileReview)

// Orchestrator runs the submit and poll pipeline for a list of files.
type Orchestrator struct {
	submitter   core.Submitter
	poller      core.Poller
	concurrency int
	logger      *slog.Logger
	progress    ProgressFunc
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithProgress registers a callback invoked as reviews complete.
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

// New creates an orchestrator. A concurrency of zero or less means one poll
// worker per available CPU.
func New(submitter core.Submitter, poller core.Poller, concurrency int, logger *slog.Logger, opts ...Option) *Orchestrator {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		submitter:   submitter,
		poller:      poller,
		concurrency: concurrency,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run reviews every file and returns the review texts keyed by file name, in
// input order. The first failure of any file aborts the run.
func (o *Orchestrator) Run(ctx context.Context, reviews []*core.FileReview) (*core.ContentByName, error) {
	content := core.NewContentByName()
	if len(reviews) == 0 {
		return content, nil
	}

	start := time.Now()
	total := len(reviews)
	o.logger.InfoContext(ctx, "starting review run", "files", total, "concurrency", o.concurrency)

	first := reviews[0]
	if err := o.reviewFirst(ctx, first); err != nil {
		return nil, err
	}
	content.Set(first.Name, first.Review)
	o.notify(1, total, first)

	rest := reviews[1:]
	if len(rest) > 0 {
		byExecution, err := o.submitRemaining(ctx, rest, first.ConversationID)
		if err != nil {
			return nil, err
		}

		results, err := o.pollRemaining(ctx, rest, byExecution, total)
		if err != nil {
			return nil, err
		}

		if err := join(results, byExecution); err != nil {
			return nil, err
		}
		for _, r := range rest {
			content.Set(r.Name, r.Review)
		}
	}

	o.logger.InfoContext(ctx, "review run finished", "files", content.Len(), "duration", time.Since(start))
	return content, nil
}

// reviewFirst submits and polls the first file on the calling goroutine. Its
// conversation id seeds every other submission.
func (o *Orchestrator) reviewFirst(ctx context.Context, first *core.FileReview) error {
	o.logger.InfoContext(ctx, "reviewing first file", "file", first.Name)

	executionID, err := o.submitter.Create(ctx, first.Content, first.ConversationID)
	if err != nil {
		return fmt.Errorf("submitting %s: %w", first.Name, err)
	}
	first.ExecutionID = executionID

	res, err := o.poller.Find(ctx, executionID)
	if err != nil {
		return fmt.Errorf("reviewing %s: %w", first.Name, err)
	}
	first.ConversationID = res.ConversationID
	first.Review = res.Review

	o.logger.DebugContext(ctx, "first file reviewed", "review", first.String())
	return nil
}

// submitRemaining creates one execution per file in input order and returns
// the execution id to file mapping used to join poll results.
func (o *Orchestrator) submitRemaining(ctx context.Context, rest []*core.FileReview, conversationID string) (map[string]*core.FileReview, error) {
	for _, r := range rest {
		r.ConversationID = conversationID
	}

	byExecution := make(map[string]*core.FileReview, len(rest))
	for _, r := range rest {
		executionID, err := o.submitter.Create(ctx, r.Content, r.ConversationID)
		if err != nil {
			return nil, fmt.Errorf("submitting %s: %w", r.Name, err)
		}
		if prev, ok := byExecution[executionID]; ok {
			return nil, fmt.Errorf("%w %s for %s and %s", ErrDuplicateExecution, executionID, prev.Name, r.Name)
		}
		r.ExecutionID = executionID
		byExecution[executionID] = r
		o.logger.DebugContext(ctx, "file submitted", "file", r.Name, "execution_id", executionID)
	}
	return byExecution, nil
}

// pollRemaining waits for every execution with at most o.concurrency polls in
// flight. Results come back in completion order.
func (o *Orchestrator) pollRemaining(ctx context.Context, rest []*core.FileReview, byExecution map[string]*core.FileReview, total int) ([]*core.ExecutionResult, error) {
	results := make([]*core.ExecutionResult, 0, len(rest))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for _, r := range rest {
		executionID := r.ExecutionID
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := o.poller.Find(gctx, executionID)
			if err != nil {
				return fmt.Errorf("polling execution %s: %w", executionID, err)
			}

			mu.Lock()
			defer mu.Unlock()
			results = append(results, res)
			if done, ok := byExecution[res.ExecutionID]; ok {
				o.notify(len(results)+1, total, &core.FileReview{
					Name:           done.Name,
					ExecutionID:    res.ExecutionID,
					ConversationID: done.ConversationID,
					Review:         res.Review,
				})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// join copies each result's review onto the file that produced it.
func join(results []*core.ExecutionResult, byExecution map[string]*core.FileReview) error {
	seen := make(map[string]struct{}, len(results))
	for _, res := range results {
		r, ok := byExecution[res.ExecutionID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownExecution, res.ExecutionID)
		}
		r.Review = res.Review
		seen[res.ExecutionID] = struct{}{}
	}
	for executionID, r := range byExecution {
		if _, ok := seen[executionID]; !ok {
			return fmt.Errorf("no result for execution %s (%s)", executionID, r.Name)
		}
	}
	return nil
}

func (o *Orchestrator) notify(done, total int, review *core.FileReview) {
	if o.progress != nil {
		o.progress(done, total, review)
	}
}
