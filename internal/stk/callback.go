package stk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/sevigo/stk-reviewer/internal/config"
	"github.com/sevigo/stk-reviewer/internal/core"
)

// Execution states reported by the callback endpoint.
const (
	StatusCompleted = "COMPLETED"
	StatusRunning   = "RUNNING"
)

type callbackResponse struct {
	Progress struct {
		Status              string  `json:"status"`
		ExecutionPercentage float64 `json:"execution_percentage"`
	} `json:"progress"`
	ConversationID string `json:"conversation_id"`
	Result         string `json:"result"`
}

// CallbackClient polls executions until they leave the RUNNING state.
//
// HTTP failures are never retried here: the loop only paces polls of an
// execution that is still running.
type CallbackClient struct {
	host        string
	tokens      core.TokenProvider
	client      *http.Client
	maxAttempts int
	interval    time.Duration
	logger      *slog.Logger
}

// NewCallbackClient creates a poller using the configured attempt budget and interval.
func NewCallbackClient(cfg config.STKConfig, tokens core.TokenProvider, client *http.Client, logger *slog.Logger) *CallbackClient {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &CallbackClient{
		host:        cfg.Host,
		tokens:      tokens,
		client:      client,
		maxAttempts: max(cfg.MaxAttempts, 1),
		interval:    cfg.PollInterval,
		logger:      logger,
	}
}

var _ core.Poller = (*CallbackClient)(nil)

// Find polls the execution. COMPLETED returns the review; RUNNING waits and
// polls again; any other status returns a placeholder review instead of an
// error so one broken execution does not abort the whole run.
func (c *CallbackClient) Find(ctx context.Context, executionID string) (*core.ExecutionResult, error) {
	logger := c.logger.With("execution_id", executionID)
	logger.DebugContext(ctx, "starting search for STK AI response")

	endpoint := fmt.Sprintf("%s/v1/quick-commands/callback/%s", c.host, url.PathEscape(executionID))

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		data, err := c.poll(ctx, endpoint)
		if err != nil {
			logger.ErrorContext(ctx, "failed to fetch execution result", "attempt", attempt, "error", err)
			return nil, err
		}

		switch data.Progress.Status {
		case StatusCompleted:
			logger.InfoContext(ctx, "execution completed", "attempts", attempt)
			return &core.ExecutionResult{
				ExecutionID:    executionID,
				ConversationID: data.ConversationID,
				Review:         data.Result,
			}, nil

		case StatusRunning:
			logger.InfoContext(ctx, "execution in progress",
				"percentage", math.Round(data.Progress.ExecutionPercentage*100),
				"attempt", attempt,
				"max_attempts", c.maxAttempts,
			)
			if attempt == c.maxAttempts {
				break
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.interval):
			}

		default:
			logger.ErrorContext(ctx, "progress status invalid", "status", data.Progress.Status)
			return &core.ExecutionResult{
				ExecutionID:    executionID,
				ConversationID: data.ConversationID,
				Review:         InvalidStatusReview(executionID),
			}, nil
		}
	}

	return nil, fmt.Errorf("execution %s: %w", executionID, ErrMaxAttempts)
}

func (c *CallbackClient) poll(ctx context.Context, endpoint string) (*callbackResponse, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating callback request: %w", err)
	}
	req.Header.Set("Authorization", token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, newTransportError(EndpointCallback, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newTransportError(EndpointCallback, fmt.Errorf("reading response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(EndpointCallback, resp.StatusCode, body)
	}

	var data callbackResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &Error{
			Kind:       ErrIntegration,
			Endpoint:   EndpointCallback,
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        fmt.Errorf("decoding callback response: %w", err),
		}
	}
	return &data, nil
}

// InvalidStatusReview is the review text recorded for an execution that
// ended in a status other than COMPLETED.
func InvalidStatusReview(executionID string) string {
	return "Progress status invalid, try another execution later..." + executionID
}
