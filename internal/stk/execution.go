package stk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sevigo/stk-reviewer/internal/config"
	"github.com/sevigo/stk-reviewer/internal/core"
)

// contentEscaper reproduces the escaping the quick-command templates expect:
// newlines become a literal `\\n` and escaped quotes get their backslashes doubled.
var contentEscaper = strings.NewReplacer("\n", `\\n`, `\"`, `\\\\"`)

// ExecutionClient creates quick-command executions.
type ExecutionClient struct {
	url    string
	tokens core.TokenProvider
	client *http.Client
	retry  RetryPolicy
	logger *slog.Logger
}

// NewExecutionClient creates the submitter for the configured quick command.
func NewExecutionClient(cfg config.STKConfig, tokens core.TokenProvider, client *http.Client, logger *slog.Logger, retry RetryPolicy) *ExecutionClient {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &ExecutionClient{
		url:    fmt.Sprintf("%s/v1/quick-commands/create-execution/%s", cfg.Host, cfg.QuickCommandID),
		tokens: tokens,
		client: client,
		retry:  retry,
		logger: logger,
	}
}

var _ core.Submitter = (*ExecutionClient)(nil)

// Create submits content and returns the bare execution id. Integration
// failures are retried according to the client's policy.
func (c *ExecutionClient) Create(ctx context.Context, content, conversationID string) (string, error) {
	c.logger.DebugContext(ctx, "starting file upload to STK AI", "conversation_id", conversationID)

	payload, err := json.Marshal(map[string]string{"input_data": EscapeContent(content)})
	if err != nil {
		return "", fmt.Errorf("marshaling execution request: %w", err)
	}

	var executionID string
	err = c.retry.Do(ctx, c.logger, "create execution", func(ctx context.Context) error {
		var createErr error
		executionID, createErr = c.create(ctx, payload, conversationID)
		return createErr
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "integration with execution API failed", "error", err)
		return "", err
	}

	c.logger.DebugContext(ctx, "file successfully uploaded", "execution_id", executionID, "conversation_id", conversationID)
	return executionID, nil
}

func (c *ExecutionClient) create(ctx context.Context, payload []byte, conversationID string) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating execution request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	if conversationID != "" {
		req.Header.Set("conversation_id", conversationID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", newTransportError(EndpointExecution, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newTransportError(EndpointExecution, fmt.Errorf("reading response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", newStatusError(EndpointExecution, resp.StatusCode, body)
	}

	return strings.TrimSpace(strings.ReplaceAll(string(body), `"`, "")), nil
}

// EscapeContent prepares file content for the input_data field.
func EscapeContent(content string) string {
	return contentEscaper.Replace(content)
}
