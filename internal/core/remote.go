// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing the review orchestration to be decoupled from the remote protocol.
package core

import (
	"context"
)

// TokenProvider hands out the bearer credential attached to every remote call.
//
//go:generate mockgen -destination=../../mocks/mock_stk.go -package=mocks . TokenProvider,Submitter,Poller
type TokenProvider interface {
	// Token returns the credential formatted as "<token_type> <access_token>",
	// ready to be used as the Authorization header value.
	Token(ctx context.Context) (string, error)
}

// Submitter creates remote review executions.
type Submitter interface {
	// Create submits one file's content and returns the opaque execution id.
	// A non-empty conversationID continues an existing remote conversation.
	Create(ctx context.Context, content, conversationID string) (string, error)
}

// Poller waits for a remote execution to reach a terminal state.
type Poller interface {
	// Find polls the execution until it completes, reports a non-running status,
	// or the attempt budget runs out.
	Find(ctx context.Context, executionID string) (*ExecutionResult, error)
}
