package stk

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/sevigo/stk-reviewer/internal/config"
	"github.com/sevigo/stk-reviewer/internal/stktest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(srv *stktest.Server) config.STKConfig {
	return config.STKConfig{
		QuickCommandID: "qc-review",
		ClientID:       "client",
		ClientSecret:   "secret",
		Host:           srv.URL,
		TokenHost:      srv.URL,
		Realm:          "zup",
		MaxAttempts:    3,
		PollInterval:   time.Millisecond,
		Concurrency:    2,
		HTTPTimeout:    5 * time.Second,
	}
}

func fastRetry() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Retryable:      IsRetryable,
	}
}

// staticToken always returns the same credential and counts calls.
type staticToken struct {
	value string
	calls int
}

func (s *staticToken) Token(_ context.Context) (string, error) {
	s.calls++
	return s.value, nil
}
