package stk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/sevigo/stk-reviewer/internal/config"
)

// Credential is a cached bearer token and the moment it stops being valid.
type Credential struct {
	Value     string
	ExpiresAt time.Time
}

// Expired reports whether the credential can no longer be used at now.
func (c *Credential) Expired(now time.Time) bool {
	return c == nil || now.After(c.ExpiresAt)
}

// TokenManager issues client-credentials tokens and caches them until expiry.
//
// The cache is the only state shared between concurrent review workers. It is
// swapped atomically but refreshes are not serialized: two callers that see an
// expired credential may both fetch a new one and the last write wins. Both
// tokens are valid, so the only cost is an extra request.
type TokenManager struct {
	oauth  clientcredentials.Config
	realm  string
	client *http.Client
	retry  RetryPolicy
	logger *slog.Logger
	now    func() time.Time
	cache  atomic.Pointer[Credential]
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithTokenRetry overrides the retry policy for token requests.
func WithTokenRetry(p RetryPolicy) TokenOption {
	return func(m *TokenManager) { m.retry = p }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) { m.now = now }
}

// NewTokenManager creates a token manager for the configured realm.
func NewTokenManager(cfg config.STKConfig, client *http.Client, logger *slog.Logger, opts ...TokenOption) *TokenManager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &TokenManager{
		oauth: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     fmt.Sprintf("%s/%s/oidc/oauth/token", cfg.TokenHost, cfg.Realm),
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		realm:  cfg.Realm,
		client: client,
		retry:  DefaultRetryPolicy(),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Token returns the cached credential, requesting a new one when there is none
// or the cached one has expired.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	if cred := m.cache.Load(); !cred.Expired(m.now()) {
		return cred.Value, nil
	}

	m.logger.DebugContext(ctx, "starting token generation", "realm", m.realm)

	var cred *Credential
	err := m.retry.Do(ctx, m.logger, "generate token", func(ctx context.Context) error {
		var fetchErr error
		cred, fetchErr = m.fetch(ctx)
		return fetchErr
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to generate access token", "realm", m.realm, "error", err)
		return "", err
	}

	m.cache.Store(cred)
	m.logger.DebugContext(ctx, "token generated", "expires_at", cred.ExpiresAt)
	return cred.Value, nil
}

// Invalidate drops the cached credential.
func (m *TokenManager) Invalidate() {
	m.cache.Store(nil)
}

func (m *TokenManager) fetch(ctx context.Context) (*Credential, error) {
	if m.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.client)
	}

	tok, err := m.oauth.Token(ctx)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return nil, newStatusError(EndpointToken, retrieveErr.Response.StatusCode, retrieveErr.Body)
		}
		return nil, newTransportError(EndpointToken, err)
	}

	tokenType := tok.TokenType
	if tokenType == "" {
		tokenType = tok.Type()
	}
	return &Credential{
		Value:     tokenType + " " + tok.AccessToken,
		ExpiresAt: m.now().Add(expiresIn(tok)),
	}, nil
}

// expiresIn reads the server-provided lifetime. A token without one is
// treated as already expired so the next call fetches a fresh token.
func expiresIn(tok *oauth2.Token) time.Duration {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return time.Duration(v * float64(time.Second))
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return time.Duration(f * float64(time.Second))
		}
	case string:
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(n * float64(time.Second))
		}
	}
	if !tok.Expiry.IsZero() {
		return time.Until(tok.Expiry)
	}
	return 0
}
