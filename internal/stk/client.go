// Package stk implements the client side of the STK AI quick-command protocol:
// token issuance, execution creation and execution polling.
package stk

import (
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sevigo/stk-reviewer/internal/config"
)

// NewHTTPClient creates the HTTP client shared by every remote call of a run.
// Requests are routed through the configured HTTP or HTTPS proxy according to
// their scheme; without an explicit proxy the environment settings apply.
func NewHTTPClient(cfg config.STKConfig) *http.Client {
	transport := &http.Transport{
		Proxy: proxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: max(cfg.Concurrency, 2),
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.HTTPTimeout,
	}
}

func proxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}
	return func(req *http.Request) (*url.URL, error) {
		raw := httpProxy
		if req.URL.Scheme == "https" {
			raw = httpsProxy
		}
		if raw == "" {
			return nil, nil
		}
		return url.Parse(raw)
	}
}
