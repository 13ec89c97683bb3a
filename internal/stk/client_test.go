package stk

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/stk-reviewer/internal/config"
)

func TestNewHTTPClientProxySelection(t *testing.T) {
	client := NewHTTPClient(config.STKConfig{
		HTTPProxy:   "http://proxy.local:3128",
		HTTPSProxy:  "http://secure-proxy.local:3129",
		HTTPTimeout: 15 * time.Second,
	})
	assert.Equal(t, 15*time.Second, client.Timeout)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)

	plain := httptest.NewRequest(http.MethodGet, "http://api.example.com/x", nil)
	proxy, err := transport.Proxy(plain)
	require.NoError(t, err)
	assert.Equal(t, "proxy.local:3128", proxy.Host)

	secure := httptest.NewRequest(http.MethodGet, "https://api.example.com/x", nil)
	proxy, err = transport.Proxy(secure)
	require.NoError(t, err)
	assert.Equal(t, "secure-proxy.local:3129", proxy.Host)
}

func TestNewHTTPClientOnlyHTTPSProxy(t *testing.T) {
	client := NewHTTPClient(config.STKConfig{HTTPSProxy: "http://secure-proxy.local:3129"})
	transport := client.Transport.(*http.Transport)

	proxy, err := transport.Proxy(httptest.NewRequest(http.MethodGet, "http://api.example.com/x", nil))
	require.NoError(t, err)
	assert.Nil(t, proxy)
}
