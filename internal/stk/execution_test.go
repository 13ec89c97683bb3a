package stk

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sevigo/stk-reviewer/internal/stktest"
	"github.com/sevigo/stk-reviewer/mocks"
)

func TestEscapeContent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "x = 1", want: "x = 1"},
		{name: "newline", in: "a\nb", want: `a\\nb`},
		{name: "escaped quote", in: `print(\"hi\")`, want: `print(\\\\"hi\\\\")`},
		{name: "bare quote untouched", in: `say "hi"`, want: `say "hi"`},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeContent(tt.in))
		})
	}
}

func TestExecutionClientCreate(t *testing.T) {
	srv := stktest.NewServer()
	defer srv.Close()
	srv.QueueExecution(stktest.ExecutionID("01HZX"))

	tokens := &staticToken{value: "Bearer abc"}
	client := NewExecutionClient(testConfig(srv), tokens, srv.Client(), testLogger(), fastRetry())

	id, err := client.Create(context.Background(), "def f():\n    return 1", "")
	require.NoError(t, err)
	assert.Equal(t, "01HZX", id)

	execs := srv.Executions()
	require.Len(t, execs, 1)
	assert.Equal(t, "qc-review", execs[0].QuickCommandID)
	assert.Equal(t, "Bearer abc", execs[0].Authorization)
	assert.Empty(t, execs[0].ConversationID)
	assert.Equal(t, `def f():\\n    return 1`, execs[0].InputData)
}

func TestExecutionClientConversationHeader(t *testing.T) {
	srv := stktest.NewServer()
	defer srv.Close()

	client := NewExecutionClient(testConfig(srv), &staticToken{value: "Bearer abc"}, srv.Client(), testLogger(), fastRetry())

	_, err := client.Create(context.Background(), "print(1)", "C1")
	require.NoError(t, err)

	execs := srv.Executions()
	require.Len(t, execs, 1)
	assert.Equal(t, "C1", execs[0].ConversationID)
}

func TestExecutionClientStripsQuotesAndWhitespace(t *testing.T) {
	srv := stktest.NewServer()
	defer srv.Close()
	srv.QueueExecution(stktest.Response{Status: http.StatusOK, Body: "\"E-42\"\n"})

	client := NewExecutionClient(testConfig(srv), &staticToken{value: "Bearer abc"}, srv.Client(), testLogger(), fastRetry())

	id, err := client.Create(context.Background(), "x", "")
	require.NoError(t, err)
	assert.Equal(t, "E-42", id)
}

func TestExecutionClientFailures(t *testing.T) {
	tests := []struct {
		name      string
		responses []stktest.Response
		wantKind  error
		wantCalls int
	}{
		{
			name:      "contract failure",
			responses: []stktest.Response{stktest.Failure(http.StatusBadRequest, "missing input_data")},
			wantKind:  ErrContract,
			wantCalls: 1,
		},
		{
			name:      "authentication failure",
			responses: []stktest.Response{stktest.Failure(http.StatusUnauthorized, "expired")},
			wantKind:  ErrAuthentication,
			wantCalls: 1,
		},
		{
			name:      "forbidden is an integration failure here",
			responses: []stktest.Response{stktest.Failure(http.StatusForbidden, "nope")},
			wantKind:  ErrIntegration,
			wantCalls: 3,
		},
		{
			name:      "server error exhausts retries",
			responses: []stktest.Response{stktest.Failure(http.StatusBadGateway, "")},
			wantKind:  ErrIntegration,
			wantCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := stktest.NewServer()
			defer srv.Close()
			srv.QueueExecution(tt.responses...)

			tokens := &staticToken{value: "Bearer abc"}
			client := NewExecutionClient(testConfig(srv), tokens, srv.Client(), testLogger(), fastRetry())

			_, err := client.Create(context.Background(), "x", "")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)
			assert.Len(t, srv.Executions(), tt.wantCalls)
			assert.Equal(t, tt.wantCalls, tokens.calls, "a token is requested for every attempt")
		})
	}
}

func TestExecutionClientRetriesThenSucceeds(t *testing.T) {
	srv := stktest.NewServer()
	defer srv.Close()
	srv.QueueExecution(
		stktest.Failure(http.StatusServiceUnavailable, "busy"),
		stktest.ExecutionID("E7"),
	)

	client := NewExecutionClient(testConfig(srv), &staticToken{value: "Bearer abc"}, srv.Client(), testLogger(), fastRetry())

	id, err := client.Create(context.Background(), "x", "")
	require.NoError(t, err)
	assert.Equal(t, "E7", id)
	assert.Len(t, srv.Executions(), 2)
}

func TestExecutionClientTokenFailure(t *testing.T) {
	srv := stktest.NewServer()
	defer srv.Close()

	ctrl := gomock.NewController(t)
	tokens := mocks.NewMockTokenProvider(ctrl)
	tokenErr := newStatusError(EndpointToken, http.StatusUnauthorized, []byte("bad secret"))
	tokens.EXPECT().Token(gomock.Any()).Return("", tokenErr).Times(1)

	client := NewExecutionClient(testConfig(srv), tokens, srv.Client(), testLogger(), fastRetry())

	_, err := client.Create(context.Background(), "x", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthentication))
	assert.Empty(t, srv.Executions(), "no execution is created without a token")
}
