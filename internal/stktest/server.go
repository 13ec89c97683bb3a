// Package stktest provides a scriptable, in-process fake of the STK AI token,
// execution and callback endpoints for tests.
package stktest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// Response is one scripted reply. Responses queued for an endpoint are served
// in order; the last one repeats once the queue is drained.
type Response struct {
	Status int
	Body   string
	Delay  time.Duration
}

// ExecutionRequest records one call to the create-execution endpoint.
type ExecutionRequest struct {
	QuickCommandID string
	Authorization  string
	ConversationID string
	InputData      string
	ExecutionID    string
}

// TokenRequest records one call to the token endpoint.
type TokenRequest struct {
	Realm string
	Form  url.Values
}

// Server is a fake STK AI deployment. Token host and API host are the same URL.
type Server struct {
	*httptest.Server

	mu sync.Mutex

	tokenQueue     []Response
	executionQueue []Response
	callbackQueues map[string][]Response
	defaultResult  func(executionID, input string) Response

	tokenRequests []TokenRequest
	executions    []ExecutionRequest
	callbackCalls map[string]int
	callbackAuths []string
	inputByExecID map[string]string
	nextExecution int
}

// NewServer starts a fake server. Without scripted responses it issues a
// one-hour bearer token, numbers executions E1, E2, ... and completes every
// execution on the first poll with the review "review of <input_data>".
func NewServer() *Server {
	s := &Server{
		callbackQueues: map[string][]Response{},
		callbackCalls:  map[string]int{},
		inputByExecID:  map[string]string{},
	}
	s.defaultResult = func(executionID, input string) Response {
		return Completed("conversation-"+executionID, "review of "+input)
	}

	r := chi.NewRouter()
	r.Post("/{realm}/oidc/oauth/token", s.handleToken)
	r.Post("/v1/quick-commands/create-execution/{quickCommandID}", s.handleExecution)
	r.Get("/v1/quick-commands/callback/{executionID}", s.handleCallback)

	s.Server = httptest.NewServer(r)
	return s
}

// QueueToken appends scripted token responses.
func (s *Server) QueueToken(responses ...Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenQueue = append(s.tokenQueue, responses...)
}

// QueueExecution appends scripted create-execution responses.
func (s *Server) QueueExecution(responses ...Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executionQueue = append(s.executionQueue, responses...)
}

// QueueCallback appends scripted callback responses for one execution id.
func (s *Server) QueueCallback(executionID string, responses ...Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbackQueues[executionID] = append(s.callbackQueues[executionID], responses...)
}

// SetDefaultResult replaces the callback reply used for executions without a queue.
func (s *Server) SetDefaultResult(fn func(executionID, input string) Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultResult = fn
}

// TokenRequests returns a copy of the recorded token calls.
func (s *Server) TokenRequests() []TokenRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TokenRequest(nil), s.tokenRequests...)
}

// Executions returns a copy of the recorded create-execution calls.
func (s *Server) Executions() []ExecutionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ExecutionRequest(nil), s.executions...)
}

// CallbackCalls returns how many times an execution was polled.
func (s *Server) CallbackCalls(executionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callbackCalls[executionID]
}

// CallbackAuthorizations returns the Authorization headers seen by the callback endpoint.
func (s *Server) CallbackAuthorizations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.callbackAuths...)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.tokenRequests = append(s.tokenRequests, TokenRequest{Realm: chi.URLParam(r, "realm"), Form: r.PostForm})
	resp, ok := pop(&s.tokenQueue)
	s.mu.Unlock()

	if !ok {
		resp = Token("Bearer", fmt.Sprintf("token-%d", len(s.TokenRequests())), 3600)
	}
	write(w, resp, "application/json")
}

func (s *Server) handleExecution(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		InputData string `json:"input_data"`
	}
	body, _ := io.ReadAll(r.Body)
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	resp, ok := pop(&s.executionQueue)
	if !ok {
		s.nextExecution++
		resp = ExecutionID(fmt.Sprintf("E%d", s.nextExecution))
	}
	var executionID string
	if resp.Status == http.StatusOK {
		_ = json.Unmarshal([]byte(resp.Body), &executionID)
		s.inputByExecID[executionID] = payload.InputData
	}
	s.executions = append(s.executions, ExecutionRequest{
		QuickCommandID: chi.URLParam(r, "quickCommandID"),
		Authorization:  r.Header.Get("Authorization"),
		ConversationID: r.Header.Get("conversation_id"),
		InputData:      payload.InputData,
		ExecutionID:    executionID,
	})
	s.mu.Unlock()

	write(w, resp, "text/plain")
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	executionID := chi.URLParam(r, "executionID")

	s.mu.Lock()
	s.callbackCalls[executionID]++
	s.callbackAuths = append(s.callbackAuths, r.Header.Get("Authorization"))
	queue := s.callbackQueues[executionID]
	resp, ok := pop(&queue)
	s.callbackQueues[executionID] = queue
	if !ok {
		resp = s.defaultResult(executionID, s.inputByExecID[executionID])
	}
	s.mu.Unlock()

	write(w, resp, "application/json")
}

// pop takes the head of the queue, leaving the final element in place.
func pop(queue *[]Response) (Response, bool) {
	q := *queue
	switch len(q) {
	case 0:
		return Response{}, false
	case 1:
		return q[0], true
	default:
		*queue = q[1:]
		return q[0], true
	}
}

func write(w http.ResponseWriter, resp Response, contentType string) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = io.WriteString(w, resp.Body)
}
