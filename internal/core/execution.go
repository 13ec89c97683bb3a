package core

// ExecutionResult is what the callback endpoint reports once an execution is terminal.
type ExecutionResult struct {
	ExecutionID    string
	ConversationID string
	Review         string
}
