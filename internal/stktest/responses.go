package stktest

import (
	"encoding/json"
	"net/http"
)

// Token is a successful token response.
func Token(tokenType, accessToken string, expiresIn int) Response {
	return jsonResponse(map[string]any{
		"token_type":   tokenType,
		"access_token": accessToken,
		"expires_in":   expiresIn,
	})
}

// ExecutionID is a successful create-execution response; the id is returned quoted.
func ExecutionID(id string) Response {
	return Response{Status: http.StatusOK, Body: `"` + id + `"`}
}

// Running is a callback response for an execution still in progress.
// progress is a fraction between 0 and 1.
func Running(progress float64) Response {
	return Progress("RUNNING", progress, "", "")
}

// Completed is a terminal callback response carrying the review.
func Completed(conversationID, result string) Response {
	return Progress("COMPLETED", 1, conversationID, result)
}

// Progress is a callback response with an arbitrary status.
func Progress(status string, progress float64, conversationID, result string) Response {
	return jsonResponse(map[string]any{
		"progress": map[string]any{
			"status":               status,
			"execution_percentage": progress,
		},
		"conversation_id": conversationID,
		"result":          result,
	})
}

// Failure is an error response with a plain-text body.
func Failure(status int, body string) Response {
	return Response{Status: status, Body: body}
}

func jsonResponse(v any) Response {
	body, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Response{Status: http.StatusOK, Body: string(body)}
}
