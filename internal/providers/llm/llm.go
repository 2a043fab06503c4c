package llm

import (
	"context"
	"fmt"
)

// Message is one role-tagged turn in a conversation sent to the gateway.
type Message struct {
	Role    string
	Content string
}

// Request is a full conversation plus sampling parameters. Gateways that do
// not support a parameter apply it best-effort.
type Request struct {
	Messages         []Message
	Temperature      float32
	MaxTokens        int
	PresencePenalty  float32
	FrequencyPenalty float32
}

// Response is the generated assistant turn.
type Response struct {
	Content      string
	FinishReason string
}

// Provider generates the next assistant turn for a conversation.
type Provider interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Close() error
}

// StatusError reports that the gateway answered with a non-success status.
// Such failures are deterministic; callers must not retry them.
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway status %d: %v", e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }
