package models

// ChatChoice mirrors the completion-gateway wire shape the web client
// already consumes, so generated and synthetic replies look identical.
type ChatChoice struct {
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type ChatCompletion struct {
	Choices []ChatChoice `json:"choices"`
}

func NewChatCompletion(content, finishReason string) *ChatCompletion {
	if finishReason == "" {
		finishReason = "stop"
	}
	return &ChatCompletion{Choices: []ChatChoice{{
		Message:      ChatMessage{Role: RoleAssistant, Content: content},
		FinishReason: finishReason,
	}}}
}

// RawMetrics is the per-interview measurement summary attached to the final
// report.
type RawMetrics struct {
	TotalResponses     int   `json:"totalResponses"`
	TotalInterruptions int   `json:"totalInterruptions"`
	AverageResponseMs  int64 `json:"averageResponseMs"`
}
