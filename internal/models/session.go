package models

import "time"

// Wire roles shared with the completion gateway.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one role-tagged turn of an interview transcript. The first
// entry of any history the client sends is reserved for the persona/system
// description.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationState is the turn policy engine's working memory, embedded in
// Session and persisted between stateless requests.
type ConversationState struct {
	QuestionCount           int      `json:"questionCount"`
	CurrentTopic            string   `json:"currentTopic,omitempty"`
	QuestionsOnCurrentTopic int      `json:"questionsOnCurrentTopic"`
	TopicsCovered           []string `json:"topicsCovered,omitempty"`
	HasGreeted              bool     `json:"hasGreeted"`
	AskedIntroduction       bool     `json:"askedIntroduction"`
	ShouldConclude          bool     `json:"shouldConclude"`
}

// TurnMetric is one client-reported measurement for a single answer.
type TurnMetric struct {
	Question       string    `json:"question,omitempty"`
	Answer         string    `json:"answer,omitempty"`
	ResponseTimeMs int64     `json:"responseTimeMs,omitempty"`
	PauseCount     int       `json:"pauseCount,omitempty"`
	FillerWords    int       `json:"fillerWords,omitempty"`
	RecordedAt     time.Time `json:"recordedAt"`
}

// InterviewMetrics accumulates per-turn measurements across the session.
type InterviewMetrics struct {
	Responses     []TurnMetric `json:"responses,omitempty"`
	Interruptions int          `json:"interruptions"`
}

// Session is the durable state for one mock-interview attempt, keyed by an
// opaque id. It is stored as a single JSON document so both the in-memory
// and the Redis backend can treat it as an opaque value.
type Session struct {
	SessionID string            `json:"sessionId"`
	Interests []string          `json:"interests"`
	Metrics   InterviewMetrics  `json:"metrics"`
	State     ConversationState `json:"conversationState"`
	CreatedAt time.Time         `json:"createdAt"`
}
