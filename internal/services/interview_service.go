package services

import (
	"context"
	"errors"
	"time"

	"github.com/hallatan/mockvox/internal/interview"
	"github.com/hallatan/mockvox/internal/models"
	"github.com/hallatan/mockvox/internal/observability/metrics"
	"github.com/hallatan/mockvox/internal/providers/llm"
	"github.com/hallatan/mockvox/internal/store"
	"github.com/hallatan/mockvox/internal/utils"
)

// Sampling parameters for question generation. Configuration payloads, not
// logic; kept in one place.
const (
	questionTimeout          = 20 * time.Second
	questionTemperature      = 0.8
	questionMaxTokens        = 220
	questionPresencePenalty  = 0.6
	questionFrequencyPenalty = 0.4
)

type InterviewService interface {
	NextQuestion(ctx context.Context, sessionID string, history []models.ChatMessage) (*models.ChatCompletion, error)
}

type interviewService struct {
	sessions store.SessionStore
	engine   *interview.Engine
	llm      llm.Provider
	locks    *SessionLocks
	metrics  *metrics.InterviewMetrics
}

func NewInterviewService(sessions store.SessionStore, engine *interview.Engine, provider llm.Provider, locks *SessionLocks, m *metrics.InterviewMetrics) InterviewService {
	return &interviewService{sessions: sessions, engine: engine, llm: provider, locks: locks, metrics: m}
}

func (s *interviewService) NextQuestion(ctx context.Context, sessionID string, history []models.ChatMessage) (*models.ChatCompletion, error) {
	const op = "InterviewService.NextQuestion"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "sessionId is required", nil)
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}

	decision := s.engine.AdvanceTurn(&session.State, session.Interests)

	// State is saved before the gateway call: a failed generation has still
	// consumed its question slot, so a client retry cannot double-advance
	// the interview.
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save session", err)
	}

	if decision.Kind == interview.TurnConcluded {
		return models.NewChatCompletion(interview.ClosingRemark, "stop"), nil
	}

	s.metrics.ObserveQuestionAsked()
	if decision.TopicSwitched {
		s.metrics.ObserveTopicSwitch(session.State.CurrentTopic)
	}

	req := llm.Request{
		Messages:         outgoingMessages(history, decision.Guidance),
		Temperature:      questionTemperature,
		MaxTokens:        questionMaxTokens,
		PresencePenalty:  questionPresencePenalty,
		FrequencyPenalty: questionFrequencyPenalty,
	}

	callCtx, cancel := context.WithTimeout(ctx, questionTimeout)
	defer cancel()

	resp, err := completeWithRetry(callCtx, s.llm, req, s.metrics, "completion")
	if err != nil {
		return nil, utils.E(utils.CodeUpstream, op, "question generation failed", err)
	}
	return models.NewChatCompletion(resp.Content, resp.FinishReason), nil
}

// outgoingMessages assembles persona first, then the fresh guidance, then
// the remainder of the supplied history. A leading system entry from the
// client is its persona; without one the default board persona heads the
// conversation.
func outgoingMessages(history []models.ChatMessage, guidance string) []llm.Message {
	persona := models.ChatMessage{Role: models.RoleSystem, Content: interview.PersonaInstruction}
	rest := history
	if len(history) > 0 && history[0].Role == models.RoleSystem {
		persona = history[0]
		rest = history[1:]
	}

	out := make([]llm.Message, 0, len(rest)+2)
	out = append(out, llm.Message{Role: persona.Role, Content: persona.Content})
	out = append(out, llm.Message{Role: models.RoleSystem, Content: guidance})
	for _, m := range rest {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
