package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hallatan/mockvox/internal/interview"
	"github.com/hallatan/mockvox/internal/models"
	"github.com/hallatan/mockvox/internal/observability/metrics"
	"github.com/hallatan/mockvox/internal/providers/llm"
	"github.com/hallatan/mockvox/internal/store"
	"github.com/hallatan/mockvox/internal/utils"
)

type llmCall struct {
	resp llm.Response
	err  error
}

func reply(content string) llmCall {
	return llmCall{resp: llm.Response{Content: content, FinishReason: "stop"}}
}

func fail(err error) llmCall { return llmCall{err: err} }

// scriptedLLM plays back queued replies, then answers every further call
// with a generic question. It records each request it saw.
type scriptedLLM struct {
	mu    sync.Mutex
	reqs  []llm.Request
	queue []llmCall
}

func (s *scriptedLLM) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	if len(s.queue) == 0 {
		return llm.Response{Content: "Tell me more about that.", FinishReason: "stop"}, nil
	}
	call := s.queue[0]
	s.queue = s.queue[1:]
	return call.resp, call.err
}

func (s *scriptedLLM) Close() error { return nil }

func (s *scriptedLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reqs)
}

func (s *scriptedLLM) request(i int) llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reqs[i]
}

type fixture struct {
	store    *store.MemoryStore
	locks    *SessionLocks
	metrics  *metrics.InterviewMetrics
	llm      *scriptedLLM
	sessions SessionService
	chat     InterviewService
	reports  ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   store.NewMemoryStore(0),
		locks:   NewSessionLocks(),
		metrics: metrics.NewInterviewMetrics(prometheus.NewRegistry()),
		llm:     &scriptedLLM{},
	}
	f.sessions = NewSessionService(f.store, f.locks, "memory", f.metrics)
	f.chat = NewInterviewService(f.store, interview.NewEngine(interview.EngineConfig{}), f.llm, f.locks, f.metrics)
	f.reports = NewReportService(f.store, f.llm, f.locks, f.metrics, nil)
	return f
}

func (f *fixture) initSession(t *testing.T) *models.Session {
	t.Helper()
	s, err := f.sessions.Init(context.Background())
	require.NoError(t, err)
	return s
}

func userTurn(content string) []models.ChatMessage {
	return []models.ChatMessage{
		{Role: models.RoleSystem, Content: "You are a stern interviewer."},
		{Role: models.RoleUser, Content: content},
	}
}

func TestNextQuestion_OpeningTurn(t *testing.T) {
	f := newFixture(t)
	sess := f.initSession(t)

	out, err := f.chat.NextQuestion(context.Background(), sess.SessionID, userTurn("I am ready."))
	require.NoError(t, err)
	require.Len(t, out.Choices, 1)
	assert.Equal(t, models.RoleAssistant, out.Choices[0].Message.Role)
	assert.Equal(t, "Tell me more about that.", out.Choices[0].Message.Content)

	stored, err := f.store.Get(context.Background(), sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.State.QuestionCount)
	assert.True(t, stored.State.AskedIntroduction)
	assert.Empty(t, stored.State.CurrentTopic)

	require.Equal(t, 1, f.llm.calls())
	req := f.llm.request(0)
	require.Len(t, req.Messages, 3)
	assert.Equal(t, "You are a stern interviewer.", req.Messages[0].Content, "client persona leads")
	assert.Contains(t, req.Messages[1].Content, "interview is now beginning")
	assert.Equal(t, "I am ready.", req.Messages[2].Content)
}

func TestNextQuestion_DefaultPersonaWhenHistoryLacksOne(t *testing.T) {
	f := newFixture(t)
	sess := f.initSession(t)

	history := []models.ChatMessage{{Role: models.RoleUser, Content: "Good morning."}}
	_, err := f.chat.NextQuestion(context.Background(), sess.SessionID, history)
	require.NoError(t, err)

	req := f.llm.request(0)
	require.Len(t, req.Messages, 3)
	assert.Equal(t, interview.PersonaInstruction, req.Messages[0].Content)
	assert.Equal(t, "Good morning.", req.Messages[2].Content)
}

func TestNextQuestion_SecondTurnCarriesTopicGuidance(t *testing.T) {
	f := newFixture(t)
	sess := f.initSession(t)

	_, err := f.chat.NextQuestion(context.Background(), sess.SessionID, userTurn("ready"))
	require.NoError(t, err)
	_, err = f.chat.NextQuestion(context.Background(), sess.SessionID, userTurn("my motivation is service"))
	require.NoError(t, err)

	req := f.llm.request(1)
	assert.Contains(t, req.Messages[1].Content, "Active topic: current affairs.")
	assert.Contains(t, req.Messages[1].Content, "question 2 of 70 overall")
}

func TestNextQuestion_UnknownSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.chat.NextQuestion(context.Background(), "no-such-session", userTurn("hello"))
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
	assert.Zero(t, f.llm.calls(), "no gateway call for an unknown session")
}

func TestNextQuestion_GatewayStatusFailure(t *testing.T) {
	f := newFixture(t)
	sess := f.initSession(t)
	f.llm.queue = []llmCall{fail(&llm.StatusError{StatusCode: 502, Err: errors.New("bad gateway")})}

	_, err := f.chat.NextQuestion(context.Background(), sess.SessionID, userTurn("ready"))
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeUpstream))
	assert.Equal(t, 1, f.llm.calls(), "status failures are not retried")

	// The slot was consumed before the call went out.
	stored, err := f.store.Get(context.Background(), sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.State.QuestionCount)
}

func TestNextQuestion_RetriesTransportErrorOnce(t *testing.T) {
	f := newFixture(t)
	sess := f.initSession(t)
	f.llm.queue = []llmCall{fail(errors.New("connection reset")), reply("Why this role?")}

	out, err := f.chat.NextQuestion(context.Background(), sess.SessionID, userTurn("ready"))
	require.NoError(t, err)
	assert.Equal(t, "Why this role?", out.Choices[0].Message.Content)
	assert.Equal(t, 2, f.llm.calls())
}

func TestNextQuestion_ConcludesWithoutGateway(t *testing.T) {
	f := newFixture(t)
	sess := f.initSession(t)

	sess.State.QuestionCount = interview.QuestionLimit
	sess.State.AskedIntroduction = true
	sess.State.HasGreeted = true
	require.NoError(t, f.store.Put(context.Background(), sess))

	for i := 0; i < 2; i++ {
		out, err := f.chat.NextQuestion(context.Background(), sess.SessionID, userTurn("anything else?"))
		require.NoError(t, err)
		require.Len(t, out.Choices, 1)
		assert.Equal(t, interview.ClosingRemark, out.Choices[0].Message.Content)
		assert.Equal(t, "stop", out.Choices[0].FinishReason)
	}
	assert.Zero(t, f.llm.calls(), "concluded turns never reach the gateway")

	stored, err := f.store.Get(context.Background(), sess.SessionID)
	require.NoError(t, err)
	assert.True(t, stored.State.ShouldConclude)
	assert.Equal(t, interview.QuestionLimit, stored.State.QuestionCount)
}

func TestNextQuestion_FullInterviewRun(t *testing.T) {
	f := newFixture(t)
	sess := f.initSession(t)

	for i := 0; i < interview.QuestionLimit; i++ {
		out, err := f.chat.NextQuestion(context.Background(), sess.SessionID, userTurn("an answer"))
		require.NoError(t, err)
		require.NotEqual(t, interview.ClosingRemark, out.Choices[0].Message.Content, "turn %d concluded early", i+1)
	}
	require.Equal(t, interview.QuestionLimit, f.llm.calls())

	out, err := f.chat.NextQuestion(context.Background(), sess.SessionID, userTurn("an answer"))
	require.NoError(t, err)
	assert.Equal(t, interview.ClosingRemark, out.Choices[0].Message.Content)
	assert.Equal(t, interview.QuestionLimit, f.llm.calls(), "the 71st call makes no gateway request")

	stored, err := f.store.Get(context.Background(), sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, interview.QuestionLimit, stored.State.QuestionCount)
	assert.NotEmpty(t, stored.State.TopicsCovered)
}

func TestNextQuestion_SessionIsolation(t *testing.T) {
	f := newFixture(t)
	a := f.initSession(t)
	b := f.initSession(t)

	for i := 0; i < 3; i++ {
		_, err := f.chat.NextQuestion(context.Background(), a.SessionID, userTurn("answer"))
		require.NoError(t, err)
	}

	storedB, err := f.store.Get(context.Background(), b.SessionID)
	require.NoError(t, err)
	assert.Zero(t, storedB.State.QuestionCount, "session B untouched by session A's turns")
}

func TestNextQuestion_MissingSessionID(t *testing.T) {
	f := newFixture(t)

	_, err := f.chat.NextQuestion(context.Background(), "", userTurn("hello"))
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestOutgoingMessages_GuidanceAlwaysSecond(t *testing.T) {
	history := []models.ChatMessage{
		{Role: models.RoleSystem, Content: "persona"},
		{Role: models.RoleUser, Content: "first"},
		{Role: models.RoleAssistant, Content: "question"},
		{Role: models.RoleUser, Content: "second"},
	}
	out := outgoingMessages(history, "guidance block")
	require.Len(t, out, 5)
	assert.Equal(t, "persona", out[0].Content)
	assert.Equal(t, "guidance block", out[1].Content)
	assert.Equal(t, models.RoleSystem, out[1].Role)
	assert.Equal(t, "second", out[4].Content)
	assert.False(t, strings.Contains(out[2].Content, "guidance"))
}
