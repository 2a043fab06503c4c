package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hallatan/mockvox/internal/api/handlers"
	"github.com/hallatan/mockvox/internal/interview"
	"github.com/hallatan/mockvox/internal/models"
	"github.com/hallatan/mockvox/internal/observability/metrics"
	"github.com/hallatan/mockvox/internal/providers/llm"
	"github.com/hallatan/mockvox/internal/services"
	"github.com/hallatan/mockvox/internal/store"
	"github.com/hallatan/mockvox/internal/utils"
)

// queueLLM plays back queued outcomes, then answers with a stock question.
type queueLLM struct {
	mu    sync.Mutex
	calls int
	queue []func() (llm.Response, error)
}

func (q *queueLLM) Complete(_ context.Context, _ llm.Request) (llm.Response, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++
	if len(q.queue) == 0 {
		return llm.Response{Content: "What drew you to public service?", FinishReason: "stop"}, nil
	}
	next := q.queue[0]
	q.queue = q.queue[1:]
	return next()
}

func (q *queueLLM) Close() error { return nil }

func (q *queueLLM) enqueueReply(content string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queue = append(q.queue, func() (llm.Response, error) {
		return llm.Response{Content: content, FinishReason: "stop"}, nil
	})
}

func (q *queueLLM) enqueueStatusError(code int, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queue = append(q.queue, func() (llm.Response, error) {
		return llm.Response{}, &llm.StatusError{StatusCode: code, Err: err}
	})
}

type stubSTT struct {
	gotLanguage string
}

func (s *stubSTT) Transcribe(_ context.Context, _ []byte, language string) (string, float64, error) {
	s.gotLanguage = language
	return "I wish to serve the nation", 0.91, nil
}

func (s *stubSTT) Close() error { return nil }

type stubTTS struct{}

func (stubTTS) Synthesize(_ context.Context, _ string) ([]byte, error) {
	return []byte("mpeg-frames"), nil
}

func (stubTTS) Close() error { return nil }

type apiFixture struct {
	router *gin.Engine
	store  *store.MemoryStore
	llm    *queueLLM
	stt    *stubSTT
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &apiFixture{
		store: store.NewMemoryStore(0),
		llm:   &queueLLM{},
		stt:   &stubSTT{},
	}

	locks := services.NewSessionLocks()
	m := metrics.NewInterviewMetrics(prometheus.NewRegistry())

	sessionSvc := services.NewSessionService(f.store, locks, "memory", m)
	interviewSvc := services.NewInterviewService(f.store, interview.NewEngine(interview.EngineConfig{}), f.llm, locks, m)
	reportSvc := services.NewReportService(f.store, f.llm, locks, m, nil)
	speechSvc := services.NewSpeechService(f.stt, stubTTS{}, m)

	f.router = gin.New()
	RegisterRoutes(f.router, Deps{
		Session: handlers.NewSessionHandler(sessionSvc, reportSvc),
		Chat:    handlers.NewChatHandler(interviewSvc),
		Speech:  handlers.NewSpeechHandler(speechSvc),
		Admin:   handlers.NewAdminHandler(sessionSvc),
		Archive: handlers.NewArchiveHandler(nil),
		WS:      handlers.NewWSHandler(interviewSvc, sessionSvc),
	})
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) initSession(t *testing.T) string {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/session/init", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(t, out.SessionID)
	return out.SessionID
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func TestPing(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "# HELP")
}

func TestSessionInit_WireShape(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/session/init", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	require.Contains(t, body, "sessionId")
	require.Contains(t, body, "interests")
	assert.NotEmpty(t, body["sessionId"])

	interests, ok := body["interests"].([]any)
	require.True(t, ok)
	assert.Len(t, interests, 2)
}

func TestChat_CompletionWireShape(t *testing.T) {
	f := newAPIFixture(t)
	id := f.initSession(t)

	w := f.do(t, http.MethodPost, "/api/chat", gin.H{
		"sessionId": id,
		"messages": []models.ChatMessage{
			{Role: models.RoleSystem, Content: "You are the chairperson."},
			{Role: models.RoleUser, Content: "Good morning, I am ready."},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	choices, ok := body["choices"].([]any)
	require.True(t, ok, "completion body must carry choices")
	require.Len(t, choices, 1)

	choice := choices[0].(map[string]any)
	assert.Equal(t, "stop", choice["finish_reason"])

	msg := choice["message"].(map[string]any)
	assert.Equal(t, models.RoleAssistant, msg["role"])
	assert.Equal(t, "What drew you to public service?", msg["content"])
}

func TestChat_MissingSessionID(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/chat", gin.H{
		"messages": []models.ChatMessage{{Role: models.RoleUser, Content: "hello"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(utils.CodeInvalidArgument), decodeJSON(t, w)["code"])
}

func TestChat_UnknownSession(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/chat", gin.H{
		"sessionId": "no-such-session",
		"messages":  []models.ChatMessage{{Role: models.RoleUser, Content: "hello"}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(utils.CodeNotFound), decodeJSON(t, w)["code"])
}

func TestTrack_RoundTrip(t *testing.T) {
	f := newAPIFixture(t)
	id := f.initSession(t)

	w := f.do(t, http.MethodPost, "/api/session/track", gin.H{
		"sessionId": id,
		"metrics": models.TurnMetric{
			Question:       "Why this service?",
			Answer:         "Because I want to build public systems.",
			ResponseTimeMs: 1200,
		},
		"interruptionDetected": true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	stored, err := f.store.Get(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, stored.Metrics.Responses, 1)
	assert.Equal(t, int64(1200), stored.Metrics.Responses[0].ResponseTimeMs)
	assert.Equal(t, 1, stored.Metrics.Interruptions)
}

func TestTrack_UnknownSession(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/session/track", gin.H{
		"sessionId": "gone",
		"metrics":   models.TurnMetric{ResponseTimeMs: 100},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDelete_RequiresSessionID(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/session/delete", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(utils.CodeInvalidArgument), decodeJSON(t, w)["code"])
}

func TestDelete_Idempotent(t *testing.T) {
	f := newAPIFixture(t)
	id := f.initSession(t)

	for i := 0; i < 2; i++ {
		w := f.do(t, http.MethodPost, "/api/session/delete", gin.H{"sessionId": id})
		require.Equal(t, http.StatusOK, w.Code, "delete #%d", i+1)
		assert.JSONEq(t, `{"success":true}`, w.Body.String())
	}

	_, err := f.store.Get(context.Background(), id)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

const critiqueJSON = `{
  "scores": {
    "content":       {"score": 6, "feedback": "Covers the ground but stays general."},
    "communication": {"score": 7, "feedback": "Clear structure."},
    "confidence":    {"score": 5, "feedback": "Hesitant openings."},
    "knowledge":     {"score": 6, "feedback": "Sound on fundamentals."},
    "etiquette":     {"score": 8, "feedback": "Courteous throughout."}
  },
  "strengths": ["Structured answers"],
  "improvements": ["Commit to a position sooner"],
  "overallAssessment": "A fair showing.",
  "detailedFeedback": "Lead with the conclusion, then justify it."
}`

func reportHistory() []models.ChatMessage {
	return []models.ChatMessage{
		{Role: models.RoleSystem, Content: "You are the chairperson."},
		{Role: models.RoleAssistant, Content: "Why do you want this role?"},
		{Role: models.RoleUser, Content: "To serve."},
	}
}

func TestReport_WireShapeAndConsumption(t *testing.T) {
	f := newAPIFixture(t)
	id := f.initSession(t)
	f.llm.enqueueReply(critiqueJSON)

	w := f.do(t, http.MethodPost, "/api/session/report", gin.H{
		"sessionId":           id,
		"conversationHistory": reportHistory(),
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	analysis, ok := body["analysis"].(map[string]any)
	require.True(t, ok)

	scores := analysis["scores"].(map[string]any)
	for _, category := range interview.ScoreCategories {
		require.Contains(t, scores, category)
	}
	content := scores["content"].(map[string]any)
	assert.InDelta(t, 6.0, content["score"], 0.001)

	require.Contains(t, body, "rawMetrics")
	raw := body["rawMetrics"].(map[string]any)
	assert.Contains(t, raw, "totalResponses")
	assert.Contains(t, raw, "totalInterruptions")
	assert.Contains(t, raw, "averageResponseMs")

	// Report generation consumes the session.
	_, err := f.store.Get(context.Background(), id)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestReport_UpstreamFailureRetainsSession(t *testing.T) {
	f := newAPIFixture(t)
	id := f.initSession(t)
	f.llm.enqueueStatusError(http.StatusServiceUnavailable, io.ErrUnexpectedEOF)

	w := f.do(t, http.MethodPost, "/api/session/report", gin.H{
		"sessionId":           id,
		"conversationHistory": reportHistory(),
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, string(utils.CodeUpstream), decodeJSON(t, w)["code"])

	_, err := f.store.Get(context.Background(), id)
	assert.NoError(t, err, "a failed report must keep the session for another try")
}

func TestReport_UnknownSession(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/session/report", gin.H{
		"sessionId":           "gone",
		"conversationHistory": reportHistory(),
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSTT_Multipart(t *testing.T) {
	f := newAPIFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("audio", "answer.webm")
	require.NoError(t, err)
	_, err = fw.Write([]byte("not-really-webm"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("language", "en-IN"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/stt", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "I wish to serve the nation", body["text"])

	m := body["metrics"].(map[string]any)
	assert.InDelta(t, 0.91, m["confidence"], 0.001)
	assert.InDelta(t, 6, m["wordCount"], 0.001)

	assert.Equal(t, "en-IN", f.stt.gotLanguage)
}

func TestSTT_MissingFile(t *testing.T) {
	f := newAPIFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("language", "en-IN"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/stt", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTTS_ReturnsAudio(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/tts", gin.H{"text": "Good morning, candidate."})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, []byte("mpeg-frames"), w.Body.Bytes())
}

func TestTTS_MissingText(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/tts", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/interview"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestWS_TurnRoundTrip(t *testing.T) {
	f := newAPIFixture(t)
	id := f.initSession(t)

	srv := httptest.NewServer(f.router)
	defer srv.Close()

	conn := dialWS(t, srv)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(gin.H{
		"type":      "turn",
		"sessionId": id,
		"messages": []models.ChatMessage{
			{Role: models.RoleUser, Content: "Good morning."},
		},
	}))

	var reply struct {
		Type          string `json:"type"`
		Content       string `json:"content"`
		QuestionCount int    `json:"questionCount"`
	}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "question", reply.Type)
	assert.Equal(t, "What drew you to public service?", reply.Content)
	assert.Equal(t, 1, reply.QuestionCount)
}

func TestWS_ErrorsAndEnd(t *testing.T) {
	f := newAPIFixture(t)
	id := f.initSession(t)

	srv := httptest.NewServer(f.router)
	defer srv.Close()

	conn := dialWS(t, srv)
	defer conn.Close()

	// unknown type
	require.NoError(t, conn.WriteJSON(gin.H{"type": "telemetry"}))
	var errReply struct {
		Type string `json:"type"`
		Code string `json:"code"`
	}
	require.NoError(t, conn.ReadJSON(&errReply))
	assert.Equal(t, "error", errReply.Type)
	assert.Equal(t, string(utils.CodeInvalidArgument), errReply.Code)

	// turn for a missing session
	require.NoError(t, conn.WriteJSON(gin.H{"type": "turn", "sessionId": "gone"}))
	require.NoError(t, conn.ReadJSON(&errReply))
	assert.Equal(t, "error", errReply.Type)
	assert.Equal(t, string(utils.CodeNotFound), errReply.Code)

	// end tears down the session and closes the socket
	require.NoError(t, conn.WriteJSON(gin.H{"type": "end", "sessionId": id}))
	var endReply struct {
		Type string `json:"type"`
	}
	require.NoError(t, conn.ReadJSON(&endReply))
	assert.Equal(t, "ended", endReply.Type)

	_, err := f.store.Get(context.Background(), id)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func mintAdminToken(t *testing.T, secret, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  "ops-1",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func (f *apiFixture) doAdmin(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestAdmin_RequiresToken(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", "routes-test-secret")
	f := newAPIFixture(t)

	w := f.doAdmin(t, "/api/admin/sessions", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdmin_RejectsNonAdminRole(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", "routes-test-secret")
	f := newAPIFixture(t)

	token := mintAdminToken(t, "routes-test-secret", "viewer")
	w := f.doAdmin(t, "/api/admin/sessions", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdmin_RejectsBadSignature(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", "routes-test-secret")
	f := newAPIFixture(t)

	token := mintAdminToken(t, "some-other-secret", "admin")
	w := f.doAdmin(t, "/api/admin/sessions", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdmin_ListAndGet(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", "routes-test-secret")
	f := newAPIFixture(t)
	id := f.initSession(t)
	token := mintAdminToken(t, "routes-test-secret", "admin")

	w := f.doAdmin(t, "/api/admin/sessions", token)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.InDelta(t, 1, body["count"], 0.001)

	w = f.doAdmin(t, "/api/admin/sessions/"+id, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decodeJSON(t, w)["sessionId"])

	w = f.doAdmin(t, "/api/admin/sessions/not-there", token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdmin_ArchivesUnavailableWithoutDatabase(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", "routes-test-secret")
	f := newAPIFixture(t)
	token := mintAdminToken(t, "routes-test-secret", "admin")

	w := f.doAdmin(t, "/api/admin/archives", token)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, string(utils.CodeUnavailable), decodeJSON(t, w)["code"])
}
