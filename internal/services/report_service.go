package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"

	"github.com/hallatan/mockvox/internal/interview"
	"github.com/hallatan/mockvox/internal/models"
	"github.com/hallatan/mockvox/internal/observability/metrics"
	"github.com/hallatan/mockvox/internal/providers/llm"
	"github.com/hallatan/mockvox/internal/store"
	"github.com/hallatan/mockvox/internal/utils"
)

const (
	reportTimeout     = 45 * time.Second
	reportTemperature = 0.3
	reportMaxTokens   = 1200
)

const evaluatorInstruction = `You are the strictest member of a public-service interview board, writing the final evaluation of a candidate's mock interview. Respond with EXACTLY one JSON object and nothing else: no prose, no markdown fences. The object must have this shape:
{"scores":{"content":{"score":0,"feedback":""},"communication":{"score":0,"feedback":""},"confidence":{"score":0,"feedback":""},"knowledge":{"score":0,"feedback":""},"etiquette":{"score":0,"feedback":""}},"strengths":[],"improvements":[],"overallAssessment":"","detailedFeedback":""}
Each score is an integer from 0 to 10. Judge harshly but fairly: reward specificity, composure, and defensible positions; punish vagueness, hedging, and factual errors.`

// Report is the terminal critique payload returned to the caller.
type Report struct {
	Analysis   interview.Analysis `json:"analysis"`
	RawMetrics models.RawMetrics  `json:"rawMetrics"`
}

// Archiver receives completed interviews for durable archival. Enqueue must
// not block; archival is best-effort and never surfaces to the caller.
type Archiver interface {
	Enqueue(rec *models.InterviewArchive)
}

type ReportService interface {
	Generate(ctx context.Context, sessionID string, history []models.ChatMessage) (*Report, error)
}

type reportService struct {
	sessions store.SessionStore
	llm      llm.Provider
	locks    *SessionLocks
	metrics  *metrics.InterviewMetrics
	archive  Archiver // nil when no archive database is configured
}

func NewReportService(sessions store.SessionStore, provider llm.Provider, locks *SessionLocks, m *metrics.InterviewMetrics, archive Archiver) ReportService {
	return &reportService{sessions: sessions, llm: provider, locks: locks, metrics: m, archive: archive}
}

func (s *reportService) Generate(ctx context.Context, sessionID string, history []models.ChatMessage) (*Report, error) {
	const op = "ReportService.Generate"

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

	req := llm.Request{
		Messages: []llm.Message{
			{Role: models.RoleSystem, Content: evaluatorInstruction},
			{Role: models.RoleUser, Content: evaluationPrompt(session, history)},
		},
		Temperature: reportTemperature,
		MaxTokens:   reportMaxTokens,
	}

	callCtx, cancel := context.WithTimeout(ctx, reportTimeout)
	defer cancel()

	resp, err := completeWithRetry(callCtx, s.llm, req, s.metrics, "evaluation")
	if err != nil {
		// Transport failure: the session stays so the client can retry.
		s.metrics.ObserveReport("error")
		return nil, utils.E(utils.CodeUpstream, op, "evaluation failed", err)
	}

	// A reply that will not decode into a valid critique is absorbed, never
	// surfaced: the caller always receives a well-formed report.
	analysis, decodeErr := interview.DecodeAnalysis(resp.Content)
	usedFallback := decodeErr != nil
	if usedFallback {
		analysis = interview.FallbackAnalysis()
		s.metrics.ObserveReport("fallback")
	} else {
		s.metrics.ObserveReport("ok")
	}

	raw := summarizeMetrics(session.Metrics)

	// The report consumes the session: once a critique exists the
	// interview is over for good.
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to delete session", err)
	}

	if s.archive != nil {
		s.archive.Enqueue(archiveRecord(session, history, analysis, usedFallback, raw))
	}

	return &Report{Analysis: analysis, RawMetrics: raw}, nil
}

func evaluationPrompt(session *models.Session, history []models.ChatMessage) string {
	var b strings.Builder
	b.WriteString("Interview transcript:\n")
	for _, m := range history {
		if m.Role == models.RoleSystem {
			continue
		}
		speaker := "Candidate"
		if m.Role == models.RoleAssistant {
			speaker = "Interviewer"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, m.Content)
	}
	fmt.Fprintf(&b, "\nQuestions asked: %d\n", session.State.QuestionCount)
	if len(session.State.TopicsCovered) > 0 {
		fmt.Fprintf(&b, "Topics covered: %s\n", strings.Join(session.State.TopicsCovered, ", "))
	}
	fmt.Fprintf(&b, "Recorded answers: %d\n", len(session.Metrics.Responses))
	fmt.Fprintf(&b, "Interruptions by the candidate: %d\n", session.Metrics.Interruptions)
	return b.String()
}

func summarizeMetrics(m models.InterviewMetrics) models.RawMetrics {
	raw := models.RawMetrics{
		TotalResponses:     len(m.Responses),
		TotalInterruptions: m.Interruptions,
	}
	if len(m.Responses) > 0 {
		var total int64
		for _, r := range m.Responses {
			total += r.ResponseTimeMs
		}
		raw.AverageResponseMs = total / int64(len(m.Responses))
	}
	return raw
}

func archiveRecord(session *models.Session, history []models.ChatMessage, analysis interview.Analysis, usedFallback bool, raw models.RawMetrics) *models.InterviewArchive {
	analysisJSON, _ := json.Marshal(analysis)
	transcriptJSON, _ := json.Marshal(history)
	return &models.InterviewArchive{
		ID:             uuid.NewString(),
		SessionID:      session.SessionID,
		Interests:      pq.StringArray(append([]string(nil), session.Interests...)),
		QuestionCount:  session.State.QuestionCount,
		TopicsCovered:  pq.StringArray(append([]string(nil), session.State.TopicsCovered...)),
		Analysis:       datatypes.JSON(analysisJSON),
		UsedFallback:   usedFallback,
		Transcript:     datatypes.JSON(transcriptJSON),
		TotalResponses: raw.TotalResponses,
		Interruptions:  raw.TotalInterruptions,
		StartedAt:      session.CreatedAt,
		ArchivedAt:     time.Now().UTC(),
	}
}
