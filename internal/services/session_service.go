package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hallatan/mockvox/internal/interview"
	"github.com/hallatan/mockvox/internal/models"
	"github.com/hallatan/mockvox/internal/observability/metrics"
	"github.com/hallatan/mockvox/internal/store"
	"github.com/hallatan/mockvox/internal/utils"
)

const sessionInterests = 2

type SessionService interface {
	Init(ctx context.Context) (*models.Session, error)
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	Track(ctx context.Context, sessionID string, metric models.TurnMetric, interruption bool) error
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]models.Session, error)
}

type sessionService struct {
	sessions store.SessionStore
	locks    *SessionLocks
	backend  string
	metrics  *metrics.InterviewMetrics
}

func NewSessionService(sessions store.SessionStore, locks *SessionLocks, backend string, m *metrics.InterviewMetrics) SessionService {
	return &sessionService{sessions: sessions, locks: locks, backend: backend, metrics: m}
}

func (s *sessionService) Init(ctx context.Context) (*models.Session, error) {
	const op = "SessionService.Init"

	session := &models.Session{
		SessionID: uuid.NewString(),
		Interests: interview.DrawInterests(sessionInterests),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}
	s.metrics.ObserveSessionStarted(s.backend)
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	const op = "SessionService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "sessionId is required", nil)
	}

	out, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	return out, nil
}

func (s *sessionService) Track(ctx context.Context, sessionID string, metric models.TurnMetric, interruption bool) error {
	const op = "SessionService.Track"

	if sessionID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "sessionId is required", nil)
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to get session", err)
	}

	if metric.RecordedAt.IsZero() {
		metric.RecordedAt = time.Now().UTC()
	}
	session.Metrics.Responses = append(session.Metrics.Responses, metric)
	if interruption {
		session.Metrics.Interruptions++
	}

	if err := s.sessions.Put(ctx, session); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to save session", err)
	}
	return nil
}

// Delete abandons a session. Deleting an id with no live state succeeds;
// the caller cannot tell an expired session from one never created, and
// abandonment must work for both.
func (s *sessionService) Delete(ctx context.Context, sessionID string) error {
	const op = "SessionService.Delete"

	if sessionID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "sessionId is required", nil)
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete session", err)
	}
	return nil
}

func (s *sessionService) List(ctx context.Context) ([]models.Session, error) {
	const op = "SessionService.List"

	ids, err := s.sessions.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list sessions", err)
	}

	out := make([]models.Session, 0, len(ids))
	for _, id := range ids {
		session, err := s.sessions.Get(ctx, id)
		if err != nil {
			// Expiry between List and Get; skip.
			if errors.Is(err, utils.ErrNotFound) {
				continue
			}
			return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
		}
		out = append(out, *session)
	}
	return out, nil
}
