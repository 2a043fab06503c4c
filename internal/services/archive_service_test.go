package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hallatan/mockvox/internal/models"
	"github.com/hallatan/mockvox/internal/utils"
)

type stubArchiveRepo struct {
	rows     []models.InterviewArchive
	gotLimit int
	failWith error
}

func (s *stubArchiveRepo) Insert(_ context.Context, rec *models.InterviewArchive) error {
	s.rows = append(s.rows, *rec)
	return nil
}

func (s *stubArchiveRepo) GetBySessionID(_ context.Context, sessionID string) (*models.InterviewArchive, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	for i := range s.rows {
		if s.rows[i].SessionID == sessionID {
			return &s.rows[i], nil
		}
	}
	return nil, utils.ErrNotFound
}

func (s *stubArchiveRepo) LatestN(_ context.Context, n int) ([]models.InterviewArchive, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	s.gotLimit = n
	if n > len(s.rows) {
		n = len(s.rows)
	}
	return s.rows[:n], nil
}

func TestArchiveService_RecentClampsLimit(t *testing.T) {
	repo := &stubArchiveRepo{rows: []models.InterviewArchive{{SessionID: "a"}, {SessionID: "b"}}}
	svc := NewArchiveService(repo)

	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"zero falls back", 0, 20},
		{"negative falls back", -4, 20},
		{"oversized falls back", 1000, 20},
		{"in range passes through", 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Recent(context.Background(), tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, repo.gotLimit)
		})
	}
}

func TestArchiveService_BySession(t *testing.T) {
	repo := &stubArchiveRepo{rows: []models.InterviewArchive{{SessionID: "done-1", QuestionCount: 70}}}
	svc := NewArchiveService(repo)

	row, err := svc.BySession(context.Background(), "done-1")
	require.NoError(t, err)
	assert.Equal(t, 70, row.QuestionCount)

	_, err = svc.BySession(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	_, err = svc.BySession(context.Background(), "")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestArchiveService_RepoFailureIsInternal(t *testing.T) {
	repo := &stubArchiveRepo{failWith: errors.New("connection refused")}
	svc := NewArchiveService(repo)

	_, err := svc.Recent(context.Background(), 10)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInternal))

	_, err = svc.BySession(context.Background(), "any")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInternal))
}
