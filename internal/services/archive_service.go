package services

import (
	"context"
	"errors"

	"github.com/hallatan/mockvox/internal/models"
	pgrepo "github.com/hallatan/mockvox/internal/repositories/postgres"
	"github.com/hallatan/mockvox/internal/utils"
)

// ArchiveService reads completed interviews back out of the archive
// database. Writes go through the worker pool, not this service.
type ArchiveService interface {
	Recent(ctx context.Context, limit int) ([]models.InterviewArchive, error)
	BySession(ctx context.Context, sessionID string) (*models.InterviewArchive, error)
}

type archiveService struct {
	archives pgrepo.ArchiveRepo
}

func NewArchiveService(archives pgrepo.ArchiveRepo) ArchiveService {
	return &archiveService{archives: archives}
}

func (s *archiveService) Recent(ctx context.Context, limit int) ([]models.InterviewArchive, error) {
	const op = "ArchiveService.Recent"

	if limit <= 0 || limit > 200 {
		limit = 20
	}

	rows, err := s.archives.LatestN(ctx, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list archived interviews", err)
	}
	return rows, nil
}

func (s *archiveService) BySession(ctx context.Context, sessionID string) (*models.InterviewArchive, error) {
	const op = "ArchiveService.BySession"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	row, err := s.archives.GetBySessionID(ctx, sessionID)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeNotFound, op, "no archived interview for this session", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load archived interview", err)
	}
	return row, nil
}
