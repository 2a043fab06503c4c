package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/hallatan/mockvox/internal/models"
	"github.com/hallatan/mockvox/internal/utils"
)

type ArchiveRepo interface {
	Insert(ctx context.Context, rec *models.InterviewArchive) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.InterviewArchive, error)
	LatestN(ctx context.Context, n int) ([]models.InterviewArchive, error)
}

type archiveRepo struct {
	db *gorm.DB
}

func NewArchiveRepo(db *gorm.DB) ArchiveRepo {
	return &archiveRepo{db: db}
}

func (r *archiveRepo) Insert(ctx context.Context, rec *models.InterviewArchive) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *archiveRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.InterviewArchive, error) {
	var row models.InterviewArchive
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *archiveRepo) LatestN(ctx context.Context, n int) ([]models.InterviewArchive, error) {
	if n <= 0 {
		n = 20
	}
	var rows []models.InterviewArchive
	err := r.db.WithContext(ctx).
		Order("archived_at DESC").
		Limit(n).
		Find(&rows).Error
	return rows, err
}
