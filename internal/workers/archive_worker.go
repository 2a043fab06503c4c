package workers

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hallatan/mockvox/internal/models"
	pgrepo "github.com/hallatan/mockvox/internal/repositories/postgres"
)

// ArchiveWorkerPool drains completed interviews into the archive database.
// Enqueue never blocks the report path: when the queue is full the record is
// dropped with a log line, never an error to the caller.
type ArchiveWorkerPool struct {
	Archive    pgrepo.ArchiveRepo
	NumWorkers int
	QueueSize  int

	InsertTimeout time.Duration

	Logger *logrus.Logger

	queue chan *models.InterviewArchive
}

func (p *ArchiveWorkerPool) Start(ctx context.Context) error {
	if p.Archive == nil {
		return errors.New("ArchiveWorkerPool missing dependency: Archive must be set")
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.QueueSize <= 0 {
		p.QueueSize = 64
	}
	if p.InsertTimeout <= 0 {
		p.InsertTimeout = 10 * time.Second
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}
	p.queue = make(chan *models.InterviewArchive, p.QueueSize)

	for i := 0; i < p.NumWorkers; i++ {
		go p.runWorker(ctx)
	}
	return nil
}

// Enqueue hands a record to the pool without blocking.
func (p *ArchiveWorkerPool) Enqueue(rec *models.InterviewArchive) {
	if p.queue == nil {
		return
	}
	select {
	case p.queue <- rec:
	default:
		p.Logger.WithField("session_id", rec.SessionID).Warn("archive queue full, record dropped")
	}
}

func (p *ArchiveWorkerPool) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec := <-p.queue:
			p.insert(ctx, rec)
		}
	}
}

func (p *ArchiveWorkerPool) insert(ctx context.Context, rec *models.InterviewArchive) {
	insertCtx, cancel := context.WithTimeout(ctx, p.InsertTimeout)
	defer cancel()

	if err := p.Archive.Insert(insertCtx, rec); err != nil {
		p.Logger.WithError(err).WithField("session_id", rec.SessionID).Error("archive insert failed")
		return
	}
	p.Logger.WithFields(logrus.Fields{
		"session_id": rec.SessionID,
		"questions":  rec.QuestionCount,
	}).Info("interview archived")
}
