package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// InterviewArchive is the durable record of a completed interview, written
// after report generation when the archive database is configured. The live
// session itself is gone by then (report generation is a consuming read).
type InterviewArchive struct {
	ID            string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID     string         `gorm:"column:session_id;type:text;index" json:"session_id"`
	Interests     pq.StringArray `gorm:"column:interests;type:text[]" json:"interests"`
	QuestionCount int            `gorm:"column:question_count" json:"question_count"`
	TopicsCovered pq.StringArray `gorm:"column:topics_covered;type:text[]" json:"topics_covered"`

	// Analysis holds the critique JSON exactly as returned to the caller;
	// UsedFallback records whether it is the fixed rubric.
	Analysis     datatypes.JSON `gorm:"column:analysis;type:jsonb" json:"analysis"`
	UsedFallback bool           `gorm:"column:used_fallback" json:"used_fallback"`

	Transcript     datatypes.JSON `gorm:"column:transcript;type:jsonb" json:"transcript"`
	TotalResponses int            `gorm:"column:total_responses" json:"total_responses"`
	Interruptions  int            `gorm:"column:interruptions" json:"interruptions"`

	StartedAt  time.Time `gorm:"column:started_at;type:timestamptz" json:"started_at"`
	ArchivedAt time.Time `gorm:"column:archived_at;type:timestamptz;index" json:"archived_at"`
}

func (InterviewArchive) TableName() string { return "interview_archives" }
