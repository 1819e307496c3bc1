package jobs

import "time"

const TypePostPublish = "POST_PUBLISH"

type Job struct {
	ID      uint64 `gorm:"primaryKey"`
	OwnerID string `gorm:"size:24;index;not null"`
	PostID  string `gorm:"size:24;index;not null"`

	Type string `gorm:"type:text;not null"` // POST_PUBLISH

	RunAt  time.Time `gorm:"index;not null"`
	Status string    `gorm:"index;not null;default:'PENDING'"` // PENDING/RUNNING/DONE/FAILED/CANCELLED

	Attempts    int `gorm:"not null;default:0"`
	MaxAttempts int `gorm:"not null;default:8"`

	LockedBy *string    `gorm:"type:text"`
	LockedAt *time.Time `gorm:"type:timestamptz"`

	LastError *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// NewPublishJob schedules the announcement of a post going live at runAt,
// its pubdate.
func NewPublishJob(postID, ownerID string, runAt time.Time) Job {
	return Job{
		OwnerID: ownerID,
		PostID:  postID,
		Type:    TypePostPublish,
		RunAt:   runAt,
		Status:  "PENDING",
	}
}
