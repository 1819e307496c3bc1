package jobs

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Worker announces scheduled posts as they go live. It polls the jobs table
// and claims one due job at a time; multiple workers would not double-claim.
type Worker struct {
	ID   string
	Repo *Repo
	DB   *gorm.DB
}

type postRow struct {
	ID      string     `gorm:"column:id"`
	OwnerID string     `gorm:"column:owner_id"`
	Content string     `gorm:"column:content"`
	Pubdate *time.Time `gorm:"column:pubdate"`
}

func (postRow) TableName() string { return "posts" }

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(800 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := w.Repo.Claim(w.ID)
			if err != nil {
				log.Error().Err(err).Str("worker", w.ID).Msg("job claim failed")
				continue
			}
			if job == nil {
				continue
			}
			w.handle(job)
		}
	}
}

func (w *Worker) handle(job *Job) {
	switch job.Type {
	case TypePostPublish:
		w.handlePublish(job)
	default:
		_ = w.Repo.MarkFailed(job.ID, "unknown job type")
	}
}

func (w *Worker) handlePublish(job *Job) {
	var row postRow
	if err := w.DB.
		Where("id = ? AND owner_id = ?", job.PostID, job.OwnerID).
		First(&row).Error; err != nil {

		if err == gorm.ErrRecordNotFound {
			// post deleted before its pubdate
			_ = w.Repo.MarkDone(job.ID)
			return
		}
		w.retry(job, "db read error")
		return
	}

	if row.Pubdate == nil || row.Pubdate.After(time.Now()) {
		// rescheduled or made immediately visible after this job was queued
		_ = w.Repo.MarkDone(job.ID)
		return
	}

	log.Info().
		Str("owner", row.OwnerID).
		Str("post", row.ID).
		Time("pubdate", *row.Pubdate).
		Msg("scheduled post is now public")
	_ = w.Repo.MarkDone(job.ID)
}

func (w *Worker) retry(job *Job, errMsg string) {
	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		_ = w.Repo.MarkFailed(job.ID, errMsg)
		return
	}

	next := time.Now().Add(Backoff(attempts))
	_ = w.Repo.RetryLater(job.ID, attempts, next, errMsg)
}

// Backoff returns the delay before retry n, doubling per attempt and capped
// at ten minutes.
func Backoff(attempts int) time.Duration {
	sec := math.Min(math.Pow(2, float64(attempts)), 600)
	return time.Duration(sec) * time.Second
}
