package post

import (
	"context"
	"errors"
	"time"

	"blogd/internal/jobs"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("post not found")
var ErrNotOwner = errors.New("not the post owner")

type Service struct {
	DB *gorm.DB
}

type CreateInput struct {
	Content  string
	Filename *string
	Filelink *string
	Pubdate  *time.Time
}

type UpdateInput struct {
	Content  *string
	Filename *string
	Filelink *string
	Pubdate  *time.Time
	// ClearPubdate drops the schedule entirely; the post becomes visible
	// immediately and permanently. Mutually exclusive with Pubdate.
	ClearPubdate bool
}

// ListPublic returns every post visible at now, owner resolved. tag, when
// non-empty, narrows the result to posts carrying that hashtag.
func (s *Service) ListPublic(ctx context.Context, now time.Time, tag string) ([]Post, error) {
	q := s.DB.WithContext(ctx).
		Preload("Owner").
		Where("pubdate IS NULL OR pubdate <= ?", now)
	if tag != "" {
		q = q.Where("? = any(tags)", tag)
	}

	var out []Post
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListDeferred returns the caller's own posts scheduled after now.
func (s *Service) ListDeferred(ctx context.Context, ownerID string, now time.Time) ([]Post, error) {
	var out []Post
	err := s.DB.WithContext(ctx).
		Preload("Owner").
		Where("owner_id = ? AND pubdate > ?", ownerID, now).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*Post, error) {
	p := Post{
		Content: in.Content,
		OwnerID: ownerID,
		Pubdate: in.Pubdate,
		Tags:    pq.StringArray(ExtractTags(in.Content)),
	}
	if in.Filename != nil {
		p.Filename = *in.Filename
	}
	if in.Filelink != nil {
		p.Filelink = *in.Filelink
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		if p.DeferredAt(time.Now()) {
			return enqueuePublish(tx, &p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, p.ID)
}

// Update applies only the supplied fields. Ownership is re-checked by the
// conditional WHERE on the mutation itself, so a post deleted or reassigned
// after the initial fetch cannot be written through a stale check.
func (s *Service) Update(ctx context.Context, callerID, postID string, in UpdateInput) (*Post, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Post
		if err := tx.Where("id = ?", postID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if p.OwnerID != callerID {
			return ErrNotOwner
		}

		updates := map[string]any{"updated_at": time.Now()}
		if in.Content != nil {
			updates["content"] = *in.Content
			updates["tags"] = pq.StringArray(ExtractTags(*in.Content))
		}
		if in.Filename != nil {
			updates["filename"] = *in.Filename
		}
		if in.Filelink != nil {
			updates["filelink"] = *in.Filelink
		}
		if in.Pubdate != nil {
			updates["pubdate"] = *in.Pubdate
		} else if in.ClearPubdate {
			updates["pubdate"] = nil
		}

		res := tx.Model(&Post{}).
			Where("id = ? AND owner_id = ?", postID, callerID).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return classifyMiss(tx, postID)
		}

		if in.Pubdate != nil || in.ClearPubdate {
			if err := dropPendingPublish(tx, postID); err != nil {
				return err
			}
			if in.Pubdate != nil && in.Pubdate.After(time.Now()) {
				return enqueuePublish(tx, &Post{ID: postID, OwnerID: callerID, Pubdate: in.Pubdate})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, postID)
}

func (s *Service) Remove(ctx context.Context, callerID, postID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Post
		if err := tx.Where("id = ?", postID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if p.OwnerID != callerID {
			return ErrNotOwner
		}

		res := tx.Where("id = ? AND owner_id = ?", postID, callerID).Delete(&Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return classifyMiss(tx, postID)
		}

		return dropPendingPublish(tx, postID)
	})
}

func (s *Service) reload(ctx context.Context, id string) (*Post, error) {
	var p Post
	if err := s.DB.WithContext(ctx).Preload("Owner").Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// classifyMiss explains a zero-row conditional mutation against current
// stored state: the post is either gone or owned by someone else.
func classifyMiss(tx *gorm.DB, postID string) error {
	var p Post
	if err := tx.Where("id = ?", postID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return ErrNotOwner
}

func enqueuePublish(tx *gorm.DB, p *Post) error {
	j := jobs.NewPublishJob(p.ID, p.OwnerID, *p.Pubdate)
	return tx.Create(&j).Error
}

func dropPendingPublish(tx *gorm.DB, postID string) error {
	return tx.Exec(`
delete from jobs
where type = ?
  and status = 'PENDING'
  and post_id = ?
`, jobs.TypePostPublish, postID).Error
}
