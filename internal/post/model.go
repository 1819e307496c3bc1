package post

import (
	"time"

	"blogd/internal/auth"
	"blogd/internal/ident"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Post is owned by exactly one user, set at creation and never reassigned.
// A nil Pubdate means the post is visible immediately and permanently.
type Post struct {
	ID       string     `gorm:"primaryKey;size:24"`
	Content  string     `gorm:"type:text;not null"`
	Filename string     `gorm:"type:text"`
	Filelink string     `gorm:"type:text"`
	Pubdate  *time.Time `gorm:"type:timestamptz;index"`

	OwnerID string    `gorm:"size:24;index;not null"`
	Owner   auth.User `gorm:"foreignKey:OwnerID"`

	Tags pq.StringArray `gorm:"type:text[];not null;default:'{}'"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = ident.New()
	}
	return nil
}

// PublicAt reports whether the post is visible to everyone at now.
func (p *Post) PublicAt(now time.Time) bool {
	return p.Pubdate == nil || !p.Pubdate.After(now)
}

// DeferredAt reports whether the post is still scheduled at now. A deferred
// post is visible only to its owner.
func (p *Post) DeferredAt(now time.Time) bool {
	return p.Pubdate != nil && p.Pubdate.After(now)
}
