package db

import (
	"fmt"

	"blogd/internal/auth"
	"blogd/internal/jobs"
	"blogd/internal/post"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the store. TranslateError turns driver unique-violation
// errors into gorm.ErrDuplicatedKey so callers can classify them as
// conflicts.
func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&auth.User{},
		&post.Post{},
		&jobs.Job{},
	); err != nil {
		return err
	}

	// Tag filter on the public listing (GIN for text[])
	if err := gdb.Exec(`create index if not exists idx_posts_tags on posts using gin (tags);`).Error; err != nil {
		return err
	}

	// Helpful indexes
	stmts := []string{
		`create index if not exists idx_posts_owner_pubdate on posts(owner_id, pubdate);`,
		`create index if not exists idx_jobs_due on jobs(status, run_at);`,
		`create index if not exists idx_jobs_lock on jobs(status, locked_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
