package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/scraper-service/internal/entity"
	"github.com/user/scraper-service/internal/repository"
)

// ArchiveRepoImpl provides a concrete implementation for the ContentArchive
// interface using PostgreSQL. The scraped content itself is stored as JSONB.
type ArchiveRepoImpl struct {
	db *pgxpool.Pool
}

// NewArchiveRepo creates a new instance of ArchiveRepoImpl.
func NewArchiveRepo(db *pgxpool.Pool) *ArchiveRepoImpl {
	return &ArchiveRepoImpl{db: db}
}

// Save stores or updates the archived content for a URL.
func (r *ArchiveRepoImpl) Save(ctx context.Context, content *entity.ArchivedContent) error {
	payload, err := json.Marshal(content.Content)
	if err != nil {
		return fmt.Errorf("marshal content for %s: %w", content.URL, err)
	}

	query := `
		INSERT INTO scraped_content (url, task_id, content, scraped_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (url) DO UPDATE SET
			task_id = EXCLUDED.task_id,
			content = EXCLUDED.content,
			scraped_at = EXCLUDED.scraped_at;
	`

	_, err = r.db.Exec(ctx, query,
		content.URL,
		content.TaskID,
		payload,
		content.ScrapedAt,
	)
	return err
}

// FindByURL retrieves the archived content for a URL or returns
// repository.ErrContentNotFound.
func (r *ArchiveRepoImpl) FindByURL(ctx context.Context, url string) (*entity.ArchivedContent, error) {
	query := `
		SELECT id, url, task_id, content, scraped_at
		FROM scraped_content
		WHERE url = $1;
	`
	row := r.db.QueryRow(ctx, query, url)

	var content entity.ArchivedContent
	var payload []byte

	err := row.Scan(
		&content.ID,
		&content.URL,
		&content.TaskID,
		&payload,
		&content.ScrapedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrContentNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(payload, &content.Content); err != nil {
		return nil, fmt.Errorf("unmarshal content for %s: %w", url, err)
	}

	return &content, nil
}
