package repository

import (
	"context"

	"github.com/user/scraper-service/internal/entity"
)

// ContentArchive stores the latest successfully scraped content per URL.
type ContentArchive interface {
	// Save stores the content for a URL, replacing any previous row.
	Save(ctx context.Context, content *entity.ArchivedContent) error
	// FindByURL returns the archived content or ErrContentNotFound.
	FindByURL(ctx context.Context, url string) (*entity.ArchivedContent, error)
}
