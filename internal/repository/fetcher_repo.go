package repository

import (
	"context"

	"github.com/user/scraper-service/internal/entity"
)

// PageFetcher obtains raw HTML for a URL. Implementations classify
// failures as ErrFetchTimeout, ErrFetchNetwork or *HTTPStatusError so the
// pipeline can count them toward the retry budget.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, opts entity.FetchOptions) (string, error)
}
