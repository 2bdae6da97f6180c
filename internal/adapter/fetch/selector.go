package fetch

import (
	"context"

	"github.com/user/scraper-service/internal/entity"
	"github.com/user/scraper-service/internal/repository"
)

// Selector dispatches a fetch to the static or rendered backend based on
// the recipe's fetch mode. It is the single PageFetcher the pipeline sees.
type Selector struct {
	static   repository.PageFetcher
	rendered repository.PageFetcher
}

func NewSelector(static, rendered repository.PageFetcher) *Selector {
	return &Selector{static: static, rendered: rendered}
}

func (s *Selector) Fetch(ctx context.Context, url string, opts entity.FetchOptions) (string, error) {
	if opts.Mode == entity.FetchRendered {
		return s.rendered.Fetch(ctx, url, opts)
	}
	return s.static.Fetch(ctx, url, opts)
}
