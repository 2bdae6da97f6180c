package repository

import (
	"context"

	"github.com/user/scraper-service/internal/entity"
)

// PageAnalyzer is the external page-analysis capability used to derive
// extraction rules for a domain. Failures surface as errors wrapping
// ErrAnalysisFailed.
type PageAnalyzer interface {
	// Analyze inspects the page at url and proposes one extraction rule
	// per requested field name.
	Analyze(ctx context.Context, url string, fields []string) (*entity.PageAnalysis, error)
}
