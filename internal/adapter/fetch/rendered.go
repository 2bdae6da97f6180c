package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/user/scraper-service/internal/entity"
	"github.com/user/scraper-service/internal/repository"
)

// RenderedFetcher retrieves pages through headless Chrome so that page
// scripts run before the DOM is captured.
type RenderedFetcher struct {
	allocatorPool  *sync.Pool
	defaultTimeout time.Duration
}

// NewRenderedFetcher creates a fetcher backed by a pool of chromedp
// allocator contexts, pre-warmed to maxConcurrency entries.
func NewRenderedFetcher(maxConcurrency int, defaultTimeout time.Duration) *RenderedFetcher {
	pool := &sync.Pool{
		New: func() interface{} {
			opts := append(chromedp.DefaultExecAllocatorOptions[:],
				chromedp.Flag("headless", true),
				chromedp.Flag("disable-gpu", true),
				chromedp.Flag("no-sandbox", true),
				chromedp.Flag("disable-dev-shm-usage", true),
			)
			allocCtx, _ := chromedp.NewExecAllocator(context.Background(), opts...)
			return allocCtx
		},
	}

	// Pre-warm the pool
	for i := 0; i < maxConcurrency; i++ {
		allocCtx := pool.Get().(context.Context)
		pool.Put(allocCtx)
	}

	return &RenderedFetcher{
		allocatorPool:  pool,
		defaultTimeout: defaultTimeout,
	}
}

// Fetch navigates to the URL, waits for the body to become visible and
// returns the rendered document's outer HTML.
func (f *RenderedFetcher) Fetch(ctx context.Context, rawURL string, opts entity.FetchOptions) (string, error) {
	allocCtx := f.allocatorPool.Get().(context.Context)
	defer f.allocatorPool.Put(allocCtx)

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = f.defaultTimeout
	}
	taskCtx, cancel = context.WithTimeout(taskCtx, timeout)
	defer cancel()

	headers := network.Headers{}
	if opts.UserAgent != "" {
		headers["User-Agent"] = opts.UserAgent
	}
	for key, value := range opts.Headers {
		headers[key] = value
	}

	actions := []chromedp.Action{network.Enable()}
	if len(headers) > 0 {
		actions = append(actions, network.SetExtraHTTPHeaders(headers))
	}
	var htmlContent string
	actions = append(actions,
		chromedp.Navigate(rawURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &htmlContent),
	)

	if err := chromedp.Run(taskCtx, actions...); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: render %s: %v", repository.ErrFetchTimeout, rawURL, err)
		}
		return "", fmt.Errorf("%w: render %s: %v", repository.ErrFetchNetwork, rawURL, err)
	}

	return htmlContent, nil
}
