// Package fetch provides the page fetcher implementations: a plain HTTP
// fetcher for static pages and a chromedp-backed fetcher for pages that
// need script execution.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/user/scraper-service/internal/entity"
	"github.com/user/scraper-service/internal/repository"
)

// DefaultUserAgent is sent when a recipe carries no user agent of its own.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ScraperBot/1.0)"

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StaticFetcher retrieves pages with a plain HTTP GET.
type StaticFetcher struct {
	client HTTPClient
}

// NewStaticFetcher creates a StaticFetcher. A nil client falls back to a
// default http.Client; requests carry their own timeout via context.
func NewStaticFetcher(client HTTPClient) *StaticFetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &StaticFetcher{client: client}
}

// Fetch retrieves the raw HTML at rawURL. Failures are classified as
// repository.ErrFetchTimeout, *repository.HTTPStatusError or
// repository.ErrFetchNetwork.
func (f *StaticFetcher) Fetch(ctx context.Context, rawURL string, opts entity.FetchOptions) (string, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request for %s: %w", rawURL, err)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	client, err := f.clientFor(opts.Proxy)
	if err != nil {
		return "", fmt.Errorf("%w: %v", repository.ErrFetchNetwork, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &repository.HTTPStatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransportError(err)
	}
	return string(body), nil
}

// clientFor returns the configured client, or a proxied one when the
// recipe asks for it.
func (f *StaticFetcher) clientFor(proxy string) (HTTPClient, error) {
	if proxy == "" {
		return f.client, nil
	}
	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("parse proxy %q: %w", proxy, err)
	}
	return &http.Client{
		Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
	}, nil
}

func classifyTransportError(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", repository.ErrFetchTimeout, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %v", repository.ErrFetchTimeout, err)
	default:
		return fmt.Errorf("%w: %v", repository.ErrFetchNetwork, err)
	}
}
