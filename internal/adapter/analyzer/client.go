// Package analyzer is the HTTP client for the external page-analysis
// service that proposes extraction rules for a page.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/user/scraper-service/internal/entity"
	"github.com/user/scraper-service/internal/repository"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the analysis service over HTTP. All failures wrap
// repository.ErrAnalysisFailed.
type Client struct {
	baseURL string
	client  HTTPClient
}

// NewClient creates an analyzer client. A nil httpClient falls back to a
// default http.Client.
func NewClient(baseURL string, httpClient HTTPClient) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: baseURL, client: httpClient}
}

type analyzeRequest struct {
	URL    string   `json:"url"`
	Fields []string `json:"fields"`
}

type analyzeResponse struct {
	Rules      map[string]ruleDTO `json:"rules"`
	RequiresJS bool               `json:"requires_javascript"`
}

type ruleDTO struct {
	Selector     string `json:"selector"`
	SelectorType string `json:"selector_type"`
	Attribute    string `json:"attribute,omitempty"`
	PostProcess  string `json:"post_process,omitempty"`
}

// Analyze asks the service to propose extraction rules for the page.
func (c *Client) Analyze(ctx context.Context, url string, fields []string) (*entity.PageAnalysis, error) {
	payload, err := json.Marshal(analyzeRequest{URL: url, Fields: fields})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", repository.ErrAnalysisFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", repository.ErrAnalysisFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: call analysis service: %v", repository.ErrAnalysisFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: analysis service returned status %d", repository.ErrAnalysisFailed, resp.StatusCode)
	}

	var decoded analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", repository.ErrAnalysisFailed, err)
	}

	analysis := &entity.PageAnalysis{
		Rules:      make(map[string]entity.ExtractionRule, len(decoded.Rules)),
		RequiresJS: decoded.RequiresJS,
	}
	for field, rule := range decoded.Rules {
		kind := entity.SelectorKind(rule.SelectorType)
		if kind != entity.SelectorCSS && kind != entity.SelectorXPath {
			return nil, fmt.Errorf("%w: field %s has unknown selector type %q", repository.ErrAnalysisFailed, field, rule.SelectorType)
		}
		analysis.Rules[field] = entity.ExtractionRule{
			SelectorKind: kind,
			Selector:     rule.Selector,
			Attribute:    rule.Attribute,
			PostProcess:  rule.PostProcess,
		}
	}
	return analysis, nil
}
