package entity

import "time"

// SelectorKind distinguishes the selector engines a rule can target.
type SelectorKind string

const (
	SelectorCSS   SelectorKind = "css"
	SelectorXPath SelectorKind = "xpath"
)

// FetchMode decides how the page HTML is obtained.
type FetchMode string

const (
	// FetchStatic retrieves the page with a plain HTTP request.
	FetchStatic FetchMode = "static"
	// FetchRendered retrieves the page through the headless browser,
	// executing page scripts first.
	FetchRendered FetchMode = "rendered"
)

// Post-processing steps a rule may apply to an extracted string. Unknown
// values are a configuration error and degrade the field, never crash.
const (
	PostProcessStrip     = "strip"
	PostProcessLowercase = "lowercase"
	PostProcessUppercase = "uppercase"
)

// Bounds for recipe tunables.
const (
	MinTimeoutSeconds = 1
	MaxTimeoutSeconds = 300
	MinRetryCount     = 1
	MaxRetryCount     = 5

	DefaultTimeoutSeconds = 30
	DefaultRetryCount     = 3
)

// ExtractionRule selects content from a document. If Attribute is empty the
// normalized text of the matched node is used instead.
type ExtractionRule struct {
	SelectorKind SelectorKind
	Selector     string
	Attribute    string
	PostProcess  string
}

// IsZero reports whether the rule is a no-op placeholder.
func (r ExtractionRule) IsZero() bool {
	return r.Selector == ""
}

// MediaRules holds the three media extraction rules every recipe carries.
// A rule may be a no-op (empty selector) but the key is always present.
type MediaRules struct {
	Images ExtractionRule
	Videos ExtractionRule
	Embeds ExtractionRule
}

// Recipe is the per-domain extraction configuration. It is created by the
// recipe generator, persisted by the recipe store, and treated as read-only
// during a scrape attempt; request overrides are applied to a copy.
type Recipe struct {
	Domain         string
	FetchMode      FetchMode
	TimeoutSeconds int
	RetryCount     int
	UserAgent      string
	Proxy          string
	Fields         map[string]ExtractionRule
	Media          MediaRules
}

// Clone returns a deep copy of the recipe.
func (r *Recipe) Clone() *Recipe {
	clone := *r
	clone.Fields = make(map[string]ExtractionRule, len(r.Fields))
	for name, rule := range r.Fields {
		clone.Fields[name] = rule
	}
	return &clone
}

// WithTimeout returns a copy with the request override applied. A
// non-positive timeout leaves the recipe's own value in place; the result
// is always clamped to the allowed range.
func (r *Recipe) WithTimeout(timeoutSeconds int) *Recipe {
	clone := r.Clone()
	if timeoutSeconds > 0 {
		clone.TimeoutSeconds = timeoutSeconds
	}
	clone.TimeoutSeconds = clampInt(clone.TimeoutSeconds, MinTimeoutSeconds, MaxTimeoutSeconds)
	return clone
}

// Normalize fills zero-valued tunables with defaults and clamps the rest.
func (r *Recipe) Normalize() {
	if r.FetchMode == "" {
		r.FetchMode = FetchStatic
	}
	if r.TimeoutSeconds == 0 {
		r.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if r.RetryCount == 0 {
		r.RetryCount = DefaultRetryCount
	}
	r.TimeoutSeconds = clampInt(r.TimeoutSeconds, MinTimeoutSeconds, MaxTimeoutSeconds)
	r.RetryCount = clampInt(r.RetryCount, MinRetryCount, MaxRetryCount)
	if r.Fields == nil {
		r.Fields = make(map[string]ExtractionRule)
	}
}

// Timeout is the recipe timeout as a duration.
func (r *Recipe) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// FetchOptions builds the fetch parameters for this recipe, merging in
// request-specific headers.
func (r *Recipe) FetchOptions(extraHeaders map[string]string) FetchOptions {
	headers := make(map[string]string, len(extraHeaders))
	for k, v := range extraHeaders {
		headers[k] = v
	}
	return FetchOptions{
		Mode:      r.FetchMode,
		Headers:   headers,
		UserAgent: r.UserAgent,
		Proxy:     r.Proxy,
		Timeout:   r.Timeout(),
	}
}

// FetchOptions carries everything a page fetcher needs for one request.
type FetchOptions struct {
	Mode      FetchMode
	Headers   map[string]string
	UserAgent string
	Proxy     string
	Timeout   time.Duration
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
