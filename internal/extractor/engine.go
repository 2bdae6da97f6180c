// Package extractor applies a domain recipe to an HTML document, producing
// structured content and media lists. It is pure: no network or storage
// access, and identical inputs always yield identical output.
package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/user/scraper-service/internal/entity"
)

// Outcome classifies an extraction result for the pipeline's
// regenerate-and-retry decision.
type Outcome string

const (
	// OutcomeComplete means the recipe produced usable content.
	OutcomeComplete Outcome = "complete"
	// OutcomePartial means title or content came back empty.
	OutcomePartial Outcome = "partial"
	// OutcomeEmpty means every field rule matched nothing; the recipe is
	// likely stale.
	OutcomeEmpty Outcome = "empty"
)

// Result holds the extracted content plus per-field warnings. A
// partially-wrong recipe degrades field by field instead of failing the
// whole extraction.
type Result struct {
	Content  entity.ScrapedContent
	Warnings []string
	Outcome  Outcome
}

// Degraded reports whether the result should trigger recipe regeneration.
func (r *Result) Degraded() bool {
	return r.Outcome != OutcomeComplete
}

// Engine applies extraction rules via goquery (CSS) and htmlquery (XPath)
// over a shared parse of the document.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

// document wraps one parse of the page, shared by both selector engines.
type document struct {
	root *html.Node
	doc  *goquery.Document
}

// Extract applies the recipe to the HTML source. A selector that matches
// nothing leaves its field absent and records a warning; a malformed rule
// degrades only that field.
func (e *Engine) Extract(htmlSrc string, recipe *entity.Recipe) *Result {
	res := &Result{
		Content: entity.ScrapedContent{
			Categories: []string{},
			MediaFiles: entity.NewMediaFiles(),
		},
	}

	root, err := html.Parse(strings.NewReader(htmlSrc))
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("parse document: %v", err))
		res.Outcome = OutcomeEmpty
		return res
	}
	doc := &document{root: root, doc: goquery.NewDocumentFromNode(root)}

	extracted := 0
	for field, rule := range recipe.Fields {
		if field == entity.FieldCategories {
			values, warn := e.extractAll(doc, rule)
			if warn != "" {
				res.Warnings = append(res.Warnings, fmt.Sprintf("field %s: %s", field, warn))
				continue
			}
			if len(values) == 0 {
				res.Warnings = append(res.Warnings, fmt.Sprintf("field %s: selector matched no nodes", field))
				continue
			}
			res.Content.Categories = values
			extracted++
			continue
		}

		value, ok, warn := e.extractFirst(doc, rule)
		if warn != "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("field %s: %s", field, warn))
			continue
		}
		if !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("field %s: selector matched no nodes", field))
			continue
		}
		res.setField(field, value)
		extracted++
	}

	media := map[string]entity.ExtractionRule{
		entity.MediaImages: recipe.Media.Images,
		entity.MediaVideos: recipe.Media.Videos,
		entity.MediaEmbeds: recipe.Media.Embeds,
	}
	for category, rule := range media {
		if rule.IsZero() {
			// Explicit no-op rule: the category stays present and empty.
			continue
		}
		urls, warn := e.extractMedia(doc, rule)
		if warn != "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("media %s: %s", category, warn))
			continue
		}
		res.Content.MediaFiles[category] = urls
	}

	res.Outcome = classify(&res.Content, extracted)
	return res
}

func (r *Result) setField(field, value string) {
	switch field {
	case entity.FieldTitle:
		r.Content.Title = value
	case entity.FieldContent:
		r.Content.Content = value
	case entity.FieldAuthor:
		r.Content.Author = value
	case entity.FieldPublishDate:
		r.Content.PublishDate = value
	case entity.FieldLanguage:
		r.Content.Language = value
	default:
		r.Warnings = append(r.Warnings, fmt.Sprintf("field %s: unknown logical field, value dropped", field))
	}
}

func classify(content *entity.ScrapedContent, extracted int) Outcome {
	if extracted == 0 {
		return OutcomeEmpty
	}
	if content.Title == "" || content.Content == "" {
		return OutcomePartial
	}
	return OutcomeComplete
}

// extractFirst reads the value of the first node matching the rule: the
// named attribute when set, otherwise the node's normalized text.
func (e *Engine) extractFirst(d *document, rule entity.ExtractionRule) (value string, ok bool, warn string) {
	nodes, warn := e.selectNodes(d, rule)
	if warn != "" || len(nodes) == 0 {
		return "", false, warn
	}
	value, ok = nodeValue(nodes[0], rule.Attribute)
	if !ok {
		return "", false, fmt.Sprintf("attribute %q missing on matched node", rule.Attribute)
	}
	return applyPostProcess(value, rule.PostProcess)
}

// extractAll reads the value of every matching node, in document order,
// skipping nodes without the requested attribute.
func (e *Engine) extractAll(d *document, rule entity.ExtractionRule) (values []string, warn string) {
	nodes, warn := e.selectNodes(d, rule)
	if warn != "" {
		return nil, warn
	}
	values = []string{}
	for _, node := range nodes {
		value, ok := nodeValue(node, rule.Attribute)
		if !ok {
			continue
		}
		value, ok, warn = applyPostProcess(value, rule.PostProcess)
		if warn != "" {
			return nil, warn
		}
		if ok {
			values = append(values, value)
		}
	}
	return values, ""
}

// extractMedia collects attribute values from every matching node in
// document order. Nodes lacking the attribute are skipped; duplicates are
// kept.
func (e *Engine) extractMedia(d *document, rule entity.ExtractionRule) (urls []string, warn string) {
	nodes, warn := e.selectNodes(d, rule)
	if warn != "" {
		return nil, warn
	}
	urls = []string{}
	for _, node := range nodes {
		value, ok := nodeValue(node, rule.Attribute)
		if ok && value != "" {
			urls = append(urls, value)
		}
	}
	return urls, ""
}

func (e *Engine) selectNodes(d *document, rule entity.ExtractionRule) ([]*html.Node, string) {
	if rule.Selector == "" {
		return nil, "empty selector"
	}
	switch rule.SelectorKind {
	case entity.SelectorCSS:
		var nodes []*html.Node
		d.doc.Find(rule.Selector).Each(func(_ int, s *goquery.Selection) {
			nodes = append(nodes, s.Nodes...)
		})
		return nodes, ""
	case entity.SelectorXPath:
		nodes, err := htmlquery.QueryAll(d.root, rule.Selector)
		if err != nil {
			return nil, fmt.Sprintf("xpath query failed: %v", err)
		}
		return nodes, ""
	default:
		return nil, fmt.Sprintf("unknown selector kind %q", rule.SelectorKind)
	}
}

// nodeValue reads the attribute when requested, otherwise the node's
// normalized text. Returns ok=false when the attribute is missing.
func nodeValue(node *html.Node, attribute string) (string, bool) {
	if attribute != "" {
		for _, attr := range node.Attr {
			if attr.Key == attribute {
				return attr.Val, true
			}
		}
		return "", false
	}
	return normalizeWhitespace(htmlquery.InnerText(node)), true
}

// normalizeWhitespace collapses runs of whitespace to single spaces and
// trims the ends.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func applyPostProcess(value, postProcess string) (string, bool, string) {
	switch postProcess {
	case "":
		return value, true, ""
	case entity.PostProcessStrip:
		return strings.TrimSpace(value), true, ""
	case entity.PostProcessLowercase:
		return strings.ToLower(value), true, ""
	case entity.PostProcessUppercase:
		return strings.ToUpper(value), true, ""
	default:
		return "", false, fmt.Sprintf("unknown post-process %q", postProcess)
	}
}
