package entity

// PageAnalysis is the converted response of the external page-analysis
// capability: one candidate rule per requested field or media category,
// plus a hint whether the page needs script execution to render.
type PageAnalysis struct {
	Rules      map[string]ExtractionRule
	RequiresJS bool
}
