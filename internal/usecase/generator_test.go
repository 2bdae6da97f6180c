package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/user/scraper-service/internal/entity"
	"github.com/user/scraper-service/internal/repository"
)

func TestGeneratorBuildsAndPersistsRecipe(t *testing.T) {
	analyzer := &mockAnalyzer{analysis: &entity.PageAnalysis{
		Rules: map[string]entity.ExtractionRule{
			entity.FieldTitle:   {SelectorKind: entity.SelectorCSS, Selector: "h1"},
			entity.FieldContent: {SelectorKind: entity.SelectorCSS, Selector: "article"},
			entity.FieldAuthor:  {}, // empty rule, dropped
			"sidebar_color":     {SelectorKind: entity.SelectorCSS, Selector: ".sidebar"}, // unknown field, dropped
			entity.MediaImages:  {SelectorKind: entity.SelectorCSS, Selector: "img", Attribute: "src"},
		},
		RequiresJS: true,
	}}
	recipes := newMockRecipeRepo()
	g := NewRecipeGenerator(analyzer, recipes)

	recipe, err := g.Generate(context.Background(), "https://example.com/story")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if recipe.Domain != "example.com" {
		t.Errorf("domain = %q, want %q", recipe.Domain, "example.com")
	}
	if recipe.FetchMode != entity.FetchRendered {
		t.Errorf("fetch mode = %s, want %s for a JS-dependent page", recipe.FetchMode, entity.FetchRendered)
	}
	if len(recipe.Fields) != 2 {
		t.Errorf("fields = %v, want only title and content kept", recipe.Fields)
	}
	if _, ok := recipe.Fields[entity.FieldAuthor]; ok {
		t.Error("empty author rule should have been dropped")
	}
	if recipe.Media.Images.Selector != "img" {
		t.Errorf("image rule = %+v, not carried over", recipe.Media.Images)
	}
	if recipe.Timeout() <= 0 {
		t.Errorf("timeout = %d, Normalize should apply the default", recipe.Timeout())
	}

	stored, err := recipes.FindByDomain(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("recipe not persisted: %v", err)
	}
	if stored.FetchMode != entity.FetchRendered {
		t.Errorf("persisted fetch mode = %s, want %s", stored.FetchMode, entity.FetchRendered)
	}
}

func TestGeneratorAnalyzerError(t *testing.T) {
	analyzer := &mockAnalyzer{err: repository.ErrAnalysisFailed}
	recipes := newMockRecipeRepo()
	g := NewRecipeGenerator(analyzer, recipes)

	if _, err := g.Generate(context.Background(), "https://example.com/story"); !errors.Is(err, repository.ErrAnalysisFailed) {
		t.Errorf("Generate = %v, want ErrAnalysisFailed", err)
	}
	if recipes.saves != 0 {
		t.Errorf("saves = %d, a failed analysis must not persist anything", recipes.saves)
	}
}

func TestGeneratorNoUsableRules(t *testing.T) {
	analyzer := &mockAnalyzer{analysis: &entity.PageAnalysis{
		Rules: map[string]entity.ExtractionRule{
			entity.FieldTitle:  {}, // empty
			entity.MediaImages: {SelectorKind: entity.SelectorCSS, Selector: "img", Attribute: "src"},
		},
	}}
	recipes := newMockRecipeRepo()
	g := NewRecipeGenerator(analyzer, recipes)

	// Media-only rules are not enough to scrape a page.
	if _, err := g.Generate(context.Background(), "https://example.com/story"); !errors.Is(err, repository.ErrAnalysisFailed) {
		t.Errorf("Generate = %v, want ErrAnalysisFailed", err)
	}
	if recipes.saves != 0 {
		t.Errorf("saves = %d, want 0", recipes.saves)
	}
}

func TestGeneratorInvalidURL(t *testing.T) {
	analyzer := &mockAnalyzer{analysis: &entity.PageAnalysis{}}
	recipes := newMockRecipeRepo()
	g := NewRecipeGenerator(analyzer, recipes)

	if _, err := g.Generate(context.Background(), "::not-a-url::"); err == nil {
		t.Error("Generate accepted a URL with no domain")
	}
	if analyzer.callCount() != 0 {
		t.Error("analyzer called for a URL with no domain")
	}
}
