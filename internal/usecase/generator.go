package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/scraper-service/internal/entity"
	"github.com/user/scraper-service/internal/repository"
	"github.com/user/scraper-service/pkg/metrics"
	"github.com/user/scraper-service/pkg/utils"
)

// RecipeGenerator derives a fresh recipe for a URL's domain via the
// external page analyzer and persists it. Generation always starts from a
// clean page analysis; it never reuses a prior recipe's selectors.
type RecipeGenerator interface {
	Generate(ctx context.Context, rawURL string) (*entity.Recipe, error)
}

type recipeGenerator struct {
	analyzer repository.PageAnalyzer
	recipes  repository.RecipeRepository
}

// NewRecipeGenerator creates a new RecipeGenerator.
func NewRecipeGenerator(analyzer repository.PageAnalyzer, recipes repository.RecipeRepository) RecipeGenerator {
	return &recipeGenerator{analyzer: analyzer, recipes: recipes}
}

// Generate analyzes the page, converts the proposed rules into a recipe
// and saves it. The save happens only after full, valid conversion, so a
// failed generation never leaves a partial recipe behind.
func (g *recipeGenerator) Generate(ctx context.Context, rawURL string) (*entity.Recipe, error) {
	domain, err := utils.Domain(rawURL)
	if err != nil {
		return nil, err
	}

	fields := make([]string, 0, len(entity.FieldNames)+len(entity.MediaCategories))
	fields = append(fields, entity.FieldNames...)
	fields = append(fields, entity.MediaCategories...)

	analysis, err := g.analyzer.Analyze(ctx, rawURL, fields)
	if err != nil {
		metrics.RecipeGenerations.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("analyze %s: %w", rawURL, err)
	}

	recipe, err := buildRecipe(domain, analysis)
	if err != nil {
		metrics.RecipeGenerations.WithLabelValues("failure").Inc()
		return nil, err
	}

	if err := g.recipes.Save(ctx, recipe); err != nil {
		metrics.RecipeGenerations.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("save recipe for %s: %w", domain, err)
	}

	metrics.RecipeGenerations.WithLabelValues("success").Inc()
	slog.Info("Generated recipe", "domain", domain, "fields", len(recipe.Fields), "mode", recipe.FetchMode)
	return recipe, nil
}

// buildRecipe converts an analysis into a recipe. Field rules with empty
// selectors are dropped; missing media rules stay as no-op placeholders so
// the three media keys are always present.
func buildRecipe(domain string, analysis *entity.PageAnalysis) (*entity.Recipe, error) {
	recipe := &entity.Recipe{
		Domain: domain,
		Fields: make(map[string]entity.ExtractionRule),
	}
	if analysis.RequiresJS {
		recipe.FetchMode = entity.FetchRendered
	}

	for field, rule := range analysis.Rules {
		switch field {
		case entity.MediaImages:
			recipe.Media.Images = rule
		case entity.MediaVideos:
			recipe.Media.Videos = rule
		case entity.MediaEmbeds:
			recipe.Media.Embeds = rule
		default:
			if rule.IsZero() || !knownField(field) {
				continue
			}
			recipe.Fields[field] = rule
		}
	}

	if len(recipe.Fields) == 0 {
		return nil, fmt.Errorf("%w: no usable field rules for %s", repository.ErrAnalysisFailed, domain)
	}

	recipe.Normalize()
	return recipe, nil
}

func knownField(field string) bool {
	for _, name := range entity.FieldNames {
		if field == name {
			return true
		}
	}
	return false
}
