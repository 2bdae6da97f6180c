package repository

import (
	"context"

	"github.com/user/scraper-service/internal/entity"
)

// RecipeRepository persists domain recipes. Save is last-write-wins with no
// merge; concurrent writers for the same domain are serialized by the
// backing store, not here.
type RecipeRepository interface {
	// FindByDomain returns the persisted recipe or ErrRecipeNotFound.
	FindByDomain(ctx context.Context, domain string) (*entity.Recipe, error)
	// Save persists the recipe, overwriting any existing one for the domain.
	Save(ctx context.Context, recipe *entity.Recipe) error
}
