package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/user/scraper-service/internal/entity"
	"github.com/user/scraper-service/internal/repository"
)

const recipeKeyPrefix = "scraper:recipe:"

// RecipeStoreImpl persists domain recipes in Redis. Writes are
// last-write-wins; two tasks racing to generate a recipe for a new domain
// both end up with a well-formed value, whichever save landed last.
type RecipeStoreImpl struct {
	client *redis.Client
}

// NewRecipeStore creates a new instance of RecipeStoreImpl.
func NewRecipeStore(client *redis.Client) *RecipeStoreImpl {
	return &RecipeStoreImpl{client: client}
}

func recipeKey(domain string) string {
	return recipeKeyPrefix + domain
}

// FindByDomain returns the persisted recipe or repository.ErrRecipeNotFound.
func (r *RecipeStoreImpl) FindByDomain(ctx context.Context, domain string) (*entity.Recipe, error) {
	payload, err := r.client.Get(ctx, recipeKey(domain)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrRecipeNotFound
		}
		return nil, err
	}
	recipe, err := decodeRecipe(payload)
	if err != nil {
		return nil, fmt.Errorf("recipe for %s: %w", domain, err)
	}
	recipe.Normalize()
	return recipe, nil
}

// Save persists the recipe, overwriting any existing one for the domain.
func (r *RecipeStoreImpl) Save(ctx context.Context, recipe *entity.Recipe) error {
	payload, err := encodeRecipe(recipe)
	if err != nil {
		return fmt.Errorf("encode recipe for %s: %w", recipe.Domain, err)
	}
	return r.client.Set(ctx, recipeKey(recipe.Domain), payload, 0).Err()
}
