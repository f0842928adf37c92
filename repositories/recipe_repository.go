package repositories

import (
	"context"
	"recipe-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecipeFilter narrows a recipe listing by related ids. An empty slice means
// no restriction on that relation.
type RecipeFilter struct {
	TagIDs        []uint
	IngredientIDs []uint
}

// RecipeRepository interface defines Recipe-related database operations
type RecipeRepository interface {
	Create(ctx context.Context, recipe *models.Recipe) error
	FindOwned(ctx context.Context, id, userID uint) (*models.Recipe, error)
	ListOwned(ctx context.Context, userID uint, filter RecipeFilter) ([]models.Recipe, error)
	Update(ctx context.Context, recipe *models.Recipe, replaceTags, replaceIngredients bool) error
	UpdateImage(ctx context.Context, recipe *models.Recipe, key string) error
	Delete(ctx context.Context, recipe *models.Recipe) error
	FindAll(ctx context.Context) ([]models.Recipe, error)
}

type recipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func preloadRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("ingredients.id") })
}

// Create inserts the recipe and links the already persisted Tags and
// Ingredients set on it.
func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, ingredients := recipe.Tags, recipe.Ingredients
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
		if err := replaceAssociation(tx, recipe, "Tags", tags); err != nil {
			return err
		}
		return replaceAssociation(tx, recipe, "Ingredients", ingredients)
	})
}

func replaceAssociation[T any](tx *gorm.DB, recipe *models.Recipe, name string, values []T) error {
	assoc := tx.Model(recipe).Association(name)
	if len(values) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(values)
}

func (r *recipeRepository) FindOwned(ctx context.Context, id, userID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	result := r.db.WithContext(ctx).Scopes(OwnedBy(userID), preloadRelations).First(&recipe, id)
	if result.Error != nil {
		return nil, result.Error
	}
	return &recipe, nil
}

// ListOwned returns the user's recipes, newest first. The relation filters
// are membership tests against the join tables, so a recipe matching several
// of the requested ids still appears once.
func (r *recipeRepository) ListOwned(ctx context.Context, userID uint, filter RecipeFilter) ([]models.Recipe, error) {
	db := r.db.WithContext(ctx)
	query := db.Scopes(OwnedBy(userID), preloadRelations)
	if len(filter.TagIDs) > 0 {
		query = query.Where("id IN (?)", db.Table("recipe_tags").Select("recipe_id").Where("tag_id IN ?", filter.TagIDs))
	}
	if len(filter.IngredientIDs) > 0 {
		query = query.Where("id IN (?)", db.Table("recipe_ingredients").Select("recipe_id").Where("ingredient_id IN ?", filter.IngredientIDs))
	}

	recipes := []models.Recipe{}
	if err := query.Order("id DESC").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// Update writes the scalar columns and, when asked, swaps the relation sets
// for the ones currently on the struct.
func (r *recipeRepository) Update(ctx context.Context, recipe *models.Recipe, replaceTags, replaceIngredients bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, ingredients := recipe.Tags, recipe.Ingredients
		if err := tx.Omit(clause.Associations).Save(recipe).Error; err != nil {
			return err
		}
		if replaceTags {
			if err := replaceAssociation(tx, recipe, "Tags", tags); err != nil {
				return err
			}
		}
		if replaceIngredients {
			if err := replaceAssociation(tx, recipe, "Ingredients", ingredients); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *recipeRepository) UpdateImage(ctx context.Context, recipe *models.Recipe, key string) error {
	if err := r.db.WithContext(ctx).Model(recipe).Update("image", key).Error; err != nil {
		return err
	}
	recipe.Image = key
	return nil
}

// Delete unlinks tags and ingredients before removing the recipe itself.
func (r *recipeRepository) Delete(ctx context.Context, recipe *models.Recipe) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Ingredients").Clear(); err != nil {
			return err
		}
		return tx.Delete(recipe).Error
	})
}

func (r *recipeRepository) FindAll(ctx context.Context) ([]models.Recipe, error) {
	recipes := []models.Recipe{}
	if err := r.db.WithContext(ctx).Scopes(preloadRelations).Order("id").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}
