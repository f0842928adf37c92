package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoders accepted for uploads
	_ "image/jpeg"
	_ "image/png"
	"math"
	"recipe-api/models"
	"recipe-api/repositories"
	"recipe-api/storage"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RecipeService interface {
	List(ctx context.Context, userID uint, filter repositories.RecipeFilter) ([]models.Recipe, error)
	Get(ctx context.Context, id, userID uint) (*models.Recipe, error)
	Create(ctx context.Context, userID uint, input *RecipeInput) (*models.Recipe, error)
	Update(ctx context.Context, id, userID uint, input *RecipeInput) (*models.Recipe, error)
	Patch(ctx context.Context, id, userID uint, input *RecipePatchInput) (*models.Recipe, error)
	Delete(ctx context.Context, id, userID uint) error
	UploadImage(ctx context.Context, id, userID uint, filename string, data []byte) (*models.Recipe, error)
	ImageURL(recipe *models.Recipe) string
	ListAll(ctx context.Context) ([]models.Recipe, error)
}

// RecipeInput is the full representation used by create and replace. Pointers
// make a missing time_minutes or price fail validation instead of reading as 0.
type RecipeInput struct {
	Title       string   `json:"title" validate:"required,max=255"`
	TimeMinutes *int     `json:"time_minutes" validate:"required,gte=0"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Link        string   `json:"link" validate:"max=255"`
	Tags        []uint   `json:"tags"`
	Ingredients []uint   `json:"ingredients"`
}

// RecipePatchInput only touches the fields that are present in the request.
type RecipePatchInput struct {
	Title       *string  `json:"title" validate:"omitnil,min=1,max=255"`
	TimeMinutes *int     `json:"time_minutes" validate:"omitnil,gte=0"`
	Price       *float64 `json:"price" validate:"omitnil,gte=0"`
	Link        *string  `json:"link" validate:"omitnil,max=255"`
	Tags        *[]uint  `json:"tags"`
	Ingredients *[]uint  `json:"ingredients"`
}

type recipeService struct {
	recipes     repositories.RecipeRepository
	tags        repositories.AttributeRepository[models.Tag]
	ingredients repositories.AttributeRepository[models.Ingredient]
	images      storage.ImageStore
}

var _ RecipeService = (*recipeService)(nil)

func NewRecipeService(
	recipes repositories.RecipeRepository,
	tags repositories.AttributeRepository[models.Tag],
	ingredients repositories.AttributeRepository[models.Ingredient],
	images storage.ImageStore,
) RecipeService {
	return &recipeService{recipes: recipes, tags: tags, ingredients: ingredients, images: images}
}

// ParseIDList turns "1,2, 3" into ids. Blank entries are skipped.
func ParseIDList(raw string) ([]uint, error) {
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, part)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// maxPrice is the largest value a decimal(5,2) column holds.
const maxPrice = 999.99

// normalizePrice rounds to cents first and checks the bound afterwards, so
// 999.995 is rejected rather than stored as 1000.00.
func normalizePrice(p float64) (float64, error) {
	rounded := math.Round(p*100) / 100
	if rounded > maxPrice {
		return 0, ErrInvalidPrice
	}
	return rounded, nil
}

// removeImage deletes a stored file the database no longer points at. Failures
// only leave an orphan behind, so they are logged and not returned.
func (s *recipeService) removeImage(ctx context.Context, key string) {
	if err := s.images.Delete(ctx, key); err != nil {
		zap.L().Warn("Failed to remove recipe image", zap.String("key", key), zap.Error(err))
	}
}

// resolve loads the caller's rows for ids and fails if any id is unknown or
// owned by somebody else.
func resolve[T any](ctx context.Context, repo repositories.AttributeRepository[T], userID uint, ids []uint, kind string) ([]T, error) {
	ids = uniqueIDs(ids)
	items, err := repo.FindOwnedByIDs(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("database error loading %s: %w", kind, err)
	}
	if len(items) != len(ids) {
		return nil, fmt.Errorf("%w (%s)", ErrInvalidRelation, kind)
	}
	return items, nil
}

func (s *recipeService) List(ctx context.Context, userID uint, filter repositories.RecipeFilter) ([]models.Recipe, error) {
	recipes, err := s.recipes.ListOwned(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("database error listing recipes: %w", err)
	}
	return recipes, nil
}

func (s *recipeService) Get(ctx context.Context, id, userID uint) (*models.Recipe, error) {
	recipe, err := s.recipes.FindOwned(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error retrieving recipe: %w", err)
	}
	return recipe, nil
}

func (s *recipeService) Create(ctx context.Context, userID uint, input *RecipeInput) (*models.Recipe, error) {
	var minutes int
	if input.TimeMinutes != nil {
		minutes = *input.TimeMinutes
	}
	var price float64
	if input.Price != nil {
		p, err := normalizePrice(*input.Price)
		if err != nil {
			return nil, err
		}
		price = p
	}
	tags, err := resolve(ctx, s.tags, userID, input.Tags, "tags")
	if err != nil {
		return nil, err
	}
	ingredients, err := resolve(ctx, s.ingredients, userID, input.Ingredients, "ingredients")
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		UserID:      userID,
		Title:       input.Title,
		TimeMinutes: minutes,
		Price:       price,
		Link:        input.Link,
		Tags:        tags,
		Ingredients: ingredients,
	}
	if err := s.recipes.Create(ctx, &recipe); err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}
	return s.Get(ctx, recipe.ID, userID)
}

// Update replaces every writable field; omitted relation lists clear the relation.
func (s *recipeService) Update(ctx context.Context, id, userID uint, input *RecipeInput) (*models.Recipe, error) {
	tags := input.Tags
	ingredients := input.Ingredients
	if tags == nil {
		tags = []uint{}
	}
	if ingredients == nil {
		ingredients = []uint{}
	}
	return s.Patch(ctx, id, userID, &RecipePatchInput{
		Title:       &input.Title,
		TimeMinutes: input.TimeMinutes,
		Price:       input.Price,
		Link:        &input.Link,
		Tags:        &tags,
		Ingredients: &ingredients,
	})
}

func (s *recipeService) Patch(ctx context.Context, id, userID uint, input *RecipePatchInput) (*models.Recipe, error) {
	recipe, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		recipe.Title = *input.Title
	}
	if input.TimeMinutes != nil {
		recipe.TimeMinutes = *input.TimeMinutes
	}
	if input.Price != nil {
		if recipe.Price, err = normalizePrice(*input.Price); err != nil {
			return nil, err
		}
	}
	if input.Link != nil {
		recipe.Link = *input.Link
	}
	if input.Tags != nil {
		if recipe.Tags, err = resolve(ctx, s.tags, userID, *input.Tags, "tags"); err != nil {
			return nil, err
		}
	}
	if input.Ingredients != nil {
		if recipe.Ingredients, err = resolve(ctx, s.ingredients, userID, *input.Ingredients, "ingredients"); err != nil {
			return nil, err
		}
	}

	if err := s.recipes.Update(ctx, recipe, input.Tags != nil, input.Ingredients != nil); err != nil {
		return nil, fmt.Errorf("failed to save recipe: %w", err)
	}
	return s.Get(ctx, recipe.ID, userID)
}

func (s *recipeService) Delete(ctx context.Context, id, userID uint) error {
	recipe, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.recipes.Delete(ctx, recipe); err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if recipe.Image != "" {
		s.removeImage(ctx, recipe.Image)
	}
	return nil
}

// UploadImage stores data as the recipe's image if it decodes as a gif, jpeg
// or png, replacing any previous image.
func (s *recipeService) UploadImage(ctx context.Context, id, userID uint, filename string, data []byte) (*models.Recipe, error) {
	recipe, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	// A full decode so truncated files are rejected, not just bad headers.
	_, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImage
	}

	key := models.RecipeImageFilePath(filename)
	if err := s.images.Save(ctx, key, bytes.NewReader(data), "image/"+format); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	previous := recipe.Image
	if err := s.recipes.UpdateImage(ctx, recipe, key); err != nil {
		s.removeImage(ctx, key)
		return nil, fmt.Errorf("failed to save recipe image: %w", err)
	}
	if previous != "" && previous != key {
		s.removeImage(ctx, previous)
	}
	return recipe, nil
}

func (s *recipeService) ImageURL(recipe *models.Recipe) string {
	return s.images.URL(recipe.Image)
}

func (s *recipeService) ListAll(ctx context.Context) ([]models.Recipe, error) {
	recipes, err := s.recipes.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("database error listing recipes: %w", err)
	}
	return recipes, nil
}
