package repositories

import (
	"context"
	"recipe-api/database"
	"recipe-api/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db          *gorm.DB
	recipes     RecipeRepository
	tags        AttributeRepository[models.Tag]
	ingredients AttributeRepository[models.Ingredient]
	user        models.User
	other       models.User
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)

	f := &fixture{
		db:          db,
		recipes:     NewRecipeRepository(db),
		tags:        NewTagRepository(db),
		ingredients: NewIngredientRepository(db),
		user:        models.User{Email: "user@example.com", Password: "x", IsActive: true},
		other:       models.User{Email: "other@example.com", Password: "x", IsActive: true},
	}
	require.NoError(t, db.Create(&f.user).Error)
	require.NoError(t, db.Create(&f.other).Error)
	return f
}

func (f *fixture) tag(t *testing.T, owner models.User, name string) models.Tag {
	t.Helper()
	tag := models.Tag{Name: name, UserID: owner.ID}
	require.NoError(t, f.tags.Create(context.Background(), &tag))
	return tag
}

func (f *fixture) ingredient(t *testing.T, owner models.User, name string) models.Ingredient {
	t.Helper()
	ing := models.Ingredient{Name: name, UserID: owner.ID}
	require.NoError(t, f.ingredients.Create(context.Background(), &ing))
	return ing
}

func (f *fixture) recipe(t *testing.T, owner models.User, title string, tags []models.Tag, ingredients []models.Ingredient) models.Recipe {
	t.Helper()
	recipe := models.Recipe{UserID: owner.ID, Title: title, TimeMinutes: 10, Price: 5, Tags: tags, Ingredients: ingredients}
	require.NoError(t, f.recipes.Create(context.Background(), &recipe))
	return recipe
}

func titles(recipes []models.Recipe) []string {
	out := make([]string, len(recipes))
	for i, r := range recipes {
		out[i] = r.Title
	}
	return out
}

func TestListOwnedScopesAndOrders(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	f.recipe(t, f.user, "first", nil, nil)
	f.recipe(t, f.other, "foreign", nil, nil)
	f.recipe(t, f.user, "second", nil, nil)

	recipes, err := f.recipes.ListOwned(ctx, f.user.ID, RecipeFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first"}, titles(recipes))
}

func TestListOwnedFiltersByTagsAndIngredients(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	vegan := f.tag(t, f.user, "Vegan")
	vegetarian := f.tag(t, f.user, "Vegetarian")
	feta := f.ingredient(t, f.user, "Feta cheese")
	chicken := f.ingredient(t, f.user, "Chicken")

	curry := f.recipe(t, f.user, "Thai vegetable curry", []models.Tag{vegan}, []models.Ingredient{feta})
	f.recipe(t, f.user, "Aubergine with tahini", []models.Tag{vegetarian, vegan}, []models.Ingredient{chicken})
	f.recipe(t, f.user, "Fish and chips", nil, nil)

	byTags, err := f.recipes.ListOwned(ctx, f.user.ID, RecipeFilter{TagIDs: []uint{vegan.ID, vegetarian.ID}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Aubergine with tahini", "Thai vegetable curry"}, titles(byTags))

	byBoth, err := f.recipes.ListOwned(ctx, f.user.ID, RecipeFilter{TagIDs: []uint{vegan.ID}, IngredientIDs: []uint{feta.ID}})
	require.NoError(t, err)
	require.Len(t, byBoth, 1)
	assert.Equal(t, curry.ID, byBoth[0].ID)
	assert.Equal(t, []uint{vegan.ID}, byBoth[0].TagIDs())
}

func TestUpdateReplacesRelations(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	breakfast := f.tag(t, f.user, "Breakfast")
	lunch := f.tag(t, f.user, "Lunch")
	recipe := f.recipe(t, f.user, "Eggs", []models.Tag{breakfast}, nil)

	recipe.Tags = []models.Tag{lunch}
	recipe.Title = "Eggs benedict"
	require.NoError(t, f.recipes.Update(ctx, &recipe, true, false))

	got, err := f.recipes.FindOwned(ctx, recipe.ID, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Eggs benedict", got.Title)
	assert.Equal(t, []uint{lunch.ID}, got.TagIDs())

	got.Tags = nil
	require.NoError(t, f.recipes.Update(ctx, got, true, false))
	got, err = f.recipes.FindOwned(ctx, recipe.ID, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
}

func TestFindOwnedRejectsOtherUsers(t *testing.T) {
	f := setupFixture(t)

	recipe := f.recipe(t, f.other, "secret", nil, nil)
	_, err := f.recipes.FindOwned(context.Background(), recipe.ID, f.user.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAttributeAssignedOnlyAndDelete(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	apples := f.ingredient(t, f.user, "Apples")
	turkey := f.ingredient(t, f.user, "Turkey")
	f.ingredient(t, f.other, "Salt")
	recipe := f.recipe(t, f.user, "Apple crumble", nil, []models.Ingredient{apples})
	f.recipe(t, f.user, "Coriander eggs", nil, []models.Ingredient{apples})

	all, err := f.ingredients.ListOwned(ctx, f.user.ID, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Turkey", all[0].Name)

	assigned, err := f.ingredients.ListOwned(ctx, f.user.ID, true)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, apples.ID, assigned[0].ID)

	assert.ErrorIs(t, f.ingredients.DeleteOwned(ctx, turkey.ID, f.other.ID), gorm.ErrRecordNotFound)
	require.NoError(t, f.ingredients.DeleteOwned(ctx, apples.ID, f.user.ID))

	got, err := f.recipes.FindOwned(ctx, recipe.ID, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Ingredients)
}

func TestFindOwnedByIDsDropsForeignRows(t *testing.T) {
	f := setupFixture(t)

	mine := f.tag(t, f.user, "Mine")
	theirs := f.tag(t, f.other, "Theirs")

	tags, err := f.tags.FindOwnedByIDs(context.Background(), f.user.ID, []uint{mine.ID, theirs.ID})
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, mine.ID, tags[0].ID)
}
