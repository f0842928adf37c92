package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"test@TEST.com":         "test@test.com",
		"Test.User@Example.ORG": "Test.User@example.org",
		"  spaced@MAIL.com  ":   "spaced@mail.com",
		"no-at-sign":            "no-at-sign",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeEmail(in), in)
	}
}

func TestStringRepresentations(t *testing.T) {
	assert.Equal(t, "user@example.com", User{Email: "user@example.com"}.String())
	assert.Equal(t, "Vegan", Tag{Name: "Vegan"}.String())
	assert.Equal(t, "Cucumber", Ingredient{Name: "Cucumber"}.String())
	assert.Equal(t, "Steak and mushroom sauce", Recipe{Title: "Steak and mushroom sauce"}.String())
}

func TestRecipeImageFilePath(t *testing.T) {
	orig := newImageID
	newImageID = func() string { return "test-uuid" }
	defer func() { newImageID = orig }()

	assert.Equal(t, "uploads/recipe/test-uuid.jpg", RecipeImageFilePath("myimage.jpg"))
	assert.Equal(t, "uploads/recipe/test-uuid.png", RecipeImageFilePath("holiday.photo.png"))
	assert.Equal(t, "uploads/recipe/test-uuid.noext", RecipeImageFilePath("noext"))
}

func TestRecipeRelationIDs(t *testing.T) {
	r := Recipe{
		Tags:        []Tag{{Name: "a"}, {Name: "b"}},
		Ingredients: []Ingredient{{Name: "salt"}},
	}
	r.Tags[0].ID, r.Tags[1].ID = 3, 7
	r.Ingredients[0].ID = 11

	assert.Equal(t, []uint{3, 7}, r.TagIDs())
	assert.Equal(t, []uint{11}, r.IngredientIDs())
}
