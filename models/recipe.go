package models

import (
	"path"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const recipeImageDir = "uploads/recipe"

type Recipe struct {
	gorm.Model
	UserID      uint         `gorm:"index;not null"`
	Title       string       `gorm:"size:255;not null"`
	TimeMinutes int          `gorm:"not null"`
	Price       float64      `gorm:"type:decimal(5,2);not null"`
	Link        string       `gorm:"size:255"`
	Image       string       `gorm:"size:255"` // Storage key, empty when no image was uploaded
	Tags        []Tag        `gorm:"many2many:recipe_tags;"`
	Ingredients []Ingredient `gorm:"many2many:recipe_ingredients;"`
}

func (r Recipe) String() string {
	return r.Title
}

// TagIDs returns the ids of the loaded Tags association.
func (r Recipe) TagIDs() []uint {
	ids := make([]uint, len(r.Tags))
	for i, t := range r.Tags {
		ids[i] = t.ID
	}
	return ids
}

// IngredientIDs returns the ids of the loaded Ingredients association.
func (r Recipe) IngredientIDs() []uint {
	ids := make([]uint, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		ids[i] = ing.ID
	}
	return ids
}

// newImageID is swapped out in tests to get deterministic file names.
var newImageID = uuid.NewString

// RecipeImageFilePath builds the storage key for an uploaded recipe image.
// Only the extension of the client supplied name survives.
func RecipeImageFilePath(filename string) string {
	ext := filename
	if dot := strings.LastIndex(filename, "."); dot >= 0 {
		ext = filename[dot+1:]
	}
	return path.Join(recipeImageDir, newImageID()+"."+ext)
}
