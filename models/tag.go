package models

import "gorm.io/gorm"

// Tag is a user owned label attachable to any of that user's recipes.
type Tag struct {
	gorm.Model
	Name   string `gorm:"size:255;not null"`
	UserID uint   `gorm:"index;not null"`
}

func (t Tag) String() string {
	return t.Name
}
