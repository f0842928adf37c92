package models

import "gorm.io/gorm"

type Ingredient struct {
	gorm.Model
	Name   string `gorm:"size:255;not null"`
	UserID uint   `gorm:"index;not null"`
}

func (i Ingredient) String() string {
	return i.Name
}
