package repositories

import "gorm.io/gorm"

// OwnedBy restricts a query to rows whose user_id matches the principal.
// Every per-user read and write in this package goes through it.
func OwnedBy(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

// IDIn narrows a query to the given primary keys.
func IDIn(ids []uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id IN ?", ids)
	}
}
