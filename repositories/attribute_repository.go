package repositories

import (
	"context"
	"recipe-api/models"

	"gorm.io/gorm"
)

// AttributeRepository covers the user owned recipe attributes (tags and
// ingredients). Both live in their own table and are linked to recipes
// through a join table.
type AttributeRepository[T any] interface {
	Create(ctx context.Context, item *T) error
	FindOwned(ctx context.Context, id, userID uint) (*T, error)
	FindOwnedByIDs(ctx context.Context, userID uint, ids []uint) ([]T, error)
	ListOwned(ctx context.Context, userID uint, assignedOnly bool) ([]T, error)
	Update(ctx context.Context, item *T) error
	DeleteOwned(ctx context.Context, id, userID uint) error
	FindAll(ctx context.Context) ([]T, error)
}

type attributeRepository[T any] struct {
	db         *gorm.DB
	joinTable  string
	joinColumn string
}

func NewTagRepository(db *gorm.DB) AttributeRepository[models.Tag] {
	return &attributeRepository[models.Tag]{db: db, joinTable: "recipe_tags", joinColumn: "tag_id"}
}

func NewIngredientRepository(db *gorm.DB) AttributeRepository[models.Ingredient] {
	return &attributeRepository[models.Ingredient]{db: db, joinTable: "recipe_ingredients", joinColumn: "ingredient_id"}
}

func (r *attributeRepository[T]) Create(ctx context.Context, item *T) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// FindOwned returns gorm.ErrRecordNotFound for rows of other users.
func (r *attributeRepository[T]) FindOwned(ctx context.Context, id, userID uint) (*T, error) {
	var item T
	result := r.db.WithContext(ctx).Scopes(OwnedBy(userID)).First(&item, id)
	if result.Error != nil {
		return nil, result.Error
	}
	return &item, nil
}

// FindOwnedByIDs silently drops ids that do not exist or belong to someone
// else; callers compare lengths to detect that.
func (r *attributeRepository[T]) FindOwnedByIDs(ctx context.Context, userID uint, ids []uint) ([]T, error) {
	items := []T{}
	if len(ids) == 0 {
		return items, nil
	}
	result := r.db.WithContext(ctx).Scopes(OwnedBy(userID), IDIn(ids)).Order("id").Find(&items)
	if result.Error != nil {
		return nil, result.Error
	}
	return items, nil
}

// ListOwned orders by name descending. With assignedOnly set only rows
// referenced by at least one recipe are returned, each once.
func (r *attributeRepository[T]) ListOwned(ctx context.Context, userID uint, assignedOnly bool) ([]T, error) {
	db := r.db.WithContext(ctx)
	query := db.Scopes(OwnedBy(userID))
	if assignedOnly {
		query = query.Where("id IN (?)", db.Table(r.joinTable).Select(r.joinColumn))
	}

	items := []T{}
	result := query.Order("name DESC").Order("id DESC").Find(&items)
	if result.Error != nil {
		return nil, result.Error
	}
	return items, nil
}

func (r *attributeRepository[T]) Update(ctx context.Context, item *T) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// DeleteOwned removes the row and its recipe links in one transaction.
func (r *attributeRepository[T]) DeleteOwned(ctx context.Context, id, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Scopes(OwnedBy(userID)).Delete(new(T), id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Exec("DELETE FROM "+r.joinTable+" WHERE "+r.joinColumn+" = ?", id).Error
	})
}

// FindAll lists rows across every owner, for the admin screens.
func (r *attributeRepository[T]) FindAll(ctx context.Context) ([]T, error) {
	items := []T{}
	result := r.db.WithContext(ctx).Order("id").Find(&items)
	if result.Error != nil {
		return nil, result.Error
	}
	return items, nil
}
