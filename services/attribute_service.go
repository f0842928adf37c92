package services

import (
	"context"
	"errors"
	"fmt"
	"recipe-api/models"
	"recipe-api/repositories"

	"gorm.io/gorm"
)

// AttributeService manages one kind of user owned recipe attribute. Tags and
// ingredients share all of their behavior.
type AttributeService[T any] interface {
	List(ctx context.Context, userID uint, assignedOnly bool) ([]T, error)
	Create(ctx context.Context, userID uint, input *AttributeInput) (*T, error)
	Update(ctx context.Context, id, userID uint, input *AttributeInput) (*T, error)
	Delete(ctx context.Context, id, userID uint) error
	ListAll(ctx context.Context) ([]T, error)
}

type AttributeInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

type attributeService[T any] struct {
	repo   repositories.AttributeRepository[T]
	build  func(name string, userID uint) T
	rename func(item *T, name string)
}

func NewTagService(repo repositories.AttributeRepository[models.Tag]) AttributeService[models.Tag] {
	return &attributeService[models.Tag]{
		repo:   repo,
		build:  func(name string, userID uint) models.Tag { return models.Tag{Name: name, UserID: userID} },
		rename: func(t *models.Tag, name string) { t.Name = name },
	}
}

func NewIngredientService(repo repositories.AttributeRepository[models.Ingredient]) AttributeService[models.Ingredient] {
	return &attributeService[models.Ingredient]{
		repo:   repo,
		build:  func(name string, userID uint) models.Ingredient { return models.Ingredient{Name: name, UserID: userID} },
		rename: func(i *models.Ingredient, name string) { i.Name = name },
	}
}

func (s *attributeService[T]) List(ctx context.Context, userID uint, assignedOnly bool) ([]T, error) {
	items, err := s.repo.ListOwned(ctx, userID, assignedOnly)
	if err != nil {
		return nil, fmt.Errorf("database error listing items: %w", err)
	}
	return items, nil
}

func (s *attributeService[T]) Create(ctx context.Context, userID uint, input *AttributeInput) (*T, error) {
	item := s.build(input.Name, userID)
	if err := s.repo.Create(ctx, &item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return &item, nil
}

func (s *attributeService[T]) Update(ctx context.Context, id, userID uint, input *AttributeInput) (*T, error) {
	item, err := s.repo.FindOwned(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error retrieving item: %w", err)
	}
	s.rename(item, input.Name)
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to save item: %w", err)
	}
	return item, nil
}

func (s *attributeService[T]) Delete(ctx context.Context, id, userID uint) error {
	if err := s.repo.DeleteOwned(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

func (s *attributeService[T]) ListAll(ctx context.Context) ([]T, error) {
	items, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("database error listing items: %w", err)
	}
	return items, nil
}
