package models

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrCategoryNotFound is returned when no category has the requested code.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryExists is returned when creating a category whose code is taken.
	ErrCategoryExists = errors.New("category already exists")
)

type CategoriesRepository struct {
	db *gorm.DB
}

func NewCategoriesRepository(db *gorm.DB) *CategoriesRepository {
	return &CategoriesRepository{db: db}
}

func (r *CategoriesRepository) GetAllCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := r.db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoriesRepository) CreateCategory(ctx context.Context, category *Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrCategoryExists
		}
		return err
	}
	return nil
}
