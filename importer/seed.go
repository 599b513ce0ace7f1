package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/reliktarte/catalog-service/models"
)

// Seeder makes sure the lookup rows every product and photo points at
// exist. Each method queries before inserting, so calling it repeatedly
// inside the same or later transactions is a no-op.
type Seeder struct {
	DefaultSize  models.ProductSize
	DefaultColor string
}

func NewSeeder() *Seeder {
	return &Seeder{
		DefaultSize:  models.ProductSize{Height: 2000, Width: 800, Thickness: 40},
		DefaultColor: "Стандарт",
	}
}

// EnsureDefaults returns the default size and colour rows, creating them
// when missing.
func (s *Seeder) EnsureDefaults(ctx context.Context, store Store) (*models.ProductSize, *models.ProductColor, error) {
	size, err := store.FindSize(ctx, s.DefaultSize.Height, s.DefaultSize.Width, s.DefaultSize.Thickness)
	if errors.Is(err, models.ErrReferenceNotFound) {
		size = &models.ProductSize{
			Height:    s.DefaultSize.Height,
			Width:     s.DefaultSize.Width,
			Thickness: s.DefaultSize.Thickness,
		}
		err = store.CreateSize(ctx, size)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("ensure default size: %w", err)
	}

	color, err := store.FindColorByName(ctx, s.DefaultColor)
	if errors.Is(err, models.ErrReferenceNotFound) {
		color = &models.ProductColor{Name: s.DefaultColor}
		err = store.CreateColor(ctx, color)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("ensure default colour: %w", err)
	}
	return size, color, nil
}

// EnsureCategory returns the category for plan, creating it from the plan
// when missing. An existing row is returned unchanged.
func (s *Seeder) EnsureCategory(ctx context.Context, store Store, plan CategoryPlan) (*models.Category, error) {
	category, err := store.FindCategoryByCode(ctx, plan.Code)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, models.ErrCategoryNotFound) {
		return nil, fmt.Errorf("find category %s: %w", plan.Code, err)
	}

	category = &models.Category{
		Code:                     plan.Code,
		Name:                     plan.Name,
		IsGlassAvailable:         plan.GlassAvailable,
		HaveMaterialChoice:       plan.MaterialChoice,
		HaveOrientationChoice:    plan.OrientationChoice,
		HaveTypeOfPlatbandChoice: plan.PlatbandChoice,
		DefaultPrice:             plan.DefaultPrice,
	}
	if err := store.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("create category %s: %w", plan.Code, err)
	}
	return category, nil
}
