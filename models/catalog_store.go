package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrReferenceNotFound is returned when a size or colour lookup row is missing.
var ErrReferenceNotFound = errors.New("reference row not found")

// CatalogStore is the persistence used by catalog imports. A store obtained
// inside Transaction is bound to that transaction; calling Transaction on it
// again opens a savepoint.
type CatalogStore struct {
	db *gorm.DB
}

func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

func (s *CatalogStore) Transaction(ctx context.Context, fn func(tx *CatalogStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&CatalogStore{db: tx})
	})
}

func (s *CatalogStore) FindCategoryByCode(ctx context.Context, code string) (*Category, error) {
	var category Category
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (s *CatalogStore) CreateCategory(ctx context.Context, category *Category) error {
	return s.db.WithContext(ctx).Create(category).Error
}

func (s *CatalogStore) FindSize(ctx context.Context, height, width, thickness int) (*ProductSize, error) {
	var size ProductSize
	err := s.db.WithContext(ctx).
		Where("height = ? AND width = ? AND thickness = ?", height, width, thickness).
		First(&size).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReferenceNotFound
		}
		return nil, err
	}
	return &size, nil
}

func (s *CatalogStore) CreateSize(ctx context.Context, size *ProductSize) error {
	return s.db.WithContext(ctx).Create(size).Error
}

func (s *CatalogStore) FindColorByName(ctx context.Context, name string) (*ProductColor, error) {
	var color ProductColor
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&color).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReferenceNotFound
		}
		return nil, err
	}
	return &color, nil
}

func (s *CatalogStore) CreateColor(ctx context.Context, color *ProductColor) error {
	return s.db.WithContext(ctx).Create(color).Error
}

func (s *CatalogStore) FindProductBySKU(ctx context.Context, sku string) (*Product, error) {
	var product Product
	if err := s.db.WithContext(ctx).Where("sku = ?", sku).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *CatalogStore) CreateProduct(ctx context.Context, product *Product) error {
	return s.db.WithContext(ctx).Omit("Photos", "Category").Create(product).Error
}

// UpdateProduct overwrites the descriptive fields an import owns. Price and
// category are left as they are.
func (s *CatalogStore) UpdateProduct(ctx context.Context, product *Product) error {
	return s.db.WithContext(ctx).
		Model(product).
		Select("Name", "Description", "HaveGlass", "OrientationChoice").
		Updates(product).Error
}

func (s *CatalogStore) ListPhotos(ctx context.Context, productID uint) ([]ProductPhoto, error) {
	var photos []ProductPhoto
	if err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("photo").
		Find(&photos).Error; err != nil {
		return nil, err
	}
	return photos, nil
}

func (s *CatalogStore) CreatePhoto(ctx context.Context, photo *ProductPhoto) error {
	return s.db.WithContext(ctx).Omit("Color", "Size").Create(photo).Error
}

func (s *CatalogStore) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Product{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// TruncateProducts removes every product and, through the cascade, every
// photo, and restarts the id sequences at 1.
func (s *CatalogStore) TruncateProducts(ctx context.Context) error {
	stmt := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", pq.QuoteIdentifier((&Product{}).TableName()))
	return s.db.WithContext(ctx).Exec(stmt).Error
}
