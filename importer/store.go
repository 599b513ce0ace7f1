package importer

import (
	"context"

	"github.com/reliktarte/catalog-service/models"
	"gorm.io/gorm"
)

// Store is the persistence the synchronizer writes through. Transaction on
// a store already inside a transaction opens a nested one (a savepoint);
// an error returned from fn rolls back only that level.
type Store interface {
	Transaction(ctx context.Context, fn func(tx Store) error) error

	FindCategoryByCode(ctx context.Context, code string) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error

	FindSize(ctx context.Context, height, width, thickness int) (*models.ProductSize, error)
	CreateSize(ctx context.Context, size *models.ProductSize) error
	FindColorByName(ctx context.Context, name string) (*models.ProductColor, error)
	CreateColor(ctx context.Context, color *models.ProductColor) error

	FindProductBySKU(ctx context.Context, sku string) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	CountProducts(ctx context.Context) (int64, error)
	TruncateProducts(ctx context.Context) error

	ListPhotos(ctx context.Context, productID uint) ([]models.ProductPhoto, error)
	CreatePhoto(ctx context.Context, photo *models.ProductPhoto) error
}

// GormStore adapts models.CatalogStore to Store.
type GormStore struct {
	*models.CatalogStore
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{CatalogStore: models.NewCatalogStore(db)}
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.CatalogStore.Transaction(ctx, func(tx *models.CatalogStore) error {
		return fn(&GormStore{CatalogStore: tx})
	})
}
