package importer

import (
	"context"
	"fmt"

	"github.com/reliktarte/catalog-service/models"
	"gorm.io/gorm"
)

// --- In-memory Store ---

type memState struct {
	categories []models.Category
	sizes      []models.ProductSize
	colors     []models.ProductColor
	products   []models.Product
	photos     []models.ProductPhoto

	categorySeq, sizeSeq, colorSeq, productSeq, photoSeq uint
}

func (s memState) clone() memState {
	c := s
	c.categories = append([]models.Category(nil), s.categories...)
	c.sizes = append([]models.ProductSize(nil), s.sizes...)
	c.colors = append([]models.ProductColor(nil), s.colors...)
	c.products = append([]models.Product(nil), s.products...)
	c.photos = append([]models.ProductPhoto(nil), s.photos...)
	return c
}

// memStore restores its whole state when fn returns an error, at every
// nesting level, which is what a savepoint does to the rows it covers.
type memStore struct {
	state *memState

	failCreatePhoto   func(*models.ProductPhoto) error
	failCreateProduct func(*models.Product) error
	failTruncate      error

	transactions int
}

func newMemStore() *memStore {
	return &memStore{state: &memState{}}
}

func (m *memStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.transactions++
	saved := m.state.clone()
	if err := fn(m); err != nil {
		*m.state = saved
		return err
	}
	return nil
}

func (m *memStore) FindCategoryByCode(_ context.Context, code string) (*models.Category, error) {
	for _, c := range m.state.categories {
		if c.Code == code {
			return &c, nil
		}
	}
	return nil, models.ErrCategoryNotFound
}

func (m *memStore) CreateCategory(_ context.Context, category *models.Category) error {
	m.state.categorySeq++
	category.ID = m.state.categorySeq
	m.state.categories = append(m.state.categories, *category)
	return nil
}

func (m *memStore) FindSize(_ context.Context, height, width, thickness int) (*models.ProductSize, error) {
	for _, s := range m.state.sizes {
		if s.Height == height && s.Width == width && s.Thickness == thickness {
			return &s, nil
		}
	}
	return nil, models.ErrReferenceNotFound
}

func (m *memStore) CreateSize(_ context.Context, size *models.ProductSize) error {
	m.state.sizeSeq++
	size.ID = m.state.sizeSeq
	m.state.sizes = append(m.state.sizes, *size)
	return nil
}

func (m *memStore) FindColorByName(_ context.Context, name string) (*models.ProductColor, error) {
	for _, c := range m.state.colors {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, models.ErrReferenceNotFound
}

func (m *memStore) CreateColor(_ context.Context, color *models.ProductColor) error {
	m.state.colorSeq++
	color.ID = m.state.colorSeq
	m.state.colors = append(m.state.colors, *color)
	return nil
}

func (m *memStore) FindProductBySKU(_ context.Context, sku string) (*models.Product, error) {
	for _, p := range m.state.products {
		if p.SKU == sku {
			return &p, nil
		}
	}
	return nil, models.ErrProductNotFound
}

func (m *memStore) CreateProduct(_ context.Context, product *models.Product) error {
	if m.failCreateProduct != nil {
		if err := m.failCreateProduct(product); err != nil {
			return err
		}
	}
	for _, p := range m.state.products {
		if p.SKU == product.SKU {
			return fmt.Errorf("sku %s: %w", product.SKU, gorm.ErrDuplicatedKey)
		}
	}
	m.state.productSeq++
	product.ID = m.state.productSeq
	m.state.products = append(m.state.products, *product)
	return nil
}

func (m *memStore) UpdateProduct(_ context.Context, product *models.Product) error {
	for i, p := range m.state.products {
		if p.ID == product.ID {
			p.Name = product.Name
			p.Description = product.Description
			p.HaveGlass = product.HaveGlass
			p.OrientationChoice = product.OrientationChoice
			m.state.products[i] = p
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memStore) CountProducts(context.Context) (int64, error) {
	return int64(len(m.state.products)), nil
}

func (m *memStore) TruncateProducts(context.Context) error {
	if m.failTruncate != nil {
		return m.failTruncate
	}
	m.state.products = nil
	m.state.photos = nil
	m.state.productSeq = 0
	m.state.photoSeq = 0
	return nil
}

func (m *memStore) ListPhotos(_ context.Context, productID uint) ([]models.ProductPhoto, error) {
	var out []models.ProductPhoto
	for _, p := range m.state.photos {
		if p.ProductID == productID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) CreatePhoto(_ context.Context, photo *models.ProductPhoto) error {
	if m.failCreatePhoto != nil {
		if err := m.failCreatePhoto(photo); err != nil {
			return err
		}
	}
	found := false
	for _, p := range m.state.products {
		found = found || p.ID == photo.ProductID
	}
	if !found {
		return fmt.Errorf("photo for product %d: foreign key violation", photo.ProductID)
	}
	for _, p := range m.state.photos {
		if p.ProductID == photo.ProductID && p.Photo == photo.Photo {
			return fmt.Errorf("photo %s: %w", photo.Photo, gorm.ErrDuplicatedKey)
		}
	}
	m.state.photoSeq++
	photo.ID = m.state.photoSeq
	m.state.photos = append(m.state.photos, *photo)
	return nil
}

// helpers for assertions

func (m *memStore) product(sku string) *models.Product {
	p, err := m.FindProductBySKU(context.Background(), sku)
	if err != nil {
		return nil
	}
	return p
}

func (m *memStore) photosOf(sku string) []models.ProductPhoto {
	p := m.product(sku)
	if p == nil {
		return nil
	}
	photos, _ := m.ListPhotos(context.Background(), p.ID)
	return photos
}

var _ Store = (*memStore)(nil)
var _ Store = (*GormStore)(nil)
