package catalog

import (
	"context"

	"github.com/reliktarte/catalog-service/cache"
	"github.com/reliktarte/catalog-service/models"
)

// CacheNamespace holds every memoized catalog read. Imports invalidate it.
const CacheNamespace = "catalog"

type listArgs struct {
	Offset  int                   `json:"offset"`
	Limit   int                   `json:"limit"`
	Filters models.ProductFilters `json:"filters"`
}

type productPage struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
}

// CachedProvider memoizes a ProductProvider. Not-found and other errors
// pass through uncached.
type CachedProvider struct {
	list cache.Func[listArgs, productPage]
	get  cache.Func[string, *models.Product]
}

func NewCachedProvider(next ProductProvider, c *cache.Cache) *CachedProvider {
	return &CachedProvider{
		list: cache.Wrap[listArgs, productPage](c, CacheNamespace, "products.list", func(ctx context.Context, a listArgs) (productPage, error) {
			products, total, err := next.GetFilteredProducts(ctx, a.Offset, a.Limit, a.Filters)
			return productPage{Products: products, Total: total}, err
		}),
		get: cache.Wrap[string, *models.Product](c, CacheNamespace, "products.get", next.GetBySKU),
	}
}

func (p *CachedProvider) GetFilteredProducts(ctx context.Context, offset, limit int, filters models.ProductFilters) ([]models.Product, int64, error) {
	page, err := p.list(ctx, listArgs{Offset: offset, Limit: limit, Filters: filters})
	if err != nil {
		return nil, 0, err
	}
	return page.Products, page.Total, nil
}

func (p *CachedProvider) GetBySKU(ctx context.Context, sku string) (*models.Product, error) {
	return p.get(ctx, sku)
}
