package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/reliktarte/catalog-service/app/api"
	"github.com/reliktarte/catalog-service/models"
	"go.uber.org/zap"
)

type Response struct {
	Total    int       `json:"total"`
	Products []Product `json:"products"`
}

type Category struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Product struct {
	SKU            string   `json:"sku"`
	Name           string   `json:"name"`
	Price          float64  `json:"price"`
	PriceOnRequest bool     `json:"price_on_request"`
	Category       Category `json:"category"`
	MainPhoto      string   `json:"main_photo,omitempty"`
}

type Photo struct {
	URL       string  `json:"url"`
	IsMain    bool    `json:"is_main"`
	WithGlass *string `json:"with_glass,omitempty"`
}

type ProductDetail struct {
	Product
	Description       models.Description `json:"description"`
	HaveGlass         bool               `json:"have_glass"`
	OrientationChoice bool               `json:"orientation_choice"`
	MaterialChoice    bool               `json:"material_choice"`
	Photos            []Photo            `json:"photos"`
}

type ProductProvider interface {
	GetFilteredProducts(ctx context.Context, offset, limit int, filters models.ProductFilters) ([]models.Product, int64, error)
	GetBySKU(ctx context.Context, sku string) (*models.Product, error)
}

type CatalogHandler struct {
	repo   ProductProvider
	logger *zap.Logger
}

func NewCatalogHandler(r ProductProvider, logger *zap.Logger) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{
		repo:   r,
		logger: logger,
	}
}

func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	offset := 0
	limit := 10

	if oStr := r.URL.Query().Get("offset"); oStr != "" {
		if o, err := strconv.Atoi(oStr); err == nil && o >= 0 {
			offset = o
		}
	}

	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if l, err := strconv.Atoi(lStr); err == nil {
			limit = min(max(l, 1), 100)
		}
	}

	filters := models.ProductFilters{
		CategoryCode: r.URL.Query().Get("category"),
	}
	if priceStr := r.URL.Query().Get("price_lt"); priceStr != "" {
		if val, err := strconv.ParseFloat(priceStr, 64); err == nil {
			filters.PriceLessThan = &val
		}
	}

	res, total, err := h.repo.GetFilteredProducts(r.Context(), offset, limit, filters)
	if err != nil {
		h.logger.Error("list products", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "failed to get products")
		return
	}

	products := make([]Product, len(res))
	for i := range res {
		products[i] = toProduct(&res[i])
	}

	api.WriteJSON(w, http.StatusOK, Response{
		Total:    int(total),
		Products: products,
	})
}

func (h *CatalogHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	sku := r.PathValue("sku")

	product, err := h.repo.GetBySKU(r.Context(), sku)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			api.WriteError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("get product", zap.String("sku", sku), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}

	photos := make([]Photo, len(product.Photos))
	for i, p := range product.Photos {
		photos[i] = Photo{
			URL:       p.Photo,
			IsMain:    p.IsMain,
			WithGlass: p.WithGlass,
		}
	}

	api.WriteJSON(w, http.StatusOK, ProductDetail{
		Product:           toProduct(product),
		Description:       product.Description.Data(),
		HaveGlass:         product.HaveGlass,
		OrientationChoice: product.OrientationChoice,
		MaterialChoice:    product.MaterialChoice,
		Photos:            photos,
	})
}

func toProduct(p *models.Product) Product {
	out := Product{
		SKU:            p.SKU,
		Name:           p.Name,
		Price:          p.Price.InexactFloat64(),
		PriceOnRequest: p.PriceOnRequest(),
		Category: Category{
			Code: p.Category.Code,
			Name: p.Category.Name,
		},
	}
	for _, photo := range p.Photos {
		if photo.IsMain {
			out.MainPhoto = photo.Photo
			break
		}
	}
	return out
}
