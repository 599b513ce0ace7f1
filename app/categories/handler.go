package categories

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/reliktarte/catalog-service/app/api"
	"github.com/reliktarte/catalog-service/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CategoryResponse struct {
	Code                     string  `json:"code"`
	Name                     string  `json:"name"`
	IsGlassAvailable         bool    `json:"is_glass_available"`
	HaveMaterialChoice       bool    `json:"have_material_choice"`
	HaveOrientationChoice    bool    `json:"have_orientation_choice"`
	HaveTypeOfPlatbandChoice bool    `json:"have_type_of_platband_choice"`
	DefaultPrice             float64 `json:"default_price"`
}

type CategoryProvider interface {
	GetAllCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
}

type CategoryHandler struct {
	repo   CategoryProvider
	logger *zap.Logger
}

func NewCategoryHandler(r CategoryProvider, logger *zap.Logger) *CategoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryHandler{repo: r, logger: logger}
}

func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.GetAllCategories(r.Context())
	if err != nil {
		h.logger.Error("list categories", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}

	response := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		response[i] = CategoryResponse{
			Code:                     c.Code,
			Name:                     c.Name,
			IsGlassAvailable:         c.IsGlassAvailable,
			HaveMaterialChoice:       c.HaveMaterialChoice,
			HaveOrientationChoice:    c.HaveOrientationChoice,
			HaveTypeOfPlatbandChoice: c.HaveTypeOfPlatbandChoice,
			DefaultPrice:             c.DefaultPrice.InexactFloat64(),
		}
	}

	api.WriteJSON(w, http.StatusOK, response)
}

func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Code                     string           `json:"code"`
		Name                     string           `json:"name"`
		IsGlassAvailable         bool             `json:"is_glass_available"`
		HaveMaterialChoice       bool             `json:"have_material_choice"`
		HaveOrientationChoice    bool             `json:"have_orientation_choice"`
		HaveTypeOfPlatbandChoice bool             `json:"have_type_of_platband_choice"`
		DefaultPrice             *decimal.Decimal `json:"default_price"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	input.Code = strings.TrimSpace(input.Code)
	input.Name = strings.TrimSpace(input.Name)
	if input.Code == "" || input.Name == "" {
		api.WriteError(w, http.StatusBadRequest, "Missing code or name")
		return
	}
	if input.DefaultPrice != nil && input.DefaultPrice.IsNegative() {
		api.WriteError(w, http.StatusBadRequest, "Default price must not be negative")
		return
	}

	category := &models.Category{
		Code:                     input.Code,
		Name:                     input.Name,
		IsGlassAvailable:         input.IsGlassAvailable,
		HaveMaterialChoice:       input.HaveMaterialChoice,
		HaveOrientationChoice:    input.HaveOrientationChoice,
		HaveTypeOfPlatbandChoice: input.HaveTypeOfPlatbandChoice,
	}
	if input.DefaultPrice != nil {
		category.DefaultPrice = *input.DefaultPrice
	}

	if err := h.repo.CreateCategory(r.Context(), category); err != nil {
		if errors.Is(err, models.ErrCategoryExists) {
			api.WriteError(w, http.StatusConflict, "Category already exists")
			return
		}
		h.logger.Error("create category", zap.String("code", category.Code), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	api.WriteJSON(w, http.StatusCreated, map[string]string{
		"message": "Category created successfully",
	})
}
