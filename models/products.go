package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Product represents a product in the catalog.
// SKU is the business key: imports look products up by it and never
// insert a second row for the same value.
type Product struct {
	ID                uint                            `gorm:"primaryKey"`
	SKU               string                          `gorm:"column:sku;uniqueIndex;not null"`
	Name              string                          `gorm:"not null"`
	Price             decimal.Decimal                 `gorm:"type:decimal(10,2);not null"`
	Description       datatypes.JSONType[Description] `gorm:"type:jsonb"`
	HaveGlass         bool                            `gorm:"not null;default:false"`
	OrientationChoice bool                            `gorm:"not null;default:false"`
	MaterialChoice    bool                            `gorm:"not null;default:false"`
	CategoryID        uint                            `gorm:"not null"`
	Category          Category                        `gorm:"foreignKey:CategoryID"`
	Photos            []ProductPhoto                  `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (p *Product) TableName() string {
	return "products"
}

// PriceOnRequest reports whether the product has no list price yet.
func (p *Product) PriceOnRequest() bool {
	return p.Price.IsZero()
}

// Description is the structured document stored in products.description.
type Description struct {
	Text      string       `json:"text"`
	Details   []DetailLine `json:"details"`
	Finishing *Finishing   `json:"finishing,omitempty"`
}

type DetailLine struct {
	Value string `json:"value"`
}

type Finishing struct {
	Covering Covering `json:"covering"`
}

type Covering struct {
	Text       string   `json:"text"`
	Advantages []string `json:"advantages"`
}
