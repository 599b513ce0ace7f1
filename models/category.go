package models

import "github.com/shopspring/decimal"

// Category groups products. The capability flags gate which optional
// product attributes are meaningful for products of this category.
type Category struct {
	ID                       uint            `gorm:"primaryKey"`
	Code                     string          `gorm:"uniqueIndex;not null"`
	Name                     string          `gorm:"not null"`
	IsGlassAvailable         bool            `gorm:"not null;default:false"`
	HaveMaterialChoice       bool            `gorm:"not null;default:false"`
	HaveOrientationChoice    bool            `gorm:"not null;default:false"`
	HaveTypeOfPlatbandChoice bool            `gorm:"not null;default:false"`
	DefaultPrice             decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
}

func (c *Category) TableName() string {
	return "categories"
}
