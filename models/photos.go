package models

// PhotoDependency names the variant axis a photo illustrates.
type PhotoDependency string

const (
	PhotoDependsOnColor PhotoDependency = "color"
	PhotoDependsOnSize  PhotoDependency = "size"
	PhotoDependsOnGlass PhotoDependency = "glass"
)

// ProductPhoto is an image of a product. Photo holds the web path and is
// unique within a product; at most one photo per product has IsMain set.
type ProductPhoto struct {
	ID         uint            `gorm:"primaryKey"`
	ProductID  uint            `gorm:"not null;uniqueIndex:idx_product_photo"`
	Photo      string          `gorm:"not null;uniqueIndex:idx_product_photo"`
	IsMain     bool            `gorm:"not null;default:false"`
	Dependency PhotoDependency `gorm:"type:varchar(16);not null;default:'color'"`
	ColorID    uint            `gorm:"not null"`
	Color      ProductColor    `gorm:"foreignKey:ColorID"`
	SizeID     uint            `gorm:"not null"`
	Size       ProductSize     `gorm:"foreignKey:SizeID"`
	WithGlass  *string
}

func (p *ProductPhoto) TableName() string {
	return "product_photos"
}

// ProductSize is a lookup row referenced by photos.
type ProductSize struct {
	ID        uint `gorm:"primaryKey"`
	Height    int  `gorm:"not null"`
	Width     int  `gorm:"not null"`
	Thickness int  `gorm:"not null"`
}

func (s *ProductSize) TableName() string {
	return "product_sizes"
}

// ProductColor is a lookup row referenced by photos.
type ProductColor struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

func (c *ProductColor) TableName() string {
	return "product_colors"
}

// All lists the entities managed by migrations, parents first.
func All() []any {
	return []any{
		&Category{},
		&ProductSize{},
		&ProductColor{},
		&Product{},
		&ProductPhoto{},
	}
}
