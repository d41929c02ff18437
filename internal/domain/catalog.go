package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category represents a storefront category
type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	ImagePath string    `json:"image_path" db:"image_path"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Brand represents a beverage brand; optional on products
type Brand struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Product represents a product in the catalog
type Product struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	Name              string          `json:"name" db:"name"`
	SKU               string          `json:"sku" db:"sku"`
	Description       string          `json:"description" db:"description"`
	Price             decimal.Decimal `json:"price" db:"price"`
	VolumeLiters      decimal.Decimal `json:"volume_liters" db:"volume_liters"`
	AlcoholPercent    decimal.Decimal `json:"alcohol_percent" db:"alcohol_percent"`
	PackageType       string          `json:"package_type" db:"package_type"`
	Stock             int             `json:"stock" db:"stock"`
	LowStockThreshold int             `json:"low_stock_threshold" db:"low_stock_threshold"`
	IsActive          bool            `json:"is_active" db:"is_active"`
	CategoryID        uuid.UUID       `json:"category_id" db:"category_id"`
	BrandID           *uuid.UUID      `json:"brand_id,omitempty" db:"brand_id"`
	MainImagePath     string          `json:"main_image_path,omitempty" db:"-"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// ProductImage represents an uploaded product image. At most one image per
// product carries the main flag; the database enforces this with a partial
// unique index.
type ProductImage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Path      string    `json:"path" db:"path"`
	IsMain    bool      `json:"is_main" db:"is_main"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Favorite links a client to a product they bookmarked
type Favorite struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
