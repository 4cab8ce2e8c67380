package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. SKUs are unique per owner.
type Product struct {
	BaseModel
	SoftDeletable
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null;check:price > 0" json:"price"`
	StockQuantity int             `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
	SKU           string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_products_owner_sku,where:deleted_at IS NULL" json:"sku"`
	ImageURL      string          `gorm:"type:varchar(255)" json:"image_url,omitempty"`
	IsActive      bool            `gorm:"not null;default:true" json:"is_active"`
	CategoryID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"category_id"`
	Category      *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	OwnerID       uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_products_owner_sku,where:deleted_at IS NULL" json:"owner_id"`
	Owner         *User           `gorm:"foreignKey:OwnerID" json:"-"`
}
