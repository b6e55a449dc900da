package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog product
type Product struct {
	ID              uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string          `gorm:"type:varchar(255);not null;index" json:"name"`
	SKU             string          `gorm:"type:varchar(100);not null;uniqueIndex" json:"sku"`
	Description     *string         `gorm:"type:text" json:"description,omitempty"`
	QuantityPerUnit *string         `gorm:"type:varchar(100)" json:"quantityPerUnit,omitempty"`
	UnitsInStock    int             `gorm:"not null;default:0" json:"unitsInStock"`
	UnitsOnOrder    int             `gorm:"not null;default:0" json:"unitsOnOrder"`
	Discontinued    bool            `gorm:"not null;default:false" json:"discontinued"`
	Price           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Available       bool            `gorm:"not null;default:true" json:"available"`
	CategoryID      *uint           `gorm:"index" json:"categoryId,omitempty"`
	Category        *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	CreatedByUserID uint            `gorm:"index" json:"createdByUserId"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (Product) TableName() string {
	return "products"
}

// IsSellable is the availability business rule: not discontinued, flagged
// available, and priced at zero or above.
func (p *Product) IsSellable() bool {
	return !p.Discontinued && p.Available && !p.Price.IsNegative()
}

// CreateProductRequest is the payload for creating a single product
type CreateProductRequest struct {
	Name            string          `json:"name" binding:"required"`
	SKU             string          `json:"sku" binding:"required"`
	Description     *string         `json:"description"`
	QuantityPerUnit *string         `json:"quantityPerUnit"`
	UnitsInStock    *int            `json:"unitsInStock"`
	UnitsOnOrder    *int            `json:"unitsOnOrder"`
	Discontinued    bool            `json:"discontinued"`
	Price           decimal.Decimal `json:"price" binding:"required"`
	Available       *bool           `json:"available"`
	CategoryID      *uint           `json:"categoryId"`
}

// UpdateProductRequest is the payload for updating a product; nil fields are
// left untouched.
type UpdateProductRequest struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	QuantityPerUnit *string          `json:"quantityPerUnit"`
	UnitsInStock    *int             `json:"unitsInStock"`
	UnitsOnOrder    *int             `json:"unitsOnOrder"`
	Discontinued    *bool            `json:"discontinued"`
	Price           *decimal.Decimal `json:"price"`
	Available       *bool            `json:"available"`
	CategoryID      *uint            `json:"categoryId"`
}

// ListProductsRequest captures the query-string filters for product listing
type ListProductsRequest struct {
	Page         int              `form:"page,default=1"`
	PerPage      int              `form:"per_page,default=10"`
	Name         *string          `form:"name"`
	CategoryID   *uint            `form:"category_id"`
	Available    *bool            `form:"available"`
	Discontinued *bool            `form:"discontinued"`
	MinPrice     *decimal.Decimal `form:"min_price"`
	MaxPrice     *decimal.Decimal `form:"max_price"`
}

// ProductListResponse is a paginated product listing
type ProductListResponse struct {
	Success    bool      `json:"success"`
	Items      []Product `json:"items"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PerPage    int       `json:"perPage"`
	TotalPages int       `json:"totalPages"`
}
