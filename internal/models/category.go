package models

import "time"

// Category represents a product category
type Category struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(150);not null;uniqueIndex" json:"name"`
	Slug        *string   `gorm:"type:varchar(150);uniqueIndex" json:"slug,omitempty"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	PicturePath *string   `gorm:"type:varchar(1024)" json:"-"`
	PictureURL  *string   `gorm:"-" json:"pictureUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Category) TableName() string {
	return "categories"
}

// CreateCategoryRequest is the payload for creating a category
type CreateCategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
}

// UpdateCategoryRequest is the payload for updating a category
type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
}

// CategoryListResponse is a paginated category listing
type CategoryListResponse struct {
	Success bool       `json:"success"`
	Items   []Category `json:"items"`
	Total   int64      `json:"total"`
	Page    int        `json:"page"`
	PerPage int        `json:"perPage"`
}
