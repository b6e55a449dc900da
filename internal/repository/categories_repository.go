package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"catalog-service/internal/models"
)

type CategoriesRepository struct {
	db *gorm.DB
}

func NewCategoriesRepository(db *gorm.DB) *CategoriesRepository {
	return &CategoriesRepository{db: db}
}

// CreateCategory creates a new category
func (r *CategoriesRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	category.CreatedAt = time.Now()
	category.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Create(category).Error
}

// GetCategoryByID retrieves a category by ID
func (r *CategoriesRepository) GetCategoryByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// GetCategoryByName retrieves a category by name (case-insensitive)
func (r *CategoriesRepository) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// ListCategories retrieves categories with pagination
func (r *CategoriesRepository) ListCategories(ctx context.Context, page, perPage int) ([]models.Category, int64, error) {
	var categories []models.Category
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Category{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	if err := query.Order("name ASC").Offset(offset).Limit(perPage).Find(&categories).Error; err != nil {
		return nil, 0, err
	}

	return categories, total, nil
}

// UpdateCategory applies non-nil fields from req to the category
func (r *CategoriesRepository) UpdateCategory(ctx context.Context, id uint, req *models.UpdateCategoryRequest) error {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Slug != nil {
		updates["slug"] = *req.Slug
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	result := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetCategoryPicture stores the storage key for the category picture
func (r *CategoriesRepository) SetCategoryPicture(ctx context.Context, id uint, key string) error {
	result := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Updates(map[string]interface{}{
		"picture_path": key,
		"updated_at":   time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteCategory deletes a category; products referencing it keep a NULL
// category_id via the FK constraint.
func (r *CategoriesRepository) DeleteCategory(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Category{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
