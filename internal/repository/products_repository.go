package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"catalog-service/internal/models"
)

const productCacheTTL = 5 * time.Minute

type ProductsRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewProductsRepository(db *gorm.DB, redisClient *redis.Client) *ProductsRepository {
	return &ProductsRepository{
		db:    db,
		redis: redisClient,
	}
}

// CreateProduct creates a new product
func (r *ProductsRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	return r.db.WithContext(ctx).Create(product).Error
}

// GetProductByID retrieves a product by ID with caching
func (r *ProductsRepository) GetProductByID(ctx context.Context, id uint) (*models.Product, error) {
	cacheKey := fmt.Sprintf("catalog:product:%d", id)

	if r.redis != nil {
		if val, err := r.redis.Get(ctx, cacheKey).Result(); err == nil {
			var product models.Product
			if err := json.Unmarshal([]byte(val), &product); err == nil {
				return &product, nil
			}
		}
	}

	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&product, id).Error; err != nil {
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(product); err == nil {
			r.redis.Set(ctx, cacheKey, data, productCacheTTL)
		}
	}

	return &product, nil
}

// GetProductBySKU retrieves a product by its SKU
func (r *ProductsRepository) GetProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts retrieves products with filters and pagination
func (r *ProductsRepository) ListProducts(ctx context.Context, req *models.ListProductsRequest) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{})

	if req.Name != nil && *req.Name != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(*req.Name)+"%")
	}
	if req.CategoryID != nil {
		query = query.Where("category_id = ?", *req.CategoryID)
	}
	if req.Available != nil {
		query = query.Where("available = ?", *req.Available)
	}
	if req.Discontinued != nil {
		query = query.Where("discontinued = ?", *req.Discontinued)
	}
	if req.MinPrice != nil {
		query = query.Where("price >= ?", *req.MinPrice)
	}
	if req.MaxPrice != nil {
		query = query.Where("price <= ?", *req.MaxPrice)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (req.Page - 1) * req.PerPage
	err := query.Preload("Category").
		Order("created_at DESC").
		Offset(offset).Limit(req.PerPage).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// UpdateProduct applies non-nil fields from req to the product
func (r *ProductsRepository) UpdateProduct(ctx context.Context, id uint, req *models.UpdateProductRequest) error {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.QuantityPerUnit != nil {
		updates["quantity_per_unit"] = *req.QuantityPerUnit
	}
	if req.UnitsInStock != nil {
		updates["units_in_stock"] = *req.UnitsInStock
	}
	if req.UnitsOnOrder != nil {
		updates["units_on_order"] = *req.UnitsOnOrder
	}
	if req.Discontinued != nil {
		updates["discontinued"] = *req.Discontinued
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Available != nil {
		updates["available"] = *req.Available
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}

	result := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.invalidateProductCaches(ctx, id)
	return nil
}

// DeleteProduct deletes a product
func (r *ProductsRepository) DeleteProduct(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.invalidateProductCaches(ctx, id)
	return nil
}

// ============================================================================
// Bulk Insert
// ============================================================================

// BulkInsertResult reports per-record outcomes of a bulk insert
type BulkInsertResult struct {
	Inserted []*models.Product
	Errors   []BulkInsertError
	Total    int
	Success  int
	Failed   int
}

// BulkInsertError is a single failed record within a bulk insert
type BulkInsertError struct {
	Index   int
	SKU     string
	Code    string
	Message string
}

// BulkInsert inserts products in one transaction with per-record failure
// isolation: a duplicate SKU or database error fails that record only. The
// call returns an error only when every record failed, which rolls the
// transaction back.
func (r *ProductsRepository) BulkInsert(ctx context.Context, products []*models.Product) (*BulkInsertResult, error) {
	result := &BulkInsertResult{
		Inserted: make([]*models.Product, 0, len(products)),
		Errors:   make([]BulkInsertError, 0),
		Total:    len(products),
	}

	if len(products) == 0 {
		return result, nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, product := range products {
			product.CreatedAt = time.Now()
			product.UpdatedAt = time.Now()

			var existing int64
			if err := tx.Model(&models.Product{}).
				Where("sku = ?", product.SKU).
				Count(&existing).Error; err != nil {
				result.Errors = append(result.Errors, BulkInsertError{
					Index:   i,
					SKU:     product.SKU,
					Code:    "DB_ERROR",
					Message: "failed to check for duplicate SKU",
				})
				continue
			}
			if existing > 0 {
				result.Errors = append(result.Errors, BulkInsertError{
					Index:   i,
					SKU:     product.SKU,
					Code:    "DUPLICATE_SKU",
					Message: fmt.Sprintf("product with SKU %q already exists", product.SKU),
				})
				continue
			}

			if err := tx.Create(product).Error; err != nil {
				result.Errors = append(result.Errors, BulkInsertError{
					Index:   i,
					SKU:     product.SKU,
					Code:    "INSERT_FAILED",
					Message: err.Error(),
				})
				continue
			}

			result.Inserted = append(result.Inserted, product)
		}

		result.Success = len(result.Inserted)
		result.Failed = len(result.Errors)

		if result.Success == 0 && result.Total > 0 {
			return fmt.Errorf("all %d products failed to insert", result.Total)
		}
		return nil
	})

	return result, err
}

// CountProducts returns the total number of products
func (r *ProductsRepository) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error
	return count, err
}

func (r *ProductsRepository) invalidateProductCaches(ctx context.Context, id uint) {
	if r.redis == nil {
		return
	}
	r.redis.Del(ctx, fmt.Sprintf("catalog:product:%d", id))
}
