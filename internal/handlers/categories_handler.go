package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/storage"
)

type CategoriesHandler struct {
	repo   *repository.CategoriesRepository
	media  storage.Store
	logger *logrus.Logger
}

func NewCategoriesHandler(repo *repository.CategoriesRepository, media storage.Store, logger *logrus.Logger) *CategoriesHandler {
	return &CategoriesHandler{
		repo:   repo,
		media:  media,
		logger: logger,
	}
}

// CreateCategory creates a new category
func (h *CategoriesHandler) CreateCategory(c *gin.Context) {
	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	if existing, err := h.repo.GetCategoryByName(c.Request.Context(), req.Name); err == nil && existing != nil {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DUPLICATE_NAME",
				Message: "A category with this name already exists",
				Field:   "name",
			},
		})
		return
	}

	category := &models.Category{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	}
	if err := h.repo.CreateCategory(c.Request.Context(), category); err != nil {
		h.logger.WithError(err).Error("Failed to create category")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "CREATE_FAILED",
				Message: "Failed to create category",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Data:    category,
	})
}

// GetCategory returns a single category by id
func (h *CategoriesHandler) GetCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	category, err := h.repo.GetCategoryByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Category not found",
				},
			})
			return
		}
		h.logger.WithError(err).Error("Failed to fetch category")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to fetch category",
			},
		})
		return
	}

	h.attachPictureURL(category)
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    category,
	})
}

// ListCategories returns a paginated category listing
func (h *CategoriesHandler) ListCategories(c *gin.Context) {
	var query struct {
		Page    int `form:"page,default=1"`
		PerPage int `form:"per_page,default=20"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PerPage < 1 || query.PerPage > 100 {
		query.PerPage = 20
	}

	categories, total, err := h.repo.ListCategories(c.Request.Context(), query.Page, query.PerPage)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list categories")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to list categories",
			},
		})
		return
	}

	for i := range categories {
		h.attachPictureURL(&categories[i])
	}
	c.JSON(http.StatusOK, models.CategoryListResponse{
		Success: true,
		Items:   categories,
		Total:   total,
		Page:    query.Page,
		PerPage: query.PerPage,
	})
}

// UpdateCategory applies a partial update
func (h *CategoriesHandler) UpdateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req models.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	if err := h.repo.UpdateCategory(c.Request.Context(), id, &req); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Category not found",
				},
			})
			return
		}
		h.logger.WithError(err).Error("Failed to update category")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPDATE_FAILED",
				Message: "Failed to update category",
			},
		})
		return
	}

	category, err := h.repo.GetCategoryByID(c.Request.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to reload category after update")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to fetch category",
			},
		})
		return
	}

	h.attachPictureURL(category)
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    category,
	})
}

// DeleteCategory removes a category. Products keep existing with their
// category reference cleared.
func (h *CategoriesHandler) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	category, err := h.repo.GetCategoryByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Category not found",
				},
			})
			return
		}
		h.logger.WithError(err).Error("Failed to fetch category")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to fetch category",
			},
		})
		return
	}

	if err := h.repo.DeleteCategory(c.Request.Context(), id); err != nil {
		h.logger.WithError(err).Error("Failed to delete category")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DELETE_FAILED",
				Message: "Failed to delete category",
			},
		})
		return
	}

	if category.PicturePath != nil {
		if err := h.media.Delete(c.Request.Context(), *category.PicturePath); err != nil {
			h.logger.WithError(err).Warn("Failed to delete category picture")
		}
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Category deleted",
	})
}

var allowedPictureTypes = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// UploadCategoryPicture stores a picture for the category and records its key.
func (h *CategoriesHandler) UploadCategoryPicture(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("picture")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "picture is required",
				Field:   "picture",
			},
		})
		return
	}

	ext := strings.ToLower(fileHeader.Filename[strings.LastIndex(fileHeader.Filename, ".")+1:])
	if !allowedPictureTypes["."+ext] {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UNSUPPORTED_MEDIA_TYPE",
				Message: "Picture must be png, jpg, jpeg, gif, or webp",
				Field:   "picture",
			},
		})
		return
	}

	category, err := h.repo.GetCategoryByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Category not found",
				},
			})
			return
		}
		h.logger.WithError(err).Error("Failed to fetch category")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to fetch category",
			},
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPLOAD_FAILED",
				Message: "Failed to read upload",
				Field:   "picture",
			},
		})
		return
	}
	defer file.Close()

	key := storage.NewKey(fileHeader.Filename)
	contentType := fileHeader.Header.Get("Content-Type")
	if err := h.media.Save(c.Request.Context(), key, contentType, file); err != nil {
		h.logger.WithError(err).Error("Failed to store category picture")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPLOAD_FAILED",
				Message: "Failed to store picture",
			},
		})
		return
	}

	if err := h.repo.SetCategoryPicture(c.Request.Context(), id, key); err != nil {
		h.logger.WithError(err).Error("Failed to record category picture")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPDATE_FAILED",
				Message: "Failed to update category",
			},
		})
		return
	}

	// Replace the old picture only after the new one is recorded.
	if category.PicturePath != nil && *category.PicturePath != key {
		if err := h.media.Delete(c.Request.Context(), *category.PicturePath); err != nil {
			h.logger.WithError(err).Warn("Failed to delete previous category picture")
		}
	}

	url := h.media.URL(key)
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    gin.H{"pictureUrl": url},
	})
}

func (h *CategoriesHandler) attachPictureURL(category *models.Category) {
	if category.PicturePath != nil {
		url := h.media.URL(*category.PicturePath)
		category.PictureURL = &url
	}
}
