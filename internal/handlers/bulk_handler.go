package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"catalog-service/internal/ingest"
	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
)

// BatchPublisher enqueues one batch message per chunk of submissions.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, userID uint, products []models.ProductSubmission) error
}

// BulkHandler accepts bulk product submissions, chunks them, and hands them
// to the queue. Persistence happens asynchronously in the worker.
type BulkHandler struct {
	publisher BatchPublisher
	logger    *logrus.Logger
}

func NewBulkHandler(publisher BatchPublisher, logger *logrus.Logger) *BulkHandler {
	return &BulkHandler{
		publisher: publisher,
		logger:    logger,
	}
}

// BulkCreateProducts accepts a JSON array of product submissions and enqueues
// them for asynchronous ingestion. Returns 202: acceptance is not insertion.
func (h *BulkHandler) BulkCreateProducts(c *gin.Context) {
	var req models.BulkProductsRequest
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

	h.enqueue(c, req.Products, req.BatchSize)
}

// BulkUploadProducts accepts a CSV or XLSX file of product submissions. The
// first row is the header; headers go through the same alias resolution as
// JSON field names, in the worker.
func (h *BulkHandler) BulkUploadProducts(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "file is required",
				Field:   "file",
			},
		})
		return
	}

	submissions, err := parseUpload(fileHeader)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "PARSE_ERROR",
				Message: err.Error(),
				Field:   "file",
			},
		})
		return
	}

	batchSize := 0
	if raw := c.PostForm("batch_size"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &batchSize); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "VALIDATION_ERROR",
					Message: "batch_size must be an integer",
					Field:   "batch_size",
				},
			})
			return
		}
	}

	h.enqueue(c, submissions, batchSize)
}

// enqueue validates, chunks, and publishes; shared by the JSON and file paths.
func (h *BulkHandler) enqueue(c *gin.Context, products []models.ProductSubmission, batchSize int) {
	if h.publisher == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "QUEUE_UNAVAILABLE",
				Message: "Bulk ingestion is not available",
			},
		})
		return
	}

	if len(products) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "products must not be empty",
				Field:   "products",
			},
		})
		return
	}

	if batchSize == 0 {
		batchSize = models.DefaultBulkBatchSize
	}
	if err := ingest.ValidateBatchSize(batchSize); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
				Field:   "batch_size",
			},
		})
		return
	}

	userID, _ := middleware.UserID(c)
	chunks := ingest.SplitBatches(products, batchSize)

	for i, chunk := range chunks {
		if err := h.publisher.PublishBatch(c.Request.Context(), userID, chunk); err != nil {
			h.logger.WithError(err).WithFields(logrus.Fields{
				"userID": userID,
				"chunk":  i,
			}).Error("Failed to publish batch")
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "ENQUEUE_FAILED",
					Message: fmt.Sprintf("Failed to enqueue batch %d of %d", i+1, len(chunks)),
				},
			})
			return
		}
	}

	h.logger.WithFields(logrus.Fields{
		"userID":   userID,
		"products": len(products),
		"messages": len(chunks),
	}).Info("Bulk submission enqueued")

	c.JSON(http.StatusAccepted, models.BulkProductsResponse{
		Success:       true,
		Message:       "Products accepted for processing",
		TotalProducts: len(products),
		TotalMessages: len(chunks),
	})
}

// templateHeaders are the columns of the downloadable import template.
var templateHeaders = []string{
	"name", "sku", "description", "quantity_per_unit",
	"units_in_stock", "units_on_order", "price", "available",
	"discontinued", "category_id",
}

// DownloadTemplate returns an XLSX template for bulk uploads.
func (h *BulkHandler) DownloadTemplate(c *gin.Context) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, header := range templateHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}
	// One example row so the expected types are obvious.
	example := []interface{}{"Round Table", "RT-001", "Solid oak", "1 box", 12, 0, "349.50", true, false, 1}
	for i, value := range example {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheet, cell, value)
	}

	c.Header("Content-Disposition", `attachment; filename="product_import_template.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		h.logger.WithError(err).Error("Failed to write import template")
	}
}

// parseUpload turns a CSV or XLSX upload into product submissions. Cell
// values stay strings; the worker's normalizer does the type coercion.
func parseUpload(fileHeader *multipart.FileHeader) ([]models.ProductSubmission, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(path.Ext(fileHeader.Filename)) {
	case ".csv":
		return parseCSV(file)
	case ".xlsx":
		return parseXLSX(file)
	default:
		return nil, fmt.Errorf("unsupported file type %q, expected .csv or .xlsx", path.Ext(fileHeader.Filename))
	}
}

func parseCSV(r io.Reader) ([]models.ProductSubmission, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	var submissions []models.ProductSubmission
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if sub := rowToSubmission(header, row); len(sub) > 0 {
			submissions = append(submissions, sub)
		}
	}
	return submissions, nil
}

func parseXLSX(r io.Reader) ([]models.ProductSubmission, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	var submissions []models.ProductSubmission
	for _, row := range rows[1:] {
		if sub := rowToSubmission(header, row); len(sub) > 0 {
			submissions = append(submissions, sub)
		}
	}
	return submissions, nil
}

func rowToSubmission(header, row []string) models.ProductSubmission {
	sub := models.ProductSubmission{}
	for i, key := range header {
		if i >= len(row) {
			break
		}
		value := strings.TrimSpace(row[i])
		if key = strings.TrimSpace(key); key == "" || value == "" {
			continue
		}
		sub[key] = value
	}
	return sub
}
