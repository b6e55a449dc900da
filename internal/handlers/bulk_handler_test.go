package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"catalog-service/internal/models"
)

type mockPublisher struct {
	batches [][]models.ProductSubmission
	userIDs []uint
	err     error
}

func (m *mockPublisher) PublishBatch(_ context.Context, userID uint, products []models.ProductSubmission) error {
	if m.err != nil {
		return m.err
	}
	m.userIDs = append(m.userIDs, userID)
	m.batches = append(m.batches, products)
	return nil
}

func newBulkRouter(publisher BatchPublisher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	h := NewBulkHandler(publisher, logger)

	router := gin.New()
	// Stands in for the auth middleware.
	router.Use(func(c *gin.Context) {
		c.Set("user_id", uint(42))
	})
	router.POST("/products/bulk", h.BulkCreateProducts)
	router.POST("/products/bulk/upload", h.BulkUploadProducts)
	router.GET("/products/bulk/template", h.DownloadTemplate)
	return router
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func namedSubmissions(n int) []models.ProductSubmission {
	out := make([]models.ProductSubmission, n)
	for i := range out {
		out[i] = models.ProductSubmission{"name": "P", "price": "1.00"}
	}
	return out
}

func TestBulkCreateProductsEnqueues(t *testing.T) {
	publisher := &mockPublisher{}
	router := newBulkRouter(publisher)

	w := postJSON(router, "/products/bulk", models.BulkProductsRequest{
		Products:  namedSubmissions(250),
		BatchSize: 100,
	})

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp models.BulkProductsResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 250, resp.TotalProducts)
	assert.Equal(t, 3, resp.TotalMessages)

	assert.Len(t, publisher.batches, 3)
	assert.Len(t, publisher.batches[0], 100)
	assert.Len(t, publisher.batches[2], 50)
	assert.Equal(t, uint(42), publisher.userIDs[0])
}

func TestBulkCreateProductsDefaultBatchSize(t *testing.T) {
	publisher := &mockPublisher{}
	router := newBulkRouter(publisher)

	w := postJSON(router, "/products/bulk", models.BulkProductsRequest{
		Products: namedSubmissions(150),
	})

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Len(t, publisher.batches, 2)
	assert.Len(t, publisher.batches[0], models.DefaultBulkBatchSize)
}

func TestBulkCreateProductsInvalidBatchSize(t *testing.T) {
	publisher := &mockPublisher{}
	router := newBulkRouter(publisher)

	for _, size := range []int{-1, 201, 1000} {
		w := postJSON(router, "/products/bulk", models.BulkProductsRequest{
			Products:  namedSubmissions(5),
			BatchSize: size,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code, "batch size %d", size)
		assert.Empty(t, publisher.batches)
	}
}

func TestBulkCreateProductsEmpty(t *testing.T) {
	router := newBulkRouter(&mockPublisher{})

	w := postJSON(router, "/products/bulk", map[string]interface{}{
		"products": []models.ProductSubmission{},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBulkCreateProductsQueueUnavailable(t *testing.T) {
	router := newBulkRouter(nil)

	w := postJSON(router, "/products/bulk", models.BulkProductsRequest{
		Products: namedSubmissions(1),
	})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp models.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "QUEUE_UNAVAILABLE", resp.Error.Code)
}

func TestBulkCreateProductsPublishFailure(t *testing.T) {
	router := newBulkRouter(&mockPublisher{err: errors.New("nats: connection closed")})

	w := postJSON(router, "/products/bulk", models.BulkProductsRequest{
		Products: namedSubmissions(5),
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestBulkUploadProductsCSV(t *testing.T) {
	publisher := &mockPublisher{}
	router := newBulkRouter(publisher)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "products.csv")
	assert.NoError(t, err)
	_, err = io.WriteString(part, "name,price,stock\nMesa,120.00,4\nSilla,45.50,\n")
	assert.NoError(t, err)
	assert.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/products/bulk/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Len(t, publisher.batches, 1)
	assert.Len(t, publisher.batches[0], 2)
	assert.Equal(t, "Mesa", publisher.batches[0][0]["name"])
	assert.Equal(t, "120.00", publisher.batches[0][0]["price"])
	// Empty cells are omitted, not empty strings.
	_, hasStock := publisher.batches[0][1]["stock"]
	assert.False(t, hasStock)
}

func TestBulkUploadProductsUnsupportedType(t *testing.T) {
	router := newBulkRouter(&mockPublisher{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "products.txt")
	io.WriteString(part, "whatever")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/products/bulk/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownloadTemplate(t *testing.T) {
	router := newBulkRouter(&mockPublisher{})

	req := httptest.NewRequest(http.MethodGet, "/products/bulk/template", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "product_import_template.xlsx")
	assert.NotZero(t, w.Body.Len())
}

func TestParseCSVHeaderOnly(t *testing.T) {
	subs, err := parseCSV(strings.NewReader("name,price\n"))
	assert.NoError(t, err)
	assert.Empty(t, subs)
}
