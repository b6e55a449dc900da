package models

// BatchMessageSchemaVersion is the current wire version of BatchMessage.
// Consumers reject messages carrying any other version.
const BatchMessageSchemaVersion = 1

// ProductSubmission is a loosely-typed product record as submitted by a
// client. Field names may be aliases; values arrive as whatever JSON (or a
// spreadsheet cell) produced.
type ProductSubmission map[string]interface{}

// BatchMessage is the queue message body for one chunk of a bulk submission.
type BatchMessage struct {
	SchemaVersion int                 `json:"schema_version"`
	UserID        uint                `json:"user_id"`
	Products      []ProductSubmission `json:"products"`
}

// BulkProductsRequest is the payload for POST /products/bulk
type BulkProductsRequest struct {
	Products  []ProductSubmission `json:"products" binding:"required"`
	BatchSize int                 `json:"batch_size"`
}

// BulkProductsResponse reports how a submission was enqueued
type BulkProductsResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	TotalProducts int    `json:"totalProducts"`
	TotalMessages int    `json:"totalMessages"`
}

// BulkBatchSize bounds for BulkProductsRequest.BatchSize
const (
	MinBulkBatchSize     = 1
	MaxBulkBatchSize     = 200
	DefaultBulkBatchSize = 100
)
