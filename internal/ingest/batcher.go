// Package ingest implements the asynchronous bulk-product pipeline: chunking
// submissions for transport, normalizing loosely-typed records, and the queue
// worker that persists them.
package ingest

import (
	"fmt"

	"catalog-service/internal/models"
)

// ValidateBatchSize checks the transport chunk size bounds. Out-of-range
// values are a configuration error and must be rejected before anything is
// enqueued.
func ValidateBatchSize(size int) error {
	if size < models.MinBulkBatchSize || size > models.MaxBulkBatchSize {
		return fmt.Errorf("batch_size must be between %d and %d, got %d",
			models.MinBulkBatchSize, models.MaxBulkBatchSize, size)
	}
	return nil
}

// SplitBatches splits records into contiguous, order-preserving chunks of at
// most batchSize records; the last chunk may be shorter. batchSize must
// already be validated with ValidateBatchSize.
func SplitBatches(records []models.ProductSubmission, batchSize int) [][]models.ProductSubmission {
	if len(records) == 0 {
		return nil
	}
	chunks := make([][]models.ProductSubmission, 0, (len(records)+batchSize-1)/batchSize)
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}
