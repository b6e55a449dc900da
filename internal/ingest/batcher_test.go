package ingest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"catalog-service/internal/models"
)

func submissions(n int) []models.ProductSubmission {
	records := make([]models.ProductSubmission, n)
	for i := range records {
		records[i] = models.ProductSubmission{
			"name":  fmt.Sprintf("Product %d", i),
			"price": "10.00",
		}
	}
	return records
}

func TestValidateBatchSize(t *testing.T) {
	assert.NoError(t, ValidateBatchSize(models.MinBulkBatchSize))
	assert.NoError(t, ValidateBatchSize(models.DefaultBulkBatchSize))
	assert.NoError(t, ValidateBatchSize(models.MaxBulkBatchSize))

	assert.Error(t, ValidateBatchSize(0))
	assert.Error(t, ValidateBatchSize(-1))
	assert.Error(t, ValidateBatchSize(models.MaxBulkBatchSize+1))
}

func TestSplitBatchesEmpty(t *testing.T) {
	assert.Nil(t, SplitBatches(nil, 100))
	assert.Nil(t, SplitBatches([]models.ProductSubmission{}, 100))
}

func TestSplitBatchesExactMultiple(t *testing.T) {
	chunks := SplitBatches(submissions(200), 100)

	assert.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 100)
}

func TestSplitBatchesRemainder(t *testing.T) {
	chunks := SplitBatches(submissions(250), 100)

	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[2], 50)
}

func TestSplitBatchesSmallerThanBatch(t *testing.T) {
	chunks := SplitBatches(submissions(3), 100)

	assert.Len(t, chunks, 1)
	assert.Len(t, chunks[0], 3)
}

// Concatenating the chunks must reproduce the input in order, for any valid
// batch size.
func TestSplitBatchesPreservesOrder(t *testing.T) {
	records := submissions(57)

	for _, size := range []int{1, 2, 7, 57, 100, 200} {
		chunks := SplitBatches(records, size)

		var flat []models.ProductSubmission
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk), size)
			flat = append(flat, chunk...)
		}
		assert.Equal(t, records, flat, "batch size %d", size)
	}
}
