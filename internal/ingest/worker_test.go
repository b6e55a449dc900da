package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
)

type fakeMsg struct {
	data   []byte
	acked  bool
	termed bool
}

func (m *fakeMsg) Data() []byte { return m.data }
func (m *fakeMsg) Ack() error   { m.acked = true; return nil }
func (m *fakeMsg) Term() error  { m.termed = true; return nil }

type mockBulkInserter struct {
	got    []*models.Product
	calls  int
	result *repository.BulkInsertResult
	err    error
}

func (m *mockBulkInserter) BulkInsert(_ context.Context, products []*models.Product) (*repository.BulkInsertResult, error) {
	m.calls++
	m.got = products
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &repository.BulkInsertResult{
		Total:   len(products),
		Success: len(products),
	}, nil
}

func newTestWorker(repo BulkInserter) *Worker {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewWorker(nil, repo, logger, WorkerConfig{})
}

func batchBody(t *testing.T, msg models.BatchMessage) []byte {
	t.Helper()
	body, err := json.Marshal(msg)
	assert.NoError(t, err)
	return body
}

func TestProcessMessageInsertsAndAcks(t *testing.T) {
	repo := &mockBulkInserter{}
	w := newTestWorker(repo)

	msg := &fakeMsg{data: batchBody(t, models.BatchMessage{
		SchemaVersion: models.BatchMessageSchemaVersion,
		UserID:        42,
		Products: []models.ProductSubmission{
			{"name": "Mesa", "price": "120.00"},
			{"name": "Silla", "price": "45.50"},
		},
	})}

	w.processMessage(context.Background(), msg)

	assert.Equal(t, 1, repo.calls)
	assert.Len(t, repo.got, 2)
	assert.Equal(t, uint(42), repo.got[0].CreatedByUserID)
	assert.Equal(t, "120", repo.got[0].Price.String())
	assert.True(t, msg.acked)
	assert.False(t, msg.termed)
}

// A record that fails normalization is dropped; the rest of the message is
// still inserted and the message acknowledged.
func TestProcessMessageIsolatesBadRecords(t *testing.T) {
	repo := &mockBulkInserter{}
	w := newTestWorker(repo)

	msg := &fakeMsg{data: batchBody(t, models.BatchMessage{
		SchemaVersion: models.BatchMessageSchemaVersion,
		UserID:        7,
		Products: []models.ProductSubmission{
			{"name": "Uno", "price": "1.00"},
			{"name": "Roto", "price": "abc"},
			{"name": "Dos", "price": "2.00"},
			{"name": "Tres", "price": "3.00"},
		},
	})}

	w.processMessage(context.Background(), msg)

	assert.Equal(t, 1, repo.calls)
	assert.Len(t, repo.got, 3)
	assert.Equal(t, "Uno", repo.got[0].Name)
	assert.Equal(t, "Dos", repo.got[1].Name)
	assert.Equal(t, "Tres", repo.got[2].Name)
	assert.True(t, msg.acked)
}

func TestProcessMessageMalformedBodyTerminated(t *testing.T) {
	repo := &mockBulkInserter{}
	w := newTestWorker(repo)

	msg := &fakeMsg{data: []byte("{not json")}

	w.processMessage(context.Background(), msg)

	assert.Equal(t, 0, repo.calls)
	assert.True(t, msg.termed)
	assert.False(t, msg.acked)
}

func TestProcessMessageUnknownSchemaVersionTerminated(t *testing.T) {
	repo := &mockBulkInserter{}
	w := newTestWorker(repo)

	msg := &fakeMsg{data: batchBody(t, models.BatchMessage{
		SchemaVersion: 99,
		UserID:        1,
		Products:      []models.ProductSubmission{{"name": "X", "price": "1.00"}},
	})}

	w.processMessage(context.Background(), msg)

	assert.Equal(t, 0, repo.calls)
	assert.True(t, msg.termed)
	assert.False(t, msg.acked)
}

// Persistence failures do not requeue the message: the attempt completed.
func TestProcessMessageAcksOnInsertFailure(t *testing.T) {
	repo := &mockBulkInserter{err: errors.New("all 2 products failed to insert")}
	w := newTestWorker(repo)

	msg := &fakeMsg{data: batchBody(t, models.BatchMessage{
		SchemaVersion: models.BatchMessageSchemaVersion,
		UserID:        5,
		Products: []models.ProductSubmission{
			{"name": "Uno", "price": "1.00"},
			{"name": "Dos", "price": "2.00"},
		},
	})}

	w.processMessage(context.Background(), msg)

	assert.Equal(t, 1, repo.calls)
	assert.True(t, msg.acked)
	assert.False(t, msg.termed)
}

func TestProcessMessageAcksWhenNothingSurvives(t *testing.T) {
	repo := &mockBulkInserter{}
	w := newTestWorker(repo)

	msg := &fakeMsg{data: batchBody(t, models.BatchMessage{
		SchemaVersion: models.BatchMessageSchemaVersion,
		UserID:        3,
		Products: []models.ProductSubmission{
			{"price": "1.00"},
		},
	})}

	w.processMessage(context.Background(), msg)

	assert.Equal(t, 0, repo.calls)
	assert.True(t, msg.acked)
}

func TestProcessMessagePartialInsertErrorsStillAcked(t *testing.T) {
	repo := &mockBulkInserter{result: &repository.BulkInsertResult{
		Total:   2,
		Success: 1,
		Failed:  1,
		Errors: []repository.BulkInsertError{
			{Index: 1, SKU: "dup-1", Code: "DUPLICATE_SKU", Message: "sku already exists"},
		},
	}}
	w := newTestWorker(repo)

	msg := &fakeMsg{data: batchBody(t, models.BatchMessage{
		SchemaVersion: models.BatchMessageSchemaVersion,
		UserID:        2,
		Products: []models.ProductSubmission{
			{"name": "Nuevo", "price": "1.00"},
			{"name": "Duplicado", "sku": "dup-1", "price": "2.00"},
		},
	})}

	w.processMessage(context.Background(), msg)

	assert.True(t, msg.acked)
	assert.False(t, msg.termed)
}
