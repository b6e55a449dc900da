package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
)

// BulkInserter persists a batch of normalized products in one call.
type BulkInserter interface {
	BulkInsert(ctx context.Context, products []*models.Product) (*repository.BulkInsertResult, error)
}

// queueMsg is the slice of jetstream.Msg the worker touches. Ack removes the
// message from the work queue; Term poisons it permanently (no redelivery).
type queueMsg interface {
	Data() []byte
	Ack() error
	Term() error
}

// WorkerConfig tunes the polling loop.
type WorkerConfig struct {
	// FetchBatch is the maximum number of messages pulled per cycle.
	FetchBatch int
	// FetchWait bounds how long a fetch blocks when the queue is empty.
	FetchWait time.Duration
}

// Worker is the bulk-ingestion consumer. Per message it parses the batch,
// normalizes each record, performs one bulk insert for the survivors, and
// acknowledges the message once the attempt completes — whether or not every
// record made it. Record-level failures never abort the message; message-level
// failures never abort the loop. That trades completeness for availability, so
// losses are only visible through the logs.
type Worker struct {
	consumer   jetstream.Consumer
	repo       BulkInserter
	allowed    map[string]bool
	logger     *logrus.Entry
	fetchBatch int
	fetchWait  time.Duration
}

func NewWorker(consumer jetstream.Consumer, repo BulkInserter, logger *logrus.Logger, cfg WorkerConfig) *Worker {
	if cfg.FetchBatch <= 0 {
		cfg.FetchBatch = 10
	}
	if cfg.FetchWait <= 0 {
		cfg.FetchWait = 5 * time.Second
	}
	return &Worker{
		consumer:   consumer,
		repo:       repo,
		allowed:    DefaultAllowedFields(),
		logger:     logger.WithField("component", "bulk-worker"),
		fetchBatch: cfg.FetchBatch,
		fetchWait:  cfg.FetchWait,
	}
}

// Run polls the queue until ctx is cancelled. The cancellation check sits
// between poll cycles, so an in-flight message always finishes its processing
// attempt before the worker exits.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.WithFields(logrus.Fields{
		"fetchBatch": w.fetchBatch,
		"fetchWait":  w.fetchWait.String(),
	}).Info("Bulk ingestion worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Bulk ingestion worker stopping")
			return nil
		default:
		}

		batch, err := w.consumer.Fetch(w.fetchBatch, jetstream.FetchMaxWait(w.fetchWait))
		if err != nil {
			w.logger.WithError(err).Error("Failed to fetch messages")
			time.Sleep(time.Second)
			continue
		}

		for msg := range batch.Messages() {
			w.processMessage(ctx, msg)
		}
		if err := batch.Error(); err != nil {
			w.logger.WithError(err).Warn("Fetch batch ended with error")
		}
	}
}

// processMessage handles one queue message end to end.
func (w *Worker) processMessage(ctx context.Context, msg queueMsg) {
	batch, err := w.parseMessage(msg.Data())
	if err != nil {
		// Malformed bodies are permanently poisoned; redelivering them
		// could never succeed.
		w.logger.WithError(err).Error("Dropping malformed batch message")
		if termErr := msg.Term(); termErr != nil {
			w.logger.WithError(termErr).Error("Failed to terminate malformed message")
		}
		return
	}

	normalized := make([]*models.Product, 0, len(batch.Products))
	rejected := 0
	for i, raw := range batch.Products {
		product, err := Normalize(raw, batch.UserID, w.allowed)
		if err != nil {
			rejected++
			w.logger.WithFields(logrus.Fields{
				"userID": batch.UserID,
				"record": i,
			}).WithError(err).Warn("Record failed normalization, dropping")
			continue
		}
		normalized = append(normalized, product)
	}

	if len(normalized) > 0 {
		result, err := w.repo.BulkInsert(ctx, normalized)
		if err != nil {
			// Accepted data loss: the message is still acknowledged below.
			// Operators watch this log line.
			w.logger.WithFields(logrus.Fields{
				"userID":  batch.UserID,
				"records": len(normalized),
			}).WithError(err).Warn("Bulk insert failed for message")
		} else {
			entry := w.logger.WithFields(logrus.Fields{
				"userID":   batch.UserID,
				"inserted": result.Success,
				"failed":   result.Failed,
				"rejected": rejected,
			})
			entry.Info("Batch message processed")
			for _, insErr := range result.Errors {
				entry.WithFields(logrus.Fields{
					"record": insErr.Index,
					"sku":    insErr.SKU,
					"code":   insErr.Code,
				}).Warn(insErr.Message)
			}
		}
	} else {
		w.logger.WithFields(logrus.Fields{
			"userID":   batch.UserID,
			"rejected": rejected,
		}).Warn("No records survived normalization")
	}

	if err := msg.Ack(); err != nil {
		w.logger.WithError(err).Error("Failed to acknowledge message")
	}
}

// parseMessage decodes a batch message body. json.Number decoding keeps
// prices exact until the normalizer converts them to decimals.
func (w *Worker) parseMessage(data []byte) (*models.BatchMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var batch models.BatchMessage
	if err := dec.Decode(&batch); err != nil {
		return nil, fmt.Errorf("failed to parse batch message: %w", err)
	}
	if batch.SchemaVersion != models.BatchMessageSchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %d", batch.SchemaVersion)
	}
	return &batch, nil
}
