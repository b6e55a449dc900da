// Package events provides the NATS JetStream transport for the bulk-product
// ingestion pipeline.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"

	"catalog-service/internal/models"
)

// Connect dials NATS with the reconnect policy used across the services.
func Connect(natsURL, clientName string, logger *logrus.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name(clientName),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}

// EnsureBulkStream creates or updates the bulk-import work queue stream.
// WorkQueue retention gives each message to exactly one consumer and removes
// it on ack.
func EnsureBulkStream(ctx context.Context, js jetstream.JetStream, stream, subject string) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      stream,
		Subjects:  []string{subject},
		Retention: jetstream.WorkQueuePolicy,
		Storage:   jetstream.FileStorage,
		MaxAge:    7 * 24 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure stream %s: %w", stream, err)
	}
	return nil
}

// BulkPublisher publishes batch messages for the ingestion worker.
type BulkPublisher struct {
	js      jetstream.JetStream
	subject string
	logger  *logrus.Entry
}

// NewBulkPublisher wraps an existing JetStream context. The caller owns the
// underlying connection.
func NewBulkPublisher(js jetstream.JetStream, subject string, logger *logrus.Logger) *BulkPublisher {
	return &BulkPublisher{
		js:      js,
		subject: subject,
		logger:  logger.WithField("component", "bulk-publisher"),
	}
}

// PublishBatch serializes one chunk of submissions together with the
// submitter identity and publishes it as a single message. Publish failures
// surface to the caller; retry policy belongs to the transport client.
func (p *BulkPublisher) PublishBatch(ctx context.Context, userID uint, products []models.ProductSubmission) error {
	msg := models.BatchMessage{
		SchemaVersion: models.BatchMessageSchemaVersion,
		UserID:        userID,
		Products:      products,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize batch message: %w", err)
	}

	if _, err := p.js.Publish(ctx, p.subject, body); err != nil {
		p.logger.WithFields(logrus.Fields{
			"userID":  userID,
			"records": len(products),
		}).WithError(err).Error("Failed to publish batch message")
		return fmt.Errorf("failed to publish batch: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"userID":  userID,
		"records": len(products),
		"bytes":   len(body),
	}).Debug("Batch message published")

	return nil
}
