// Package consumer applies document events read from Kafka to the search
// service. Producers publish one event per add or remove, keyed by the
// document id so every change to a document lands on the same partition.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
)

const (
	OpAdd    = "add"
	OpRemove = "remove"
)

// DocumentEvent is the wire format of the documents topic.
type DocumentEvent struct {
	Op         string          `json:"op" yaml:"op" toml:"op"`
	DocumentID int             `json:"document_id" yaml:"document_id" toml:"document_id"`
	Text       string          `json:"text,omitempty" yaml:"text" toml:"text"`
	Status     document.Status `json:"status,omitempty" yaml:"status" toml:"status"`
	Ratings    []int           `json:"ratings,omitempty" yaml:"ratings" toml:"ratings"`
}

// Key returns the partition key for the event.
func (e DocumentEvent) Key() string {
	return strconv.Itoa(e.DocumentID)
}

// Validate checks the fields required by Op.
func (e DocumentEvent) Validate() error {
	switch e.Op {
	case OpAdd:
		if !e.Status.Valid() {
			return apperrors.InvalidArgumentf("document %d: invalid status %d", e.DocumentID, e.Status)
		}
		return nil
	case OpRemove:
		return nil
	default:
		return apperrors.InvalidArgumentf("document %d: unknown op %q", e.DocumentID, e.Op)
	}
}

// Indexer is the subset of the search service the consumer drives.
type Indexer interface {
	AddDocument(ctx context.Context, id int, text string, status document.Status, ratings []int) error
	RemoveDocument(ctx context.Context, id int) error
}

// DocumentConsumer wraps a Kafka consumer to drive the search service.
type DocumentConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates a DocumentConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *DocumentConsumer {
	return &DocumentConsumer{
		consumer: kafkaConsumer,
		logger:   logger.WithComponent("document-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (dc *DocumentConsumer) Start(ctx context.Context) error {
	dc.logger.Info("document consumer starting")
	return dc.consumer.Start(ctx)
}

// HandleMessage returns a Kafka MessageHandler that applies each document
// event to idx. Undecodable events and events the engine rejects (bad
// arguments, duplicate or unknown ids) are logged and committed: replaying
// them would fail the same way. m may be nil.
func HandleMessage(idx Indexer, m *metrics.Metrics) kafka.MessageHandler {
	log := logger.WithComponent("document-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[DocumentEvent](value)
		if err != nil {
			log.Error("failed to decode document event",
				"error", err,
				"key", string(key),
			)
			observe(m, "unknown", "malformed")
			return nil
		}

		log.Debug("processing document event",
			"op", event.Op,
			"document_id", event.DocumentID,
		)

		err = event.Validate()
		if err == nil {
			err = apply(ctx, idx, event)
		}
		switch {
		case err == nil:
			observe(m, event.Op, "applied")
			return nil
		case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrDocumentNotFound):
			log.Warn("document event rejected",
				"op", event.Op,
				"document_id", event.DocumentID,
				"error", err,
			)
			observe(m, event.Op, "rejected")
			return nil
		default:
			observe(m, event.Op, "failed")
			return fmt.Errorf("applying %s event for document %d: %w", event.Op, event.DocumentID, err)
		}
	}
}

func apply(ctx context.Context, idx Indexer, event DocumentEvent) error {
	if event.Op == OpRemove {
		return idx.RemoveDocument(ctx, event.DocumentID)
	}
	return idx.AddDocument(ctx, event.DocumentID, event.Text, event.Status, event.Ratings)
}

func observe(m *metrics.Metrics, op, status string) {
	if m == nil {
		return
	}
	m.EventsConsumedTotal.WithLabelValues(op, status).Inc()
}
