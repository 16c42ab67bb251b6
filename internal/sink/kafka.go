// Package sink moves resolved coordinates from map sessions to the host store through Kafka.
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"maps-api/internal/config"
	"maps-api/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Batch is one coordinate write-back published on the topic.
type Batch struct {
	Model      string                    `json:"model"`
	Updates    []models.CoordinateUpdate `json:"updates"`
	ResolvedAt time.Time                 `json:"resolved_at"`
}

// KafkaWriter is the subset of *kafka.Writer the publisher uses.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaReader is the subset of *kafka.Reader the consumer uses.
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher publishes coordinate batches instead of writing them to the store directly.
type Publisher struct {
	writer KafkaWriter
	now    func() time.Time
}

// NewPublisher creates a publisher for the configured topic.
func NewPublisher(cfg config.KafkaConfig) *Publisher {
	return NewPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	})
}

// NewPublisherWithWriter wraps an existing writer.
func NewPublisherWithWriter(w KafkaWriter) *Publisher {
	return &Publisher{writer: w, now: time.Now}
}

// UpdateCoordinates publishes updates keyed by model so one model's batches stay ordered.
func (p *Publisher) UpdateCoordinates(ctx context.Context, model string, updates []models.CoordinateUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	b, err := json.Marshal(Batch{Model: model, Updates: updates, ResolvedAt: p.now().UTC()})
	if err != nil {
		return fmt.Errorf("sink: failed to encode batch: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(model), Value: b}); err != nil {
		return fmt.Errorf("sink: failed to publish batch: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Applier writes a batch to the host store.
type Applier interface {
	UpdateCoordinates(ctx context.Context, model string, updates []models.CoordinateUpdate) error
}

// Consumer applies published batches and commits each message once it is written.
type Consumer struct {
	reader  KafkaReader
	applier Applier
	backoff time.Duration
}

// NewConsumer creates a consumer group reader for the configured topic.
func NewConsumer(cfg config.KafkaConfig, applier Applier) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		CommitInterval: 0,
		MinBytes:       1,
		MaxBytes:       10e6,
	})
	return NewConsumerWithReader(reader, applier)
}

// NewConsumerWithReader wraps an existing reader.
func NewConsumerWithReader(r KafkaReader, applier Applier) *Consumer {
	return &Consumer{reader: r, applier: applier, backoff: time.Second}
}

// Run consumes until ctx is done. A batch that cannot be decoded is committed and skipped;
// a batch that cannot be written is retried.
func (c *Consumer) Run(ctx context.Context) error {
	log.Info().Msg("starting coordinate write-back consumer")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("sink: failed to fetch message: %w", err)
		}

		var batch Batch
		if err := json.Unmarshal(msg.Value, &batch); err != nil || batch.Model == "" {
			log.Error().Err(err).Int64("offset", msg.Offset).Msg("skipping malformed coordinate batch")
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				log.Warn().Err(err).Int64("offset", msg.Offset).Msg("failed to commit offset")
			}
			continue
		}

		if !c.apply(ctx, batch) {
			return nil
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			log.Warn().Err(err).Int64("offset", msg.Offset).Msg("failed to commit offset")
		}
	}
}

// apply retries until the batch is written. It returns false when ctx ends first.
func (c *Consumer) apply(ctx context.Context, batch Batch) bool {
	for {
		err := c.applier.UpdateCoordinates(ctx, batch.Model, batch.Updates)
		if err == nil {
			log.Debug().Str("model", batch.Model).Int("count", len(batch.Updates)).Msg("applied coordinate batch")
			return true
		}
		log.Error().Err(err).Str("model", batch.Model).Msg("failed to apply coordinate batch, retrying")
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.backoff):
		}
	}
}

// Close closes the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
