package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/geoguess-service/internal/config"
	"github.com/couchcryptid/geoguess-service/internal/domain"
	"github.com/couchcryptid/geoguess-service/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	maxAttempts    = 3
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 2 * time.Second
)

// messageWriter is the subset of kafkago.Writer used by Publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces finished-round events to a Kafka topic.
// It implements domain.EventPublisher.
type Publisher struct {
	writer  messageWriter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates a Kafka producer for the configured round topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger, metrics: metrics}
}

// PublishRound serializes and writes one event keyed by session id, so a
// session's rounds land on one partition in order. Transient write errors
// are retried with backoff a bounded number of times.
func (p *Publisher) PublishRound(ctx context.Context, event domain.RoundEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		p.metrics.EventsPublished.WithLabelValues("error").Inc()
		return err
	}

	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err = p.writer.WriteMessages(ctx, msg)
		if err == nil {
			p.metrics.EventsPublished.WithLabelValues("success").Inc()
			return nil
		}
		if attempt == maxAttempts || ctx.Err() != nil {
			break
		}
		p.logger.Warn("publish round event failed, retrying",
			"error", err,
			"session_id", event.SessionID,
			"attempt", attempt,
		)
		if !retry.SleepWithContext(ctx, backoff) {
			break
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}

	p.metrics.EventsPublished.WithLabelValues("error").Inc()
	return fmt.Errorf("publish round event: %w", err)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a RoundEvent into a Kafka message.
func serializeToMessage(event domain.RoundEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize round event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.SessionID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "result", Value: []byte(event.Result)},
			{Key: "location_code", Value: []byte(event.LocationCode)},
			{Key: "rounds", Value: []byte(strconv.Itoa(event.Rounds))},
			{Key: "finished_at", Value: []byte(event.FinishedAt.Format(time.RFC3339))},
		},
	}, nil
}
