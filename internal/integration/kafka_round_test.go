//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"testing"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/geoguess-service/internal/adapter/kafka"
	"github.com/couchcryptid/geoguess-service/internal/config"
	"github.com/couchcryptid/geoguess-service/internal/domain"
	"github.com/couchcryptid/geoguess-service/internal/observability"
)

const testRoundTopic = "test-rounds"

// publishedRound holds a deserialized message read from the round topic.
type publishedRound struct {
	Event   domain.RoundEvent
	Key     string
	Headers map[string]string
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("geoguess-test"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "find controller")

	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

// readRound reads a single message from the consumer and deserializes it.
func readRound(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedRound {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from round topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var event domain.RoundEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event), "unmarshal round message")

	return publishedRound{Event: event, Key: string(msg.Key), Headers: headers}
}

// TestPublisherRoundTrip verifies that a finished round published through
// the Kafka adapter is readable from the topic with its key and headers.
func TestPublisherRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testRoundTopic)

	cfg := &config.Config{
		KafkaBrokers: []string{broker},
		KafkaTopic:   testRoundTopic,
	}
	metrics := observability.NewMetricsForTesting()
	publisher := kafka.NewPublisher(cfg, sharedobs.NewLogger("error", "text"), metrics)
	defer publisher.Close()

	finished := time.Date(2026, time.March, 2, 15, 4, 5, 0, time.UTC)
	event := domain.RoundEvent{
		SessionID:    "session-1",
		LocationCode: "CAN",
		Result:       domain.ResultSolved,
		Rounds:       2,
		Tried:        []string{"USA"},
		FinishedAt:   finished,
	}
	require.NoError(t, publisher.PublishRound(ctx, event))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testRoundTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	defer consumer.Close()

	got := readRound(ctx, t, consumer)
	assert.Equal(t, "session-1", got.Key)
	assert.Equal(t, event, got.Event)
	assert.Equal(t, domain.ResultSolved, got.Headers["result"])
	assert.Equal(t, "CAN", got.Headers["location_code"])
	assert.Equal(t, "2", got.Headers["rounds"])
	assert.Equal(t, finished.Format(time.RFC3339), got.Headers["finished_at"])
}

// TestPublisherKeepsSessionOrder verifies that rounds of one session land on
// the topic in publish order.
func TestPublisherKeepsSessionOrder(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testRoundTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testRoundTopic}
	publisher := kafka.NewPublisher(cfg, sharedobs.NewLogger("error", "text"), observability.NewMetricsForTesting())
	defer publisher.Close()

	codes := []string{"BRA", "FRA", "MEX"}
	for i, code := range codes {
		ev := domain.RoundEvent{
			SessionID:    "session-2",
			LocationCode: code,
			Result:       domain.ResultFailed,
			Rounds:       4,
			Tried:        []string{},
			FinishedAt:   time.Date(2026, time.March, 2, 15, i, 0, 0, time.UTC),
		}
		require.NoError(t, publisher.PublishRound(ctx, ev))
	}

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testRoundTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	defer consumer.Close()

	for _, code := range codes {
		got := readRound(ctx, t, consumer)
		assert.Equal(t, code, got.Event.LocationCode)
		assert.Equal(t, "session-2", got.Key)
	}
}
