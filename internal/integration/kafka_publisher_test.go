//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/poamaps/incident-etl/internal/adapter/kafka"
	"github.com/poamaps/incident-etl/internal/config"
	"github.com/poamaps/incident-etl/internal/domain"
)

const testEventsTopic = "test-incident-events"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-node Kafka via testcontainers and returns its
// broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = container.Terminate(cleanupCtx)
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
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

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestPublisherRoundTrip verifies that lifecycle events written through the
// publisher arrive on the topic in order, keyed by external ID, with action
// headers intact.
func TestPublisherRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testEventsTopic)

	cfg := &config.Config{
		KafkaBrokers: []string{broker},
		KafkaTopic:   testEventsTopic,
	}

	pub := kafkaadapter.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = pub.Close() })

	inc := domain.Incident{
		ExternalID: "1790001",
		Text:       "#EPTC — acidente na av. Azenha, 300",
		CreatedAt:  time.Date(2026, 8, 14, 12, 5, 0, 0, time.UTC),
		TypeCode:   domain.EmojiCollision,
		Lat:        "-30.0277",
		Lon:        "-51.1953",
	}

	require.NoError(t, pub.IncidentCreated(ctx, inc))
	require.NoError(t, pub.IncidentResolved(ctx, inc))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testEventsTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	actions := make([]string, 0, 2)
	for range 2 {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read event")

		assert.Equal(t, []byte("1790001"), msg.Key)

		var got domain.Incident
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		assert.Equal(t, inc.ExternalID, got.ExternalID)
		assert.Equal(t, inc.Lat, got.Lat)
		assert.Equal(t, inc.Lon, got.Lon)

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, domain.EmojiCollision, headers["type_code"])
		_, err = time.Parse(time.RFC3339, headers["created_at"])
		assert.NoError(t, err, "created_at header should be RFC3339")
		actions = append(actions, headers["action"])
	}

	// Same key, one partition: order is preserved.
	assert.Equal(t, []string{"created", "resolved"}, actions)
}
