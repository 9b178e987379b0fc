package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campusmarket/campusmarket-backend/pkg/logger"
	"github.com/campusmarket/campusmarket-backend/pkg/metrics"
	kafkaGo "github.com/segmentio/kafka-go"
)

// KafkaBroker writes events to a single topic and can read them back for tooling.
type KafkaBroker struct {
	brokers []string
	topic   string
	writer  *kafkaGo.Writer
}

func NewKafkaBroker(brokers []string, topic string) *KafkaBroker {
	return &KafkaBroker{
		brokers: brokers,
		topic:   topic,
		writer: &kafkaGo.Writer{
			Addr:                   kafkaGo.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafkaGo.Hash{},
			RequiredAcks:           kafkaGo.RequireOne,
			BatchTimeout:           50 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

func (k *KafkaBroker) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		metrics.EventsPublished.WithLabelValues(string(event.Type), "error").Inc()
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = k.writer.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(event.Key),
		Value: payload,
		Headers: []kafkaGo.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		metrics.EventsPublished.WithLabelValues(string(event.Type), "error").Inc()
		return fmt.Errorf("failed to write event: %w", err)
	}

	metrics.EventsPublished.WithLabelValues(string(event.Type), "ok").Inc()
	return nil
}

func (k *KafkaBroker) Close() error {
	return k.writer.Close()
}

func (k *KafkaBroker) Consume(ctx context.Context, groupID string, handler func(ctx context.Context, payload []byte) error) error {
	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers: k.brokers,
		Topic:   k.topic,
		GroupID: groupID,
	})
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				logger.Info("Consumer shutting down", map[string]interface{}{"topic": k.topic})
				return nil
			}
			logger.Error("Error reading message", err, map[string]interface{}{"topic": k.topic})
			continue
		}

		if err := handler(ctx, msg.Value); err != nil {
			logger.Error("Error handling message", err, map[string]interface{}{
				"topic":  k.topic,
				"offset": msg.Offset,
			})
		}
	}
}
