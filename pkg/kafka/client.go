// Package kafka publishes and consumes document events on a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"pdf-chat-go/internal/config"
	"pdf-chat-go/pkg/log"
	"pdf-chat-go/pkg/tasks"
)

// ConsumerGroup is the group id used by the events command.
const ConsumerGroup = "pdf-chat-go-events"

// Producer writes document events to the configured topic.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a Producer. No connection is made until the first write.
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers(cfg.Brokers)...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 10 * time.Second,
	}
	log.Infof("Kafka producer ready, topic: %s", cfg.Topic)
	return &Producer{writer: w}
}

// PublishDocumentIndexed sends one event keyed by pdf_id, so events of a
// document stay on one partition.
func (p *Producer) PublishDocumentIndexed(ctx context.Context, event tasks.DocumentIndexedEvent) error {
	msg, err := EncodeEvent(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close flushes pending writes.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// EncodeEvent builds the Kafka message of an event.
func EncodeEvent(event tasks.DocumentIndexedEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode event: %w", err)
	}
	return kafka.Message{
		Key:     []byte(event.PdfID),
		Value:   value,
		Headers: []kafka.Header{{Key: "type", Value: []byte(event.Type)}},
	}, nil
}

// DecodeEvent parses the value of a message produced by EncodeEvent.
func DecodeEvent(m kafka.Message) (tasks.DocumentIndexedEvent, error) {
	var event tasks.DocumentIndexedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return event, fmt.Errorf("failed to decode event at offset %d: %w", m.Offset, err)
	}
	return event, nil
}

// EventHandler processes one consumed event.
type EventHandler func(ctx context.Context, event tasks.DocumentIndexedEvent) error

// Consume reads events until ctx is cancelled. Malformed messages are
// committed and skipped. When the handler fails Consume stops without
// committing that message, so the group resumes from it on the next start.
func Consume(ctx context.Context, cfg config.KafkaConfig, handle EventHandler) error {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers(cfg.Brokers),
		Topic:    cfg.Topic,
		GroupID:  ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Errorf("failed to close Kafka reader: %v", err)
		}
	}()

	log.Infof("Kafka consumer started, topic: '%s'", cfg.Topic)
	return consume(ctx, r, handle)
}

// messageReader is the part of *kafka.Reader the consume loop needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

func consume(ctx context.Context, r messageReader, handle EventHandler) error {
	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		event, err := DecodeEvent(m)
		if err != nil {
			log.Errorf("skipping malformed message: %v, value: %s", err, string(m.Value))
			if err := r.CommitMessages(ctx, m); err != nil {
				log.Errorf("failed to commit malformed message: %v", err)
			}
			continue
		}

		if err := handle(ctx, event); err != nil {
			log.Errorf("failed to handle event, pdf_id: %s, error: %v", event.PdfID, err)
			return fmt.Errorf("failed to handle event at offset %d: %w", m.Offset, err)
		}
		if err := r.CommitMessages(ctx, m); err != nil {
			return fmt.Errorf("failed to commit offset %d: %w", m.Offset, err)
		}
	}
}

func brokers(list string) []string {
	var out []string
	for _, b := range strings.Split(list, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
