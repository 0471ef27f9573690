// Package kafka publishes forwarded warnings to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/vshulcz/Perfwatch/internal/services/forward"
)

// MessageWriter is the subset of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes one message per warning, keyed by warning kind so a kind stays on one partition.
type Producer struct {
	w       MessageWriter
	timeout time.Duration
}

var _ forward.Sink = (*Producer)(nil)

// New builds a producer for a comma-separated broker list. The writer connects on the first message.
func New(brokers, topic string) (*Producer, error) {
	addrs := splitBrokers(brokers)
	if len(addrs) == 0 {
		return nil, errors.New("kafka: no brokers")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("kafka: empty topic")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(addrs...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              1,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return NewWithWriter(w), nil
}

// NewWithWriter wraps an existing writer.
func NewWithWriter(w MessageWriter) *Producer {
	return &Producer{w: w, timeout: 5 * time.Second}
}

// Notify encodes the event as JSON and writes it synchronously.
func (p *Producer) Notify(ctx context.Context, evt forward.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal warning event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	msg := kafka.Message{
		Key:   []byte(evt.Kind),
		Value: payload,
		Time:  time.UnixMilli(evt.Timestamp),
		Headers: []kafka.Header{
			{Key: "severity", Value: []byte(evt.Severity)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	return p.w.Close()
}

func splitBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
