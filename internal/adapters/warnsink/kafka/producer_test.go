package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/segmentio/kafka-go"

	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/services/forward"
)

type fakeWriter struct {
	err    error
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestProducer_Notify(t *testing.T) {
	fw := &fakeWriter{}
	p := NewWithWriter(fw)
	evt := forward.Event{
		Timestamp: 1700000000000,
		Kind:      domain.WarnHighMemory,
		Severity:  domain.SeverityCritical,
		Message:   "650MB",
	}
	if err := p.Notify(context.Background(), evt); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(fw.msgs) != 1 {
		t.Fatalf("msgs=%d", len(fw.msgs))
	}
	m := fw.msgs[0]
	if string(m.Key) != string(domain.WarnHighMemory) {
		t.Fatalf("key=%q", m.Key)
	}
	if m.Time.UnixMilli() != evt.Timestamp {
		t.Fatalf("time=%v", m.Time)
	}
	if len(m.Headers) != 1 || string(m.Headers[0].Value) != "critical" {
		t.Fatalf("headers=%v", m.Headers)
	}
	var decoded forward.Event
	if err := json.Unmarshal(m.Value, &decoded); err != nil || decoded != evt {
		t.Fatalf("value=%s err=%v", m.Value, err)
	}

	if err := p.Close(); err != nil || !fw.closed {
		t.Fatalf("close err=%v closed=%v", err, fw.closed)
	}
}

func TestProducer_WriteError(t *testing.T) {
	p := NewWithWriter(&fakeWriter{err: errors.New("leader not available")})
	if err := p.Notify(context.Background(), forward.Event{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(" , ", "warnings"); err == nil {
		t.Fatal("expected error for empty brokers")
	}
	if _, err := New("localhost:9092", " "); err == nil {
		t.Fatal("expected error for empty topic")
	}
	p, err := New("a:9092, b:9092", "warnings")
	if err != nil {
		t.Fatal(err)
	}
	_ = p.Close()
}

func Test_splitBrokers(t *testing.T) {
	got := splitBrokers(" a:1 ,,b:2 ")
	if !slices.Equal(got, []string{"a:1", "b:2"}) {
		t.Fatalf("got %v", got)
	}
}
