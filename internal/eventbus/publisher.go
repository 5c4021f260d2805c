package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Publisher sends raw messages to a topic.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

const (
	RoutingKeyBooked = "appointment.booked"
	RoutingKeyFailed = "appointment.failed"
)

// ResultEvent announces the terminal outcome of one booking run.
type ResultEvent struct {
	RunID       string    `json:"run_id"`
	Status      string    `json:"status"`
	RecordID    string    `json:"record_id,omitempty"`
	CallID      string    `json:"call_id,omitempty"`
	Start       string    `json:"start_date_time,omitempty"`
	FailureKind string    `json:"failure_kind,omitempty"`
	Message     string    `json:"message,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Notifier encodes result events and routes them by outcome.
type Notifier struct {
	pub Publisher
	log *slog.Logger
}

func NewNotifier(pub Publisher, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{pub: pub, log: log}
}

func (n *Notifier) Notify(ctx context.Context, ev ResultEvent) error {
	if n.pub == nil {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("eventbus: encode result: %w", err)
	}
	key := RoutingKeyBooked
	if ev.FailureKind != "" {
		key = RoutingKeyFailed
	}
	return n.pub.Publish(ctx, key, body)
}

// NoopPublisher drops messages. Used when no broker is configured.
type NoopPublisher struct {
	logger *slog.Logger
}

func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.logger.DebugContext(ctx, "noop publish", "routing_key", routingKey, "size", len(payload))
	return nil
}

func (p *NoopPublisher) Close() error { return nil }

// Message is one captured publish.
type Message struct {
	RoutingKey string
	Payload    []byte
}

// MemoryPublisher keeps published messages in memory; for tests and local runs.
type MemoryPublisher struct {
	mu       sync.Mutex
	messages []Message
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	p.messages = append(p.messages, Message{RoutingKey: routingKey, Payload: cp})
	return nil
}

func (p *MemoryPublisher) Close() error { return nil }

func (p *MemoryPublisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Message, len(p.messages))
	copy(out, p.messages)
	return out
}
