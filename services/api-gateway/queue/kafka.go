// services/api-gateway/queue/kafka.go
package queue

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	EventPaymentLinkCreated = "payment_link.created"
	EventRefundRequested    = "refund.requested"
)

// Event notifies downstream systems that an operation was accepted by
// Checkout. Events are never read back by this service.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	PaymentID  string    `json:"payment_id,omitempty"`
	Reference  string    `json:"reference,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	Currency   string    `json:"currency,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEvent(eventType, paymentID, reference string, amount int64, currency string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		PaymentID:  paymentID,
		Reference:  reference,
		Amount:     amount,
		Currency:   currency,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type Bus struct {
	Brokers []string
	Topic   string
	writer  *kafka.Writer
}

// New returns an async writer: WriteMessages only enqueues, delivery
// failures are reported through the completion callback.
func New(brokers []string, topic string) *Bus {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logrus.WithError(err).WithField("count", len(messages)).Error("kafka delivery failed")
			}
		},
	}
	return &Bus{Brokers: brokers, Topic: topic, writer: w}
}

func (b *Bus) Publish(ctx context.Context, e Event) error {
	payload, err := sonic.Marshal(e)
	if err != nil {
		return err
	}
	return b.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.PaymentID), Value: payload, Time: e.OccurredAt})
}

func (b *Bus) Close() error { return b.writer.Close() }

// Nop is used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
