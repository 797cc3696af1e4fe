package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diagnosis/mentor-bookings/pkg/logger"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name("mentor-bookings"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{Subject: msg.Subject, Data: msg.Data, Timestamp: time.Now()})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{Subject: msg.Subject, Data: msg.Data, Timestamp: time.Now()})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	return n.conn.Drain()
}

// NopBus drops every event. Used when NATS is disabled.
type NopBus struct{}

func (NopBus) Publish(context.Context, string, interface{}) error { return nil }
func (NopBus) Subscribe(string, func(*Message)) error { return nil }
func (NopBus) QueueSubscribe(string, string, func(*Message)) error { return nil }
func (NopBus) Close() error { return nil }

const (
	BookingAllocated = "booking.allocated"
	BookingCanceled  = "booking.canceled"
	BookingRejected  = "booking.rejected"
)

type BookingAllocatedEvent struct {
	BookingID     int64     `json:"booking_id"`
	Reference     string    `json:"reference"`
	StudentID     int64     `json:"student_id"`
	MentorID      int64     `json:"mentor_id"`
	ScheduledTime int64     `json:"scheduled_time"`
	Duration      int       `json:"duration"`
	SessionCost   float64   `json:"session_cost"`
	AllocatedAt   time.Time `json:"allocated_at"`
}

type BookingCanceledEvent struct {
	BookingID     int64     `json:"booking_id"`
	StudentID     int64     `json:"student_id"`
	MentorID      int64     `json:"mentor_id"`
	ScheduledTime int64     `json:"scheduled_time"`
	CanceledAt    time.Time `json:"canceled_at"`
}

type BookingRejectedEvent struct {
	StudentID     int64     `json:"student_id"`
	MentorID      *int64    `json:"mentor_id,omitempty"`
	Area          string    `json:"area,omitempty"`
	ScheduledTime int64     `json:"scheduled_time"`
	Reason        string    `json:"reason"`
	RejectedAt    time.Time `json:"rejected_at"`
}
