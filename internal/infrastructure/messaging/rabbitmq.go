// Package messaging delivers consultation events to doctors' notification
// consumers.
package messaging

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
)

const DefaultQueue = "consultation_events"

// RabbitNotifier publishes each event as a persistent JSON message on a
// durable queue.
type RabbitNotifier struct {
	conn  *amqp091.Connection
	mu    sync.Mutex
	ch    *amqp091.Channel
	queue string
}

// Dial connects to the broker and declares the queue.
func Dial(url, queue string) (*RabbitNotifier, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq declare %s: %w", queue, err)
	}

	return &RabbitNotifier{conn: conn, ch: ch, queue: queue}, nil
}

// Notify is safe for concurrent use; amqp channels are not, so publishes are
// serialised.
func (n *RabbitNotifier) Notify(ctx context.Context, event domain.ConsultationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		MessageId:    uuid.NewString(),
		Type:         string(event.Kind),
		Timestamp:    event.OccurredAt,
		Headers: amqp091.Table{
			"doctor_email": event.DoctorEmail,
		},
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.ch.PublishWithContext(ctx, "", n.queue, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (n *RabbitNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_ = n.ch.Close()
	return n.conn.Close()
}

// LogNotifier writes events to the application log. It is used when no broker
// is configured.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, event domain.ConsultationEvent) error {
	n.log.Info().
		Str("kind", string(event.Kind)).
		Str("consultation_id", event.ConsultationID).
		Str("patient_email", event.PatientEmail).
		Str("doctor_email", event.DoctorEmail).
		Time("occurred_at", event.OccurredAt).
		Msg("consultation notification")
	return nil
}
