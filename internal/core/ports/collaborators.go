package ports

import (
	"context"
	"time"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
)

// Classifier scores a prepared signal and returns one probability per label,
// ordered as domain.Labels.
type Classifier interface {
	Predict(ctx context.Context, signal []float64) ([]float64, error)
}

// Renderer draws a signal as a PNG image.
type Renderer interface {
	Render(ctx context.Context, signal []float64) ([]byte, error)
}

// BlobStore keeps binary objects such as profile images and archived uploads.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// IdempotencyStore reserves request keys so duplicates can be detected across
// instances. Reserve returns false when the key is already held.
type IdempotencyStore interface {
	Reserve(ctx context.Context, scope, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, scope, key string) error
}

// EventPublisher hands consultation events to the notification pipeline.
type EventPublisher interface {
	Publish(event domain.ConsultationEvent)
}

// Notifier delivers a single consultation event to its destination.
type Notifier interface {
	Notify(ctx context.Context, event domain.ConsultationEvent) error
}
