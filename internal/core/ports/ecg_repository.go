package ports

import (
	"context"
	"time"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
)

// ECGRepository defines persistence for ECG records.
type ECGRepository interface {
	// Insert stores the record and returns its server-assigned id.
	Insert(ctx context.Context, rec *domain.ECGRecord) (string, error)
	FindByID(ctx context.Context, id string) (*domain.ECGRecord, error)
	// ListByOwner returns the owner's records in insertion order.
	ListByOwner(ctx context.Context, email string) ([]*domain.ECGRecord, error)
	SetClassification(ctx context.Context, id, email string, c domain.Classification, at time.Time) error
	Delete(ctx context.Context, id string) error
	ExistsWithSignal(ctx context.Context, email string, signal []float64) (bool, error)
	// Latest returns the owner's most recent record.
	Latest(ctx context.Context, email string) (*domain.ECGRecord, error)
	SetDoctorResponse(ctx context.Context, id, response string) error
}
