package ports

import (
	"context"
	"time"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
)

// ConsultationFilter narrows consultation listings. Empty fields match everything.
type ConsultationFilter struct {
	DoctorEmail  string
	PatientEmail string
}

// ConsultationRepository defines persistence for consultation requests.
type ConsultationRepository interface {
	Create(ctx context.Context, c *domain.Consultation) (string, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Consultation, error)
	// List returns matching consultations, newest first.
	List(ctx context.Context, filter ConsultationFilter) ([]*domain.Consultation, error)
	// SetReply writes the reply on the patient's most recent consultation
	// (optionally scoped to a doctor) and returns the consultation as it was
	// before the write.
	SetReply(ctx context.Context, patientEmail, doctorEmail, reply string, at time.Time) (*domain.Consultation, error)
	Delete(ctx context.Context, id string) error
}
