package ports

import (
	"context"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
)

type CreateConsultationInput struct {
	PatientName    string
	Age            int
	Phone          string
	PatientEmail   string
	DoctorEmail    string
	Message        string
	Signal         []float64
	IdempotencyKey string
}

// ConsultationResult is returned after creating a consultation.
type ConsultationResult struct {
	ID string
	// Replayed is true when the Idempotency-Key matched an existing consultation.
	Replayed bool
}

type ReplyInput struct {
	PatientEmail   string
	DoctorEmail    string
	Reply          string
	IdempotencyKey string
}

// ReplyResult reports how a reply was applied.
type ReplyResult struct {
	// Overwrote is true when a previous reply was replaced (last write wins).
	Overwrote bool
	// Replayed is true when the Idempotency-Key was already applied.
	Replayed bool
}

type ConsultationService interface {
	Create(ctx context.Context, in CreateConsultationInput) (*ConsultationResult, error)
	List(ctx context.Context, filter ConsultationFilter) ([]*domain.Consultation, error)
	Reply(ctx context.Context, in ReplyInput) (*ReplyResult, error)
	Delete(ctx context.Context, id string) error
}
