package ports

import (
	"context"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
)

// StoreSignalInput carries a signal acquired outside the backend.
type StoreSignalInput struct {
	Email     string
	Signal    []float64
	Source    domain.RecordSource
	HeartRate *float64
}

// UploadInput carries a CSV payload submitted for ingest and classification.
type UploadInput struct {
	Email    string
	Filename string
	Data     []byte
	Source   domain.RecordSource
}

// UploadResult is returned after a CSV payload has been classified.
type UploadResult struct {
	domain.Classification
	RecordID string
}

type ECGService interface {
	List(ctx context.Context, email string) ([]*domain.ECGRecord, error)
	Store(ctx context.Context, in StoreSignalInput) (string, error)
	Simulate(ctx context.Context, email string, signal []float64) (string, error)
	Classify(ctx context.Context, email string, signal []float64, recordID string) (domain.Classification, error)
	ClassifyUpload(ctx context.Context, in UploadInput) (*UploadResult, error)
	// Delete removes a record; owner must match unless empty.
	Delete(ctx context.Context, owner, recordID string) error
	Render(ctx context.Context, signal []float64) ([]byte, error)
}
