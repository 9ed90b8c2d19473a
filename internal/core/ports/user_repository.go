package ports

import (
	"context"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
)

// UserRepository defines persistence for patients and doctors.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) error
	// SetProfileImage stores either an inline base64 image or a blob store
	// reference; the other value is cleared.
	SetProfileImage(ctx context.Context, email, inline, ref string) error
	// PushResult appends to the classification history and sets the latest result.
	PushResult(ctx context.Context, email string, result domain.ClassificationResult) error
	ListByRole(ctx context.Context, role string) ([]*domain.User, error)
}
