package ports

import (
	"context"
	"time"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
)

type RegisterPatientInput struct {
	Name           string
	Email          string
	Password       string
	Age            int
	Gender         string
	MedicalHistory []string
}

type RegisterDoctorInput struct {
	Name           string
	Email          string
	Password       string
	Age            int
	Gender         string
	Specialization string
	Contact        string
}

// LoginResult carries the authenticated user and the issued session token.
type LoginResult struct {
	User      *domain.User
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type AuthService interface {
	RegisterPatient(ctx context.Context, in RegisterPatientInput) (*domain.User, error)
	RegisterDoctor(ctx context.Context, in RegisterDoctorInput) (*domain.User, error)
	Login(ctx context.Context, email, password, role string) (*LoginResult, error)
	Refresh(ctx context.Context, email string) (*LoginResult, error)
	ResetPassword(ctx context.Context, email, newPassword string) error
}

// DirectoryService serves profile and doctor directory lookups.
type DirectoryService interface {
	Profile(ctx context.Context, email string) (*domain.User, error)
	SetProfileImage(ctx context.Context, email, imageBase64 string) error
	Doctors(ctx context.Context) ([]*domain.User, error)
	History(ctx context.Context, email string) ([]domain.ClassificationResult, error)
}
