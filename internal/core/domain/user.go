package domain

import (
	"errors"
	"strings"
	"time"
)

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrNotPatient         = errors.New("access denied: not a patient")
	ErrNotDoctor          = errors.New("access denied: not a doctor")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidInput       = errors.New("invalid input")
)

// ClassificationResult is one entry of a user's classification history.
type ClassificationResult struct {
	RecordID   string    `json:"record_id,omitempty"`
	Result     string    `json:"result"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// User models a patient or a doctor. Both principal kinds share one collection
// and are told apart by Role.
type User struct {
	ID              string                 `json:"-"`
	Name            string                 `json:"name"`
	Email           string                 `json:"email"`
	PasswordHash    string                 `json:"-"`
	Role            string                 `json:"role"`
	Age             int                    `json:"age"`
	Gender          string                 `json:"gender"`
	MedicalHistory  []string               `json:"medical_history,omitempty"`
	Specialization  string                 `json:"specialization,omitempty"`
	Contact         string                 `json:"contact,omitempty"`
	ProfileImage    string                 `json:"profile_image,omitempty"`
	ProfileImageRef string                 `json:"-"`
	LatestECGResult string                 `json:"latest_ecg_result,omitempty"`
	ECGResults      []ClassificationResult `json:"ecg_results,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

func (u *User) IsDoctor() bool { return u.Role == RoleDoctor }

// NormalizeEmail trims and lower-cases an email so lookups match registration.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
