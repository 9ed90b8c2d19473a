package handler

import (
	"time"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
)

// --- Auth ---

type registerPatientRequest struct {
	Name           string   `json:"name"            validate:"required"`
	Email          string   `json:"email"           validate:"required,email"`
	Password       string   `json:"password"        validate:"required"`
	Age            int      `json:"age"             validate:"required,gt=0"`
	Gender         string   `json:"gender"          validate:"required"`
	MedicalHistory []string `json:"medical_history"`
}

type registerDoctorRequest struct {
	Name           string `json:"name"           validate:"required"`
	Email          string `json:"email"          validate:"required,email"`
	Password       string `json:"password"       validate:"required"`
	Age            int    `json:"age"            validate:"required,gt=0"`
	Gender         string `json:"gender"         validate:"required"`
	Specialization string `json:"specialization" validate:"required"`
	Contact        string `json:"contact"        validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	NewPassword string `json:"new_password" validate:"required"`
}

type registerResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

type patientLoginResponse struct {
	Message   string    `json:"message"`
	User      string    `json:"user"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type doctorLoginResponse struct {
	Message        string    `json:"message"`
	Doctor         string    `json:"doctor"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Specialization string    `json:"specialization"`
	Token          string    `json:"token"`
	IssuedAt       time.Time `json:"issued_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type refreshResponse struct {
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// --- Directory ---

type profileImageRequest struct {
	Email       string `json:"email"`
	ImageBase64 string `json:"image_base64" validate:"required"`
}

type doctorEntry struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Specialization string `json:"specialization"`
	Contact        string `json:"contact"`
}

type doctorsResponse struct {
	Doctors []doctorEntry `json:"doctors"`
}

type historyResponse struct {
	History []domain.ClassificationResult `json:"history"`
}

// --- ECG records ---

type signalRequest struct {
	Email  string    `json:"email"`
	Signal []float64 `json:"ecg_signal" validate:"required,min=1"`
}

type storeSignalRequest struct {
	Email     string    `json:"email"`
	Signal    []float64 `json:"ecg_signal" validate:"required,min=1"`
	HeartRate *float64  `json:"heart_rate"`
}

type classifyRequest struct {
	Email    string    `json:"email"`
	Signal   []float64 `json:"ecg_signal" validate:"required,min=1"`
	RecordID string    `json:"record_id"`
}

type recordIDRequest struct {
	RecordID string `json:"record_id" validate:"required"`
}

type csvTextRequest struct {
	Email   string `json:"email"`
	CSVText string `json:"csv_text" validate:"required"`
}

type imageRequest struct {
	Signal []float64 `json:"ecg_signal" validate:"required,min=1"`
}

type recordsResponse struct {
	Records []*domain.ECGRecord `json:"ecg_data"`
}

type storedResponse struct {
	Message  string `json:"message"`
	RecordID string `json:"record_id"`
}

type classificationResponse struct {
	Classification string  `json:"classification"`
	Confidence     float64 `json:"confidence"`
	Message        string  `json:"message,omitempty"`
	RecordID       string  `json:"record_id,omitempty"`
}

// --- Consultations ---

type consultRequest struct {
	Name        string    `json:"name"         validate:"required"`
	Age         int       `json:"age"          validate:"required,gt=0"`
	Phone       string    `json:"phone"        validate:"required"`
	Email       string    `json:"email"        validate:"required,email"`
	DoctorEmail string    `json:"doctor_email" validate:"required,email"`
	Message     string    `json:"message"`
	Signal      []float64 `json:"ecg_signal"   validate:"required,min=1"`
}

type consultResponse struct {
	Message  string `json:"message"`
	ID       string `json:"id"`
	Replayed bool   `json:"replayed"`
}

type replyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Reply string `json:"reply" validate:"required"`
}

type replyResponse struct {
	Message   string `json:"message"`
	Overwrote bool   `json:"overwrote"`
	Replayed  bool   `json:"replayed"`
}

type consultationsResponse struct {
	Consultations []*domain.Consultation `json:"consultations"`
}
