package domain

import (
	"errors"
	"time"
)

var (
	ErrConsultationNotFound = errors.New("consultation not found")
	ErrRequestInFlight      = errors.New("an identical request is already being processed")
)

// Consultation is a patient's request for a doctor to review an ECG signal.
// Signal is a snapshot taken at creation; later edits to the source record are
// not reflected here.
type Consultation struct {
	ID             string     `json:"id"`
	PatientName    string     `json:"name"`
	Age            int        `json:"age"`
	Phone          string     `json:"phone"`
	PatientEmail   string     `json:"email"`
	DoctorEmail    string     `json:"doctor_email"`
	Message        string     `json:"message"`
	Signal         []float64  `json:"ecg_signal"`
	Timestamp      time.Time  `json:"timestamp"`
	DoctorReply    string     `json:"doctor_reply"`
	RepliedAt      *time.Time `json:"replied_at,omitempty"`
	IdempotencyKey string     `json:"-"`
}

// ConsultationEventKind names the notifications emitted by the consultation workflow.
type ConsultationEventKind string

const (
	EventConsultationCreated ConsultationEventKind = "consultation.created"
	EventConsultationReplied ConsultationEventKind = "consultation.replied"
)

// ConsultationEvent is published to the doctor notification pipeline.
type ConsultationEvent struct {
	Kind           ConsultationEventKind `json:"kind"`
	ConsultationID string                `json:"consultation_id,omitempty"`
	PatientEmail   string                `json:"patient_email"`
	DoctorEmail    string                `json:"doctor_email"`
	OccurredAt     time.Time             `json:"occurred_at"`
}
