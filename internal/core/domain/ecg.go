package domain

import (
	"errors"
	"time"
)

// RecordSource tells how an ECG record entered the system.
type RecordSource string

const (
	SourceSimulated    RecordSource = "simulated"
	SourceDevice       RecordSource = "device"
	SourceCSV          RecordSource = "uploaded_csv"
	SourceCSVText      RecordSource = "uploaded_csv_text"
	SourceConsultation RecordSource = "consultation"
)

var (
	ErrRecordNotFound        = errors.New("record not found")
	ErrEmptySignal           = errors.New("ecg signal is required")
	ErrInvalidCSV            = errors.New("csv contains no numeric samples")
	ErrClassifierUnavailable = errors.New("classifier unavailable")
)

// ECGRecord is one signal capture owned by exactly one patient.
type ECGRecord struct {
	ID             string       `json:"_id"`
	Email          string       `json:"email"`
	Signal         []float64    `json:"ecg_signal"`
	Timestamp      time.Time    `json:"timestamp"`
	Source         RecordSource `json:"source,omitempty"`
	TestResult     string       `json:"test_result,omitempty"`
	Confidence     float64      `json:"confidence,omitempty"`
	ClassifiedAt   *time.Time   `json:"classified_at,omitempty"`
	HeartRate      *float64     `json:"heart_rate,omitempty"`
	DoctorResponse string       `json:"doctor_response,omitempty"`
}

// Classification is the label picked for a signal and the model's confidence in it.
type Classification struct {
	Label      string  `json:"classification"`
	Confidence float64 `json:"confidence"`
}
