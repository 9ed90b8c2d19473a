package client

import (
	"fmt"
	"time"
)

// ValidationError reports input rejected before any network call, or a 400/422
// answer from the backend.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// AuthError covers invalid credentials, wrong role, unknown accounts at login
// and missing or expired sessions.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string { return "auth: " + e.Message }

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return "conflict: " + e.Message }

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return "not found: " + e.Message }

// NetworkError wraps dial, timeout and read failures.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network: %s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string { return fmt.Sprintf("server: %d: %s", e.Status, e.Message) }

// DeviceTimeoutError means the device gateway did not answer within the
// trigger bound. The persist step never ran.
type DeviceTimeoutError struct {
	After time.Duration
}

func (e *DeviceTimeoutError) Error() string {
	return fmt.Sprintf("device: no signal within %s", e.After)
}

// DeviceError is a non-2xx answer, a response without a signal or a transport
// failure talking to the device gateway.
type DeviceError struct {
	Status  int
	Message string
	Err     error
}

func (e *DeviceError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("device: %v", e.Err)
	case e.Status != 0:
		return fmt.Sprintf("device: %d: %s", e.Status, e.Message)
	default:
		return "device: " + e.Message
	}
}

func (e *DeviceError) Unwrap() error { return e.Err }

type ClassificationError struct {
	RecordID string
	Err      error
}

func (e *ClassificationError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("classify: %v", e.Err)
	}
	return fmt.Sprintf("classify %s: %v", e.RecordID, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// UploadError wraps the transport error of a CSV upload.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string { return fmt.Sprintf("upload: %v", e.Err) }
func (e *UploadError) Unwrap() error { return e.Err }

// PersistError keeps a signal acquired from the device whose storage failed so
// IngestClient.RetryPersist can resubmit it without triggering the device again.
type PersistError struct {
	Owner     string
	Signal    []float64
	HeartRate *float64
	Err       error
}

func (e *PersistError) Error() string { return fmt.Sprintf("persist %d samples: %v", len(e.Signal), e.Err) }
func (e *PersistError) Unwrap() error { return e.Err }
