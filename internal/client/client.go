package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

const (
	defaultTimeout       = 15 * time.Second
	defaultDeviceTimeout = 30 * time.Second
)

// Config is threaded through every component constructor; the package keeps
// no global state.
type Config struct {
	BaseURL       string `validate:"required,url"`
	DeviceURL     string `validate:"omitempty,url"`
	Timeout       time.Duration
	DeviceTimeout time.Duration
	// Sessions defaults to an in-memory store.
	Sessions SessionStore
	// HTTPClient serves backend calls; its Timeout is replaced by Timeout.
	HTTPClient *http.Client
	// DeviceHTTPClient serves the device gateway, bounded by DeviceTimeout.
	DeviceHTTPClient *http.Client
	Log              zerolog.Logger
	Now              func() time.Time
}

// Client bundles the components sharing one transport and session store.
type Client struct {
	Auth          *AuthClient
	Records       *ECGRecordClient
	Consultations *ConsultationClient
	Directory     *DirectoryClient
	Ingest        *IngestClient
	Sessions      SessionStore
}

// New validates cfg, fills defaults and wires the components.
func New(cfg Config) (*Client, error) {
	v := newValidator()
	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("client: invalid config: %w", toValidationError(err))
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.DeviceTimeout <= 0 {
		cfg.DeviceTimeout = defaultDeviceTimeout
	}
	if cfg.Sessions == nil {
		cfg.Sessions = NewMemoryStore()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	httpClient := &http.Client{}
	if cfg.HTTPClient != nil {
		cp := *cfg.HTTPClient
		httpClient = &cp
	}
	httpClient.Timeout = cfg.Timeout

	deviceClient := cfg.DeviceHTTPClient
	if deviceClient == nil {
		deviceClient = &http.Client{}
	}

	t := &transport{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     httpClient,
		sessions: cfg.Sessions,
		now:      cfg.Now,
		log:      cfg.Log,
	}

	records := newECGRecordClient(t, v, cfg.Log)
	return &Client{
		Auth:          newAuthClient(t, v, cfg.Log),
		Records:       records,
		Consultations: newConsultationClient(t, v, cfg.Log),
		Directory:     newDirectoryClient(t, v),
		Ingest:        newIngestClient(t, records, strings.TrimRight(cfg.DeviceURL, "/"), deviceClient, cfg.DeviceTimeout, cfg.Log),
		Sessions:      cfg.Sessions,
	}, nil
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// toValidationError reports the first failed field of a validator error.
func toValidationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	fe := ve[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_if":
		return &ValidationError{Field: field, Message: "is required"}
	case "email":
		return &ValidationError{Field: field, Message: "must be a valid email"}
	case "url":
		return &ValidationError{Field: field, Message: "must be a valid URL"}
	case "gt":
		return &ValidationError{Field: field, Message: "must be greater than " + fe.Param()}
	case "min":
		return &ValidationError{Field: field, Message: "must not be empty"}
	case "oneof":
		return &ValidationError{Field: field, Message: "must be one of: " + fe.Param()}
	default:
		return &ValidationError{Field: field, Message: "failed " + fe.Tag()}
	}
}
