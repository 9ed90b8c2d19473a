package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DoctorInfo is the selection entry offered to a patient.
type DoctorInfo struct {
	Name           string
	Specialization string
}

// Consultation is a patient's request for review, as the backend reports it.
type Consultation struct {
	ID           string     `json:"id"`
	PatientName  string     `json:"name"`
	Age          int        `json:"age"`
	Phone        string     `json:"phone"`
	PatientEmail string     `json:"email"`
	DoctorEmail  string     `json:"doctor_email"`
	Message      string     `json:"message"`
	Signal       []float64  `json:"ecg_signal"`
	Timestamp    time.Time  `json:"timestamp"`
	DoctorReply  string     `json:"doctor_reply,omitempty"`
	RepliedAt    *time.Time `json:"replied_at,omitempty"`
}

// Replied reports whether a doctor has answered.
func (c Consultation) Replied() bool { return c.DoctorReply != "" }

// CreateConsultationInput holds the patient fields and the chosen doctor.
type CreateConsultationInput struct {
	PatientName  string    `json:"name" validate:"required"`
	Age          int       `json:"age" validate:"gt=0"`
	Phone        string    `json:"phone" validate:"required"`
	PatientEmail string    `json:"email" validate:"required,email"`
	DoctorEmail  string    `json:"doctor_email" validate:"required,email"`
	Message      string    `json:"message"`
	Signal       []float64 `json:"ecg_signal" validate:"required,min=1"`
}

// CreateResult identifies the stored consultation. Replayed is set when the
// backend matched the idempotency key of an earlier submission.
type CreateResult struct {
	ID       string `json:"id"`
	Replayed bool   `json:"replayed"`
}

// ReplyResult reports how the backend applied a reply.
type ReplyResult struct {
	Overwrote bool `json:"overwrote"`
	Replayed  bool `json:"replayed"`
}

// ConsultationClient creates, lists and answers consultations.
type ConsultationClient struct {
	t        *transport
	validate *validator.Validate
	log      zerolog.Logger
	inflight guard
}

func newConsultationClient(t *transport, v *validator.Validate, log zerolog.Logger) *ConsultationClient {
	return &ConsultationClient{t: t, validate: v, log: log}
}

type doctorsReply struct {
	Doctors []Doctor `json:"doctors"`
}

// ListDoctors returns the doctor directory keyed by email.
func (c *ConsultationClient) ListDoctors(ctx context.Context) (map[string]DoctorInfo, error) {
	var reply doctorsReply
	if err := c.t.do(ctx, request{method: http.MethodGet, path: "/get_doctors"}, &reply); err != nil {
		return nil, err
	}
	out := make(map[string]DoctorInfo, len(reply.Doctors))
	for _, d := range reply.Doctors {
		out[normalizeEmail(d.Email)] = DoctorInfo{Name: d.Name, Specialization: d.Specialization}
	}
	return out, nil
}

// Create validates in locally and submits it. The signal is copied before the
// call, so later edits by the caller do not reach the request.
func (c *ConsultationClient) Create(ctx context.Context, in CreateConsultationInput) (*CreateResult, error) {
	in.PatientName = strings.TrimSpace(in.PatientName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.PatientEmail = normalizeEmail(in.PatientEmail)
	in.DoctorEmail = normalizeEmail(in.DoctorEmail)
	if err := c.validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}
	in.Signal = copySignal(in.Signal)

	key := fingerprint(in.Signal, in.PatientEmail, in.DoctorEmail, in.Message)
	v, err := c.inflight.do(ctx, "consult", key, func(ctx context.Context) (any, error) {
		var res CreateResult
		err := c.t.do(ctx, request{
			method:  http.MethodPost,
			path:    "/consult_doctor",
			body:    in,
			headers: map[string]string{headerIdempotencyKey: uuid.NewString()},
			auth:    true,
		}, &res)
		return &res, err
	})
	if err != nil {
		return nil, err
	}
	res := v.(*CreateResult)
	c.log.Info().Str("consultation_id", res.ID).Str("doctor", in.DoctorEmail).Msg("consultation submitted")
	return res, nil
}

type consultationsReply struct {
	Consultations []Consultation `json:"consultations"`
}

// ListForDoctor returns the consultations addressed to doctorEmail.
func (c *ConsultationClient) ListForDoctor(ctx context.Context, doctorEmail string) ([]Consultation, error) {
	return c.list(ctx, url.Values{"doctor_email": {normalizeEmail(doctorEmail)}})
}

// ListForPatient returns the consultations patientEmail submitted.
func (c *ConsultationClient) ListForPatient(ctx context.Context, patientEmail string) ([]Consultation, error) {
	return c.list(ctx, url.Values{"email": {normalizeEmail(patientEmail)}})
}

func (c *ConsultationClient) list(ctx context.Context, q url.Values) ([]Consultation, error) {
	var reply consultationsReply
	err := c.t.do(ctx, request{method: http.MethodGet, path: "/get_consultations", query: q, auth: true}, &reply)
	if err != nil {
		return nil, err
	}
	if reply.Consultations == nil {
		return []Consultation{}, nil
	}
	return reply.Consultations, nil
}

type replyBody struct {
	Email string `json:"email"`
	Reply string `json:"reply"`
}

// Reply answers the latest consultation of patientEmail. A later reply with a
// new key replaces the earlier one.
func (c *ConsultationClient) Reply(ctx context.Context, patientEmail, text string) (*ReplyResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ValidationError{Field: "Reply", Message: "is required"}
	}
	patientEmail = normalizeEmail(patientEmail)
	if err := c.validate.Var(patientEmail, "required,email"); err != nil {
		return nil, &ValidationError{Field: "Email", Message: "must be a valid email"}
	}

	var res ReplyResult
	err := c.t.do(ctx, request{
		method:  http.MethodPost,
		path:    "/reply_consultation",
		body:    replyBody{Email: patientEmail, Reply: text},
		headers: map[string]string{headerIdempotencyKey: uuid.NewString()},
		auth:    true,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Delete removes a consultation by id.
func (c *ConsultationClient) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "ID", Message: "is required"}
	}
	return c.t.do(ctx, request{
		method: http.MethodPost,
		path:   "/delete_consultation",
		body:   deleteBody{RecordID: id},
		auth:   true,
	}, nil)
}
