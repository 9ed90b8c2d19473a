package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/raiahtisham/ecg-health-iq/internal/api/metrics"
	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
	"github.com/raiahtisham/ecg-health-iq/internal/core/ports"
)

const (
	scopeConsultation = "consultation"
	scopeReply        = "reply"
	reservationTTL    = 24 * time.Hour
)

// ConsultationService implements the consultation request and reply workflow.
//
// Double submission is resolved as follows: a create carrying a known
// Idempotency-Key returns the original consultation; a reply carrying a key
// that was already applied is a no-op; replies with distinct keys overwrite
// each other (last write wins).
type ConsultationService struct {
	consultations ports.ConsultationRepository
	records       ports.ECGRepository
	keys          ports.IdempotencyStore
	events        ports.EventPublisher
	log           zerolog.Logger
	now           func() time.Time
}

func NewConsultationService(
	consultations ports.ConsultationRepository,
	records ports.ECGRepository,
	keys ports.IdempotencyStore,
	events ports.EventPublisher,
	log zerolog.Logger,
) *ConsultationService {
	if keys == nil {
		keys = localKeys{}
	}
	return &ConsultationService{
		consultations: consultations,
		records:       records,
		keys:          keys,
		events:        events,
		log:           log,
		now:           time.Now,
	}
}

func (s *ConsultationService) Create(ctx context.Context, in ports.CreateConsultationInput) (*ports.ConsultationResult, error) {
	patient := domain.NormalizeEmail(in.PatientEmail)
	doctor := domain.NormalizeEmail(in.DoctorEmail)
	if strings.TrimSpace(in.PatientName) == "" || in.Age <= 0 || strings.TrimSpace(in.Phone) == "" || patient == "" || doctor == "" {
		return nil, fmt.Errorf("create consultation: %w: missing required fields", domain.ErrInvalidInput)
	}
	if len(in.Signal) == 0 {
		return nil, domain.ErrEmptySignal
	}

	if in.IdempotencyKey != "" {
		existing, err := s.consultations.FindByIdempotencyKey(ctx, in.IdempotencyKey)
		switch {
		case err == nil && existing != nil:
			s.log.Info().Str("idempotency_key", in.IdempotencyKey).Str("consultation_id", existing.ID).Msg("idempotent replay")
			metrics.ConsultationsCreatedTotal.WithLabelValues("replayed").Inc()
			return &ports.ConsultationResult{ID: existing.ID, Replayed: true}, nil
		case err != nil && !errors.Is(err, domain.ErrConsultationNotFound):
			s.log.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("idempotent replay lookup failed, processing anyway")
		}

		acquired, err := s.keys.Reserve(ctx, scopeConsultation, in.IdempotencyKey, reservationTTL)
		if err != nil {
			s.log.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("idempotency reservation failed, processing anyway")
		} else if !acquired {
			return nil, domain.ErrRequestInFlight
		}
	}

	now := s.now().UTC()
	signal := append([]float64(nil), in.Signal...)
	c := &domain.Consultation{
		PatientName:    strings.TrimSpace(in.PatientName),
		Age:            in.Age,
		Phone:          strings.TrimSpace(in.Phone),
		PatientEmail:   patient,
		DoctorEmail:    doctor,
		Message:        in.Message,
		Signal:         signal,
		Timestamp:      now,
		IdempotencyKey: in.IdempotencyKey,
	}

	id, err := s.consultations.Create(ctx, c)
	if err != nil {
		if in.IdempotencyKey != "" {
			_ = s.keys.Release(ctx, scopeConsultation, in.IdempotencyKey)
		}
		return nil, fmt.Errorf("create consultation: %w", err)
	}
	metrics.ConsultationsCreatedTotal.WithLabelValues("created").Inc()

	s.ensureRecord(ctx, patient, signal, now)

	s.events.Publish(domain.ConsultationEvent{
		Kind:           domain.EventConsultationCreated,
		ConsultationID: id,
		PatientEmail:   patient,
		DoctorEmail:    doctor,
		OccurredAt:     now,
	})

	s.log.Info().Str("consultation_id", id).Str("patient", patient).Str("doctor", doctor).Msg("consultation created")
	return &ports.ConsultationResult{ID: id}, nil
}

func (s *ConsultationService) List(ctx context.Context, filter ports.ConsultationFilter) ([]*domain.Consultation, error) {
	filter.DoctorEmail = domain.NormalizeEmail(filter.DoctorEmail)
	filter.PatientEmail = domain.NormalizeEmail(filter.PatientEmail)
	return s.consultations.List(ctx, filter)
}

// Reply writes the doctor's reply on the patient's latest consultation and
// mirrors it onto the patient's latest ECG record.
func (s *ConsultationService) Reply(ctx context.Context, in ports.ReplyInput) (*ports.ReplyResult, error) {
	patient := domain.NormalizeEmail(in.PatientEmail)
	doctor := domain.NormalizeEmail(in.DoctorEmail)
	reply := strings.TrimSpace(in.Reply)
	if patient == "" {
		return nil, fmt.Errorf("reply: %w: email is required", domain.ErrInvalidInput)
	}
	if reply == "" {
		return nil, fmt.Errorf("reply: %w: reply cannot be empty", domain.ErrInvalidInput)
	}

	var reserved, done bool
	if in.IdempotencyKey != "" {
		acquired, err := s.keys.Reserve(ctx, scopeReply, patient+":"+in.IdempotencyKey, reservationTTL)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("reply dedup check failed, processing anyway")
		case !acquired:
			s.log.Debug().Str("patient", patient).Str("idempotency_key", in.IdempotencyKey).Msg("duplicate reply skipped")
			metrics.ConsultationRepliesTotal.WithLabelValues("replay").Inc()
			return &ports.ReplyResult{Replayed: true}, nil
		default:
			reserved = true
		}
	}
	// A failed reply frees its key so the client can retry with it.
	defer func() {
		if reserved && !done {
			if err := s.keys.Release(ctx, scopeReply, patient+":"+in.IdempotencyKey); err != nil {
				s.log.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("reply reservation release failed")
			}
		}
	}()

	// Resolve the ECG record first so a patient without one never ends up
	// with a stored reply the error response denies.
	latest, err := s.records.Latest(ctx, patient)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, s.missingRecord(ctx, patient, doctor, err)
		}
		return nil, err
	}

	now := s.now().UTC()
	before, err := s.consultations.SetReply(ctx, patient, doctor, reply, now)
	if err != nil {
		return nil, err
	}
	if err := s.records.SetDoctorResponse(ctx, latest.ID, reply); err != nil {
		return nil, fmt.Errorf("reply: set doctor response: %w", err)
	}
	done = true

	result := &ports.ReplyResult{Overwrote: before.DoctorReply != ""}
	outcome := "first"
	if result.Overwrote {
		outcome = "overwrite"
	}
	metrics.ConsultationRepliesTotal.WithLabelValues(outcome).Inc()

	s.events.Publish(domain.ConsultationEvent{
		Kind:           domain.EventConsultationReplied,
		ConsultationID: before.ID,
		PatientEmail:   patient,
		DoctorEmail:    before.DoctorEmail,
		OccurredAt:     now,
	})

	s.log.Info().Str("consultation_id", before.ID).Str("patient", patient).Bool("overwrote", result.Overwrote).Msg("consultation replied")
	return result, nil
}

// missingRecord reports a missing consultation ahead of a missing ECG record.
func (s *ConsultationService) missingRecord(ctx context.Context, patient, doctor string, err error) error {
	existing, lerr := s.consultations.List(ctx, ports.ConsultationFilter{PatientEmail: patient, DoctorEmail: doctor})
	if lerr == nil && len(existing) == 0 {
		return fmt.Errorf("reply: %w", domain.ErrConsultationNotFound)
	}
	return fmt.Errorf("reply: no ECG record found for this email: %w", err)
}

func (s *ConsultationService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("delete consultation: %w: missing record_id", domain.ErrInvalidInput)
	}
	return s.consultations.Delete(ctx, id)
}

// ensureRecord stores the consultation signal as an ECG record unless the
// patient already has a record with exactly this signal.
func (s *ConsultationService) ensureRecord(ctx context.Context, email string, signal []float64, at time.Time) {
	exists, err := s.records.ExistsWithSignal(ctx, email, signal)
	if err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("signal lookup failed")
		return
	}
	if exists {
		return
	}
	if _, err := s.records.Insert(ctx, &domain.ECGRecord{
		Email:     email,
		Signal:    signal,
		Timestamp: at,
		Source:    domain.SourceConsultation,
	}); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("consultation signal not stored as record")
		return
	}
	metrics.RecordsIngestedTotal.WithLabelValues(string(domain.SourceConsultation)).Inc()
}

// localKeys is used when no shared idempotency store is configured. Every
// reservation succeeds, so only the Mongo idempotency_key lookup dedups creates.
type localKeys struct{}

func (localKeys) Reserve(context.Context, string, string, time.Duration) (bool, error) {
	return true, nil
}

func (localKeys) Release(context.Context, string, string) error { return nil }
