package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/raiahtisham/ecg-health-iq/internal/api/metrics"
	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
	"github.com/raiahtisham/ecg-health-iq/internal/core/ports"
)

const uploadPrefix = "uploads/"

// ECGService stores, lists, classifies and renders ECG records.
type ECGService struct {
	users      ports.UserRepository
	records    ports.ECGRepository
	classifier ports.Classifier
	renderer   ports.Renderer
	blobs      ports.BlobStore
	log        zerolog.Logger
	now        func() time.Time
}

// NewECGService wires the service. blobs may be nil, in which case uploaded
// CSV files are not archived.
func NewECGService(
	users ports.UserRepository,
	records ports.ECGRepository,
	classifier ports.Classifier,
	renderer ports.Renderer,
	blobs ports.BlobStore,
	log zerolog.Logger,
) *ECGService {
	return &ECGService{
		users:      users,
		records:    records,
		classifier: classifier,
		renderer:   renderer,
		blobs:      blobs,
		log:        log,
		now:        time.Now,
	}
}

func (s *ECGService) List(ctx context.Context, email string) ([]*domain.ECGRecord, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("list records: %w: missing email", domain.ErrInvalidInput)
	}
	return s.records.ListByOwner(ctx, email)
}

func (s *ECGService) Store(ctx context.Context, in ports.StoreSignalInput) (string, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || len(in.Signal) == 0 {
		return "", fmt.Errorf("store signal: %w: email and ECG signal are required", domain.ErrInvalidInput)
	}
	source := in.Source
	if source == "" {
		source = domain.SourceDevice
	}
	return s.insert(ctx, &domain.ECGRecord{
		Email:     email,
		Signal:    in.Signal,
		Timestamp: s.now().UTC(),
		Source:    source,
		HeartRate: in.HeartRate,
	})
}

// Simulate saves a manually entered signal without classifying it. The owner
// must already be registered.
func (s *ECGService) Simulate(ctx context.Context, email string, signal []float64) (string, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || len(signal) == 0 {
		return "", fmt.Errorf("simulate: %w: email and ECG signal are required", domain.ErrInvalidInput)
	}
	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		return "", err
	}
	return s.insert(ctx, &domain.ECGRecord{
		Email:     email,
		Signal:    signal,
		Timestamp: s.now().UTC(),
		Source:    domain.SourceSimulated,
	})
}

// Classify scores the signal, records the result on the user's history and,
// when recordID is set, on the record itself. Failing to update the record is
// logged but does not fail the classification.
func (s *ECGService) Classify(ctx context.Context, email string, signal []float64, recordID string) (domain.Classification, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.Classification{}, fmt.Errorf("classify: %w: missing email", domain.ErrInvalidInput)
	}

	c, err := s.classify(ctx, signal)
	if err != nil {
		return domain.Classification{}, err
	}
	now := s.now().UTC()
	metrics.ClassificationsTotal.WithLabelValues(c.Label, "record").Inc()

	s.pushResult(ctx, email, domain.ClassificationResult{
		RecordID:   recordID,
		Result:     c.Label,
		Confidence: c.Confidence,
		Timestamp:  now,
	})

	if recordID != "" {
		if err := s.records.SetClassification(ctx, recordID, email, c, now); err != nil {
			s.log.Warn().Err(err).Str("record_id", recordID).Msg("classification not written to record")
		}
	}

	s.log.Info().Str("email", email).Str("record_id", recordID).Str("label", c.Label).
		Float64("confidence", c.Confidence).Msg("signal classified")
	return c, nil
}

// ClassifyUpload parses a CSV payload, archives the raw file, classifies the
// samples and stores them as a new classified record.
func (s *ECGService) ClassifyUpload(ctx context.Context, in ports.UploadInput) (*ports.UploadResult, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		return nil, fmt.Errorf("upload: %w: missing email", domain.ErrInvalidInput)
	}

	signal, err := ParseCSVSignal(in.Data)
	if err != nil {
		return nil, err
	}
	if len(signal) > domain.RequiredLength {
		signal = signal[:domain.RequiredLength]
	}

	source := in.Source
	if source == "" {
		source = domain.SourceCSV
	}
	s.archive(ctx, email, in.Filename, in.Data)

	c, err := s.classify(ctx, signal)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	metrics.ClassificationsTotal.WithLabelValues(c.Label, string(source)).Inc()

	id, err := s.insert(ctx, &domain.ECGRecord{
		Email:        email,
		Signal:       signal,
		Timestamp:    now,
		Source:       source,
		TestResult:   c.Label,
		Confidence:   c.Confidence,
		ClassifiedAt: &now,
	})
	if err != nil {
		return nil, err
	}

	s.pushResult(ctx, email, domain.ClassificationResult{
		RecordID:   id,
		Result:     c.Label,
		Confidence: c.Confidence,
		Source:     string(source),
		Timestamp:  now,
	})

	return &ports.UploadResult{Classification: c, RecordID: id}, nil
}

func (s *ECGService) Delete(ctx context.Context, owner, recordID string) error {
	if strings.TrimSpace(recordID) == "" {
		return fmt.Errorf("delete record: %w: missing record_id", domain.ErrInvalidInput)
	}

	rec, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return err
	}
	if owner != "" && rec.Email != domain.NormalizeEmail(owner) {
		return domain.ErrForbidden
	}

	if err := s.records.Delete(ctx, recordID); err != nil {
		return err
	}
	s.log.Info().Str("record_id", recordID).Str("email", rec.Email).Msg("record deleted")
	return nil
}

func (s *ECGService) Render(ctx context.Context, signal []float64) ([]byte, error) {
	if len(signal) == 0 {
		return nil, domain.ErrEmptySignal
	}
	return s.renderer.Render(ctx, signal)
}

func (s *ECGService) classify(ctx context.Context, signal []float64) (domain.Classification, error) {
	if len(signal) == 0 {
		metrics.ClassificationErrorsTotal.WithLabelValues("empty_signal").Inc()
		return domain.Classification{}, domain.ErrEmptySignal
	}

	start := time.Now()
	probs, err := s.classifier.Predict(ctx, domain.PrepareSignal(signal))
	metrics.ClassificationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ClassificationErrorsTotal.WithLabelValues("classifier_unavailable").Inc()
		return domain.Classification{}, fmt.Errorf("classify: %w", err)
	}

	c, err := domain.ClassificationFromProbabilities(probs)
	if err != nil {
		metrics.ClassificationErrorsTotal.WithLabelValues("bad_response").Inc()
		return domain.Classification{}, fmt.Errorf("classify: %w: %v", domain.ErrClassifierUnavailable, err)
	}
	return c, nil
}

func (s *ECGService) insert(ctx context.Context, rec *domain.ECGRecord) (string, error) {
	id, err := s.records.Insert(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("insert record: %w", err)
	}
	metrics.RecordsIngestedTotal.WithLabelValues(string(rec.Source)).Inc()
	s.log.Info().Str("record_id", id).Str("email", rec.Email).Str("source", string(rec.Source)).
		Int("samples", len(rec.Signal)).Msg("record stored")
	return id, nil
}

func (s *ECGService) pushResult(ctx context.Context, email string, r domain.ClassificationResult) {
	if err := s.users.PushResult(ctx, email, r); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("classification history not updated")
	}
}

func (s *ECGService) archive(ctx context.Context, email, filename string, data []byte) {
	if s.blobs == nil || len(data) == 0 {
		return
	}
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		name = "upload.csv"
	}
	key := uploadPrefix + email + "/" + uuid.NewString() + "-" + name
	if err := s.blobs.Put(ctx, key, data, "text/csv"); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("upload not archived")
	}
}
