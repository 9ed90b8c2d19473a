package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/raiahtisham/ecg-health-iq/internal/api/middleware"
	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
	"github.com/raiahtisham/ecg-health-iq/internal/core/ports"
)

// newTestEcho mirrors the router's validator and error handling.
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// jsonContext builds an echo context for a JSON request, optionally carrying
// the claims the Auth middleware would inject.
func jsonContext(e *echo.Echo, method, target, body, email, role string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if email != "" {
		c.Set(middleware.ContextKeyEmail, email)
		c.Set(middleware.ContextKeyRole, role)
	}
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return resp
}

func httpStatus(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}

// --- services ---

type stubAuthService struct {
	registerPatientFn func(ctx context.Context, in ports.RegisterPatientInput) (*domain.User, error)
	registerDoctorFn  func(ctx context.Context, in ports.RegisterDoctorInput) (*domain.User, error)
	loginFn           func(ctx context.Context, email, password, role string) (*ports.LoginResult, error)
	refreshFn         func(ctx context.Context, email string) (*ports.LoginResult, error)
	resetFn           func(ctx context.Context, email, newPassword string) error
}

func (s *stubAuthService) RegisterPatient(ctx context.Context, in ports.RegisterPatientInput) (*domain.User, error) {
	return s.registerPatientFn(ctx, in)
}

func (s *stubAuthService) RegisterDoctor(ctx context.Context, in ports.RegisterDoctorInput) (*domain.User, error) {
	return s.registerDoctorFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password, role string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password, role)
}

func (s *stubAuthService) Refresh(ctx context.Context, email string) (*ports.LoginResult, error) {
	return s.refreshFn(ctx, email)
}

func (s *stubAuthService) ResetPassword(ctx context.Context, email, newPassword string) error {
	return s.resetFn(ctx, email, newPassword)
}

type stubECGService struct {
	records    []*domain.ECGRecord
	listEmail  string
	stored     ports.StoreSignalInput
	simulated  []float64
	classifyIn []float64
	recordID   string
	upload     ports.UploadInput
	deleted    [2]string
	err        error
}

func (s *stubECGService) List(_ context.Context, email string) ([]*domain.ECGRecord, error) {
	s.listEmail = email
	return s.records, s.err
}

func (s *stubECGService) Store(_ context.Context, in ports.StoreSignalInput) (string, error) {
	s.stored = in
	return "rec1", s.err
}

func (s *stubECGService) Simulate(_ context.Context, _ string, signal []float64) (string, error) {
	s.simulated = signal
	return "rec2", s.err
}

func (s *stubECGService) Classify(_ context.Context, _ string, signal []float64, recordID string) (domain.Classification, error) {
	s.classifyIn, s.recordID = signal, recordID
	return domain.Classification{Label: domain.LabelNormal, Confidence: 0.9}, s.err
}

func (s *stubECGService) ClassifyUpload(_ context.Context, in ports.UploadInput) (*ports.UploadResult, error) {
	s.upload = in
	if s.err != nil {
		return nil, s.err
	}
	return &ports.UploadResult{Classification: domain.Classification{Label: domain.LabelOther, Confidence: 0.5}, RecordID: "rec3"}, nil
}

func (s *stubECGService) Delete(_ context.Context, owner, recordID string) error {
	s.deleted = [2]string{owner, recordID}
	return s.err
}

func (s *stubECGService) Render(_ context.Context, signal []float64) ([]byte, error) {
	return []byte("\x89PNG"), s.err
}

type stubConsultationService struct {
	created ports.CreateConsultationInput
	filter  ports.ConsultationFilter
	reply   ports.ReplyInput
	deleted string
	result  *ports.ConsultationResult
	err     error
}

func (s *stubConsultationService) Create(_ context.Context, in ports.CreateConsultationInput) (*ports.ConsultationResult, error) {
	s.created = in
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &ports.ConsultationResult{ID: "c1"}, nil
}

func (s *stubConsultationService) List(_ context.Context, filter ports.ConsultationFilter) ([]*domain.Consultation, error) {
	s.filter = filter
	return []*domain.Consultation{}, s.err
}

func (s *stubConsultationService) Reply(_ context.Context, in ports.ReplyInput) (*ports.ReplyResult, error) {
	s.reply = in
	if s.err != nil {
		return nil, s.err
	}
	return &ports.ReplyResult{Overwrote: true}, nil
}

func (s *stubConsultationService) Delete(_ context.Context, id string) error {
	s.deleted = id
	return s.err
}

type stubDirectoryService struct {
	users   map[string]*domain.User
	doctors []*domain.User
	image   string
}

func (s *stubDirectoryService) Profile(_ context.Context, email string) (*domain.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *stubDirectoryService) SetProfileImage(_ context.Context, email, imageBase64 string) error {
	s.image = email + ":" + imageBase64
	return nil
}

func (s *stubDirectoryService) Doctors(context.Context) ([]*domain.User, error) {
	return s.doctors, nil
}

func (s *stubDirectoryService) History(_ context.Context, email string) ([]domain.ClassificationResult, error) {
	if _, ok := s.users[email]; !ok {
		return nil, domain.ErrUserNotFound
	}
	return []domain.ClassificationResult{{Result: domain.LabelNormal, Confidence: 0.9}}, nil
}
