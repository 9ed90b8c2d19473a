package handler

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/raiahtisham/ecg-health-iq/internal/api/middleware"
	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
)

func TestECGHandler_List(t *testing.T) {
	e := newTestEcho()
	svc := &stubECGService{records: []*domain.ECGRecord{{ID: "r1"}}}
	h := NewECGHandler(svc)

	tests := []struct {
		name      string
		target    string
		role      string
		wantEmail string
		wantCode  int
	}{
		{"patient defaults to self", "/get_ecg_data", domain.RolePatient, "ana@example.com", http.StatusOK},
		{"patient self explicit", "/get_ecg_data?email=ANA@example.com", domain.RolePatient, "ana@example.com", http.StatusOK},
		{"doctor reads patient", "/get_ecg_data?email=cy@example.com", domain.RoleDoctor, "cy@example.com", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := jsonContext(e, http.MethodGet, tc.target, "", "ana@example.com", tc.role)
			if err := h.List(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.wantCode || svc.listEmail != tc.wantEmail {
				t.Fatalf("got %d for %q", rec.Code, svc.listEmail)
			}
			if recs, ok := decodeBody(t, rec)["ecg_data"].([]any); !ok || len(recs) != 1 {
				t.Fatalf("expected ecg_data list")
			}
		})
	}
}

func TestECGHandler_List_OtherPatientForbidden(t *testing.T) {
	e := newTestEcho()
	h := NewECGHandler(&stubECGService{})

	c, _ := jsonContext(e, http.MethodGet, "/get_ecg_data?email=eve@example.com", "", "ana@example.com", domain.RolePatient)
	if err := h.List(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	c, _ = jsonContext(e, http.MethodGet, "/get_ecg_data", "", "bo@example.com", domain.RoleDoctor)
	if err := h.List(c); httpStatus(err) != http.StatusBadRequest {
		t.Fatalf("doctor without email should get 400, got %v", err)
	}
}

func TestECGHandler_Classify(t *testing.T) {
	e := newTestEcho()
	svc := &stubECGService{}
	h := NewECGHandler(svc)

	c, rec := jsonContext(e, http.MethodPost, "/classify", `{"email":"ana@example.com","ecg_signal":[0.1,-0.2],"record_id":"r1"}`, "ana@example.com", domain.RolePatient)
	if err := h.Classify(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decodeBody(t, rec)
	if resp["classification"] != domain.LabelNormal || resp["confidence"] != 0.9 {
		t.Fatalf("unexpected body: %v", resp)
	}
	if svc.recordID != "r1" || len(svc.classifyIn) != 2 || svc.classifyIn[1] != -0.2 {
		t.Fatalf("signal not passed through: %v %s", svc.classifyIn, svc.recordID)
	}
}

func TestECGHandler_Classify_EmptySignal(t *testing.T) {
	e := newTestEcho()
	h := NewECGHandler(&stubECGService{})

	c, _ := jsonContext(e, http.MethodPost, "/classify", `{"ecg_signal":[]}`, "ana@example.com", domain.RolePatient)
	if err := h.Classify(c); httpStatus(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestECGHandler_Delete_PassesCallerAsOwner(t *testing.T) {
	e := newTestEcho()
	svc := &stubECGService{}
	h := NewECGHandler(svc)

	c, rec := jsonContext(e, http.MethodPost, "/delete_ecg", `{"record_id":"r9"}`, "ana@example.com", domain.RolePatient)
	if err := h.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if svc.deleted != [2]string{"ana@example.com", "r9"} || rec.Code != http.StatusOK {
		t.Fatalf("unexpected delete call: %v", svc.deleted)
	}
}

func TestECGHandler_SimulateAndStore(t *testing.T) {
	e := newTestEcho()
	svc := &stubECGService{}
	h := NewECGHandler(svc)

	c, rec := jsonContext(e, http.MethodPost, "/simulate_ecg", `{"ecg_signal":[1,2,3]}`, "ana@example.com", domain.RolePatient)
	if err := h.Simulate(c); err != nil {
		t.Fatalf("simulate error: %v", err)
	}
	if decodeBody(t, rec)["record_id"] != "rec2" || len(svc.simulated) != 3 {
		t.Fatalf("unexpected simulate result")
	}

	c, rec = jsonContext(e, http.MethodPost, "/store_ecg_signal", `{"ecg_signal":[1],"heart_rate":72}`, "ana@example.com", domain.RolePatient)
	if err := h.Store(c); err != nil {
		t.Fatalf("store error: %v", err)
	}
	if svc.stored.Source != domain.SourceDevice || svc.stored.HeartRate == nil || *svc.stored.HeartRate != 72 {
		t.Fatalf("unexpected store input: %+v", svc.stored)
	}
	if decodeBody(t, rec)["record_id"] != "rec1" {
		t.Fatalf("expected record id in response")
	}
}

func multipartContext(t *testing.T, e *echo.Echo, filename, content string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte(content))
	w.WriteField("email", "ana@example.com")
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload_csv", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextKeyEmail, "ana@example.com")
	c.Set(middleware.ContextKeyRole, domain.RolePatient)
	return c, rec
}

func TestECGHandler_UploadCSV(t *testing.T) {
	e := newTestEcho()
	svc := &stubECGService{}
	h := NewECGHandler(svc)

	c, rec := multipartContext(t, e, "reading.CSV", "0.1\n0.2\n")
	if err := h.UploadCSV(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if svc.upload.Source != domain.SourceCSV || string(svc.upload.Data) != "0.1\n0.2\n" || svc.upload.Filename != "reading.CSV" {
		t.Fatalf("unexpected upload input: %+v", svc.upload)
	}
	resp := decodeBody(t, rec)
	if resp["classification"] != domain.LabelOther || resp["record_id"] != "rec3" {
		t.Fatalf("unexpected body: %v", resp)
	}
}

func TestECGHandler_UploadCSV_RejectsOtherExtensions(t *testing.T) {
	e := newTestEcho()
	h := NewECGHandler(&stubECGService{})

	c, _ := multipartContext(t, e, "reading.txt", "0.1\n")
	err := h.UploadCSV(c)
	if httpStatus(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestECGHandler_UploadCSVText(t *testing.T) {
	e := newTestEcho()
	svc := &stubECGService{}
	h := NewECGHandler(svc)

	c, rec := jsonContext(e, http.MethodPost, "/upload_csv_text", `{"csv_text":"1,2,3"}`, "ana@example.com", domain.RolePatient)
	if err := h.UploadCSVText(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if svc.upload.Source != domain.SourceCSVText || svc.upload.Email != "ana@example.com" || rec.Code != http.StatusOK {
		t.Fatalf("unexpected upload input: %+v", svc.upload)
	}
}

func TestECGHandler_GenerateImage(t *testing.T) {
	e := newTestEcho()
	h := NewECGHandler(&stubECGService{})

	c, rec := jsonContext(e, http.MethodPost, "/generate_ecg_image", `{"ecg_signal":[1,2]}`, "ana@example.com", domain.RolePatient)
	if err := h.GenerateImage(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Header().Get(echo.HeaderContentType) != "image/png" || rec.Body.String() != "\x89PNG" {
		t.Fatalf("unexpected image response: %q %q", rec.Header().Get(echo.HeaderContentType), rec.Body.String())
	}
}
