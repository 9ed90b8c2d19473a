package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// File is a user-picked upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadResult is the synchronous classification of an uploaded CSV.
type UploadResult struct {
	Label      string  `json:"classification"`
	Confidence float64 `json:"confidence"`
	Message    string  `json:"message,omitempty"`
	RecordID   string  `json:"record_id,omitempty"`
}

// DeviceReading is a signal acquired from the device gateway and stored.
type DeviceReading struct {
	RecordID  string
	Signal    []float64
	HeartRate *float64
}

var csvContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true,
}

// IngestClient brings new signals in from CSV files and the device gateway.
type IngestClient struct {
	t             *transport
	records       *ECGRecordClient
	deviceURL     string
	device        *http.Client
	deviceTimeout time.Duration
	log           zerolog.Logger
}

func newIngestClient(t *transport, records *ECGRecordClient, deviceURL string, device *http.Client, timeout time.Duration, log zerolog.Logger) *IngestClient {
	return &IngestClient{
		t:             t,
		records:       records,
		deviceURL:     deviceURL,
		device:        device,
		deviceTimeout: timeout,
		log:           log,
	}
}

// UploadCSV checks the file type and content locally, then posts it as a
// multipart form. The backend classifies it before answering.
func (c *IngestClient) UploadCSV(ctx context.Context, f File, owner string) (*UploadResult, error) {
	if err := checkCSVFile(f); err != nil {
		return nil, err
	}
	owner = normalizeEmail(owner)

	body, contentType, err := multipartCSV(f, owner)
	if err != nil {
		return nil, &UploadError{Err: err}
	}

	var res UploadResult
	err = c.t.do(ctx, request{
		method: http.MethodPost,
		path:   "/upload_csv",
		body:   rawBody{contentType: contentType, data: body},
		auth:   true,
	}, &res)
	if err != nil {
		return nil, &UploadError{Err: err}
	}
	return &res, nil
}

type csvTextBody struct {
	Email   string `json:"email"`
	CSVText string `json:"csv_text"`
}

// UploadCSVText submits pasted CSV content.
func (c *IngestClient) UploadCSVText(ctx context.Context, text, owner string) (*UploadResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Field: "CSVText", Message: "must not be empty"}
	}

	var res UploadResult
	err := c.t.do(ctx, request{
		method: http.MethodPost,
		path:   "/upload_csv_text",
		body:   csvTextBody{Email: normalizeEmail(owner), CSVText: text},
		auth:   true,
	}, &res)
	if err != nil {
		return nil, &UploadError{Err: err}
	}
	return &res, nil
}

func checkCSVFile(f File) error {
	if len(bytes.TrimSpace(f.Data)) == 0 {
		return &ValidationError{Field: "File", Message: "is empty"}
	}
	mediaType, _, err := mime.ParseMediaType(f.ContentType)
	if err != nil {
		return &ValidationError{Field: "File", Message: "unknown content type"}
	}
	if csvContentTypes[mediaType] {
		return nil
	}
	if mediaType == "text/plain" && strings.EqualFold(path.Ext(f.Name), ".csv") {
		return nil
	}
	return &ValidationError{Field: "File", Message: "only CSV files are allowed"}
}

func multipartCSV(f File, owner string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("email", owner); err != nil {
		return nil, "", err
	}

	name := f.Name
	if name == "" {
		name = "ecg.csv"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, path.Base(name)))
	h.Set("Content-Type", "text/csv")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(f.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

type triggerBody struct {
	Email string `json:"email"`
}

type deviceReply struct {
	Signal    []float64 `json:"ecg_signal"`
	HeartRate *float64  `json:"heart_rate"`
	Error     string    `json:"error"`
}

// TriggerRemoteDevice asks the device gateway for a live signal, then stores
// it through the main backend. The two steps fail independently: a gateway
// that does not answer within the device timeout yields DeviceTimeoutError and
// nothing is stored; a storage failure yields PersistError carrying the
// signal.
func (c *IngestClient) TriggerRemoteDevice(ctx context.Context, owner string) (*DeviceReading, error) {
	if c.deviceURL == "" {
		return nil, &DeviceError{Message: "no device gateway configured"}
	}
	owner = normalizeEmail(owner)

	reply, err := c.acquire(ctx, owner)
	if err != nil {
		return nil, err
	}

	id, err := c.records.store(ctx, owner, reply.Signal, reply.HeartRate)
	if err != nil {
		return nil, &PersistError{Owner: owner, Signal: reply.Signal, HeartRate: reply.HeartRate, Err: err}
	}
	return &DeviceReading{RecordID: id, Signal: reply.Signal, HeartRate: reply.HeartRate}, nil
}

// RetryPersist resubmits a signal whose storage failed.
func (c *IngestClient) RetryPersist(ctx context.Context, pe *PersistError) (*DeviceReading, error) {
	if pe == nil || len(pe.Signal) == 0 {
		return nil, &ValidationError{Field: "Signal", Message: "must not be empty"}
	}
	id, err := c.records.store(ctx, pe.Owner, pe.Signal, pe.HeartRate)
	if err != nil {
		return nil, &PersistError{Owner: pe.Owner, Signal: pe.Signal, HeartRate: pe.HeartRate, Err: err}
	}
	return &DeviceReading{RecordID: id, Signal: pe.Signal, HeartRate: pe.HeartRate}, nil
}

func (c *IngestClient) acquire(ctx context.Context, owner string) (*deviceReply, error) {
	tctx, cancel := context.WithTimeout(ctx, c.deviceTimeout)
	defer cancel()

	payload, err := json.Marshal(triggerBody{Email: owner})
	if err != nil {
		return nil, &DeviceError{Err: err}
	}
	req, err := http.NewRequestWithContext(tctx, http.MethodPost, c.deviceURL+"/trigger_ecg", bytes.NewReader(payload))
	if err != nil {
		return nil, &DeviceError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerRequestID, uuid.NewString())

	start := time.Now()
	resp, err := c.device.Do(req)
	if err != nil {
		if ctx.Err() == nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
			c.log.Warn().Dur("after", c.deviceTimeout).Msg("device trigger timed out")
			return nil, &DeviceTimeoutError{After: c.deviceTimeout}
		}
		return nil, &DeviceError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctx.Err() == nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
			return nil, &DeviceTimeoutError{After: c.deviceTimeout}
		}
		return nil, &DeviceError{Err: err}
	}
	c.log.Debug().Int("status", resp.StatusCode).Dur("latency", time.Since(start)).Msg("device trigger")

	var reply deviceReply
	decodeErr := json.Unmarshal(body, &reply)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && reply.Error != "" {
			msg = reply.Error
		}
		return nil, &DeviceError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, &DeviceError{Status: resp.StatusCode, Message: "malformed device response"}
	}
	if len(reply.Signal) == 0 {
		return nil, &DeviceError{Status: resp.StatusCode, Message: "device returned no signal"}
	}
	return &reply, nil
}
