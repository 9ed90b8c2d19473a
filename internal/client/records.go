package client

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// PageSize is the number of records a RecordView reveals per LoadMore.
const PageSize = 5

// Record is one ECG capture owned by a patient.
type Record struct {
	ID             string     `json:"_id"`
	Email          string     `json:"email"`
	Signal         []float64  `json:"ecg_signal"`
	Timestamp      time.Time  `json:"timestamp"`
	Source         string     `json:"source,omitempty"`
	TestResult     string     `json:"test_result,omitempty"`
	Confidence     float64    `json:"confidence,omitempty"`
	ClassifiedAt   *time.Time `json:"classified_at,omitempty"`
	HeartRate      *float64   `json:"heart_rate,omitempty"`
	DoctorResponse string     `json:"doctor_response,omitempty"`
}

// Classification is the label the backend assigned to a signal.
type Classification struct {
	Label      string  `json:"classification"`
	Confidence float64 `json:"confidence"`
}

// Confirmer asks the user before a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// IngestResult is returned after a manually entered signal was stored.
type IngestResult struct {
	RecordID string
	Signal   []float64
	Dropped  int
}

// ECGRecordClient lists, classifies and deletes records and keeps a per-owner
// cache that every RecordView reads through.
type ECGRecordClient struct {
	t        *transport
	validate *validator.Validate
	log      zerolog.Logger
	inflight guard

	mu    sync.Mutex
	cache map[string][]*Record // owner -> newest first
}

func newECGRecordClient(t *transport, v *validator.Validate, log zerolog.Logger) *ECGRecordClient {
	return &ECGRecordClient{t: t, validate: v, log: log, cache: make(map[string][]*Record)}
}

type recordsReply struct {
	Records []*Record `json:"ecg_data"`
}

// List fetches the owner's records and returns a view positioned on the first
// page, most recent first. The fetched set replaces the owner's cache.
func (r *ECGRecordClient) List(ctx context.Context, owner string) (*RecordView, error) {
	owner = normalizeEmail(owner)
	if owner == "" {
		return nil, &ValidationError{Field: "Owner", Message: "is required"}
	}

	var reply recordsReply
	err := r.t.do(ctx, request{
		method: http.MethodGet,
		path:   "/get_ecg_data",
		query:  url.Values{"email": {owner}},
		auth:   true,
	}, &reply)
	if err != nil {
		return nil, err
	}

	// The backend answers in insertion order.
	records := make([]*Record, 0, len(reply.Records))
	for i := len(reply.Records) - 1; i >= 0; i-- {
		if reply.Records[i] != nil {
			records = append(records, reply.Records[i])
		}
	}

	r.mu.Lock()
	r.cache[owner] = records
	r.mu.Unlock()

	return newRecordView(r, owner), nil
}

type classifyBody struct {
	Email    string    `json:"email"`
	Signal   []float64 `json:"ecg_signal"`
	RecordID string    `json:"record_id,omitempty"`
}

// Classify sends signal unmodified and, on success, sets the label of the
// cached record with recordID. The optimistic update stands until the next
// List.
func (r *ECGRecordClient) Classify(ctx context.Context, owner string, signal []float64, recordID string) (Classification, error) {
	if len(signal) == 0 {
		return Classification{}, &ClassificationError{RecordID: recordID, Err: &ValidationError{Field: "Signal", Message: "must not be empty"}}
	}
	owner = normalizeEmail(owner)

	v, err := r.inflight.do(ctx, "classify", fingerprint(signal, owner, recordID), func(ctx context.Context) (any, error) {
		var c Classification
		err := r.t.do(ctx, request{
			method: http.MethodPost,
			path:   "/classify",
			body:   classifyBody{Email: owner, Signal: signal, RecordID: recordID},
			auth:   true,
		}, &c)
		return c, err
	})
	if err != nil {
		return Classification{}, &ClassificationError{RecordID: recordID, Err: err}
	}
	c := v.(Classification)

	if recordID != "" {
		r.mu.Lock()
		for _, rec := range r.cache[owner] {
			if rec.ID == recordID {
				rec.TestResult = c.Label
				rec.Confidence = c.Confidence
			}
		}
		r.mu.Unlock()
	}
	return c, nil
}

type imageBody struct {
	Signal []float64 `json:"ecg_signal"`
}

// RenderImage returns PNG bytes for signal. An empty signal or a backend
// failure yields nil; rendering never fails the caller.
func (r *ECGRecordClient) RenderImage(ctx context.Context, signal []float64) []byte {
	if len(signal) == 0 {
		return nil
	}

	var img []byte
	err := r.t.do(ctx, request{
		method:  http.MethodPost,
		path:    "/generate_ecg_image",
		body:    imageBody{Signal: signal},
		headers: map[string]string{"Accept": "image/png"},
		auth:    true,
	}, &img)
	if err != nil {
		r.log.Warn().Err(err).Int("samples", len(signal)).Msg("ecg image unavailable")
		return nil
	}
	return img
}

type deleteBody struct {
	RecordID string `json:"record_id"`
}

// Delete removes a record after confirm agrees. It reports false without any
// call when the confirmation is declined. A deleted record leaves every cached
// view.
func (r *ECGRecordClient) Delete(ctx context.Context, recordID string, confirm Confirmer) (bool, error) {
	if recordID == "" {
		return false, &ValidationError{Field: "RecordID", Message: "is required"}
	}
	if confirm != nil && !confirm.Confirm(ctx, "Delete this ECG record?") {
		return false, nil
	}

	err := r.t.do(ctx, request{
		method: http.MethodPost,
		path:   "/delete_ecg",
		body:   deleteBody{RecordID: recordID},
		auth:   true,
	}, nil)
	if err != nil {
		return false, err
	}

	r.forget(recordID)
	return true, nil
}

type signalBody struct {
	Email     string    `json:"email"`
	Signal    []float64 `json:"ecg_signal"`
	HeartRate *float64  `json:"heart_rate,omitempty"`
}

type storedReply struct {
	Message  string `json:"message"`
	RecordID string `json:"record_id"`
}

// IngestSimulated parses comma-separated samples and submits them. Malformed
// tokens are dropped and counted; a signal with no samples left is a
// ValidationError.
func (r *ECGRecordClient) IngestSimulated(ctx context.Context, owner, raw string) (*IngestResult, error) {
	signal, dropped := ParseSignal(raw)
	if len(signal) == 0 {
		return nil, &ValidationError{Field: "Signal", Message: "no numeric samples"}
	}
	owner = normalizeEmail(owner)

	v, err := r.inflight.do(ctx, "simulate", fingerprint(signal, owner), func(ctx context.Context) (any, error) {
		var reply storedReply
		err := r.t.do(ctx, request{
			method: http.MethodPost,
			path:   "/simulate_ecg",
			body:   signalBody{Email: owner, Signal: signal},
			auth:   true,
		}, &reply)
		return reply.RecordID, err
	})
	if err != nil {
		return nil, err
	}
	return &IngestResult{RecordID: v.(string), Signal: signal, Dropped: dropped}, nil
}

// Store persists a device-acquired signal and returns the record id.
func (r *ECGRecordClient) Store(ctx context.Context, owner string, signal []float64) (string, error) {
	return r.store(ctx, owner, signal, nil)
}

func (r *ECGRecordClient) store(ctx context.Context, owner string, signal []float64, heartRate *float64) (string, error) {
	if len(signal) == 0 {
		return "", &ValidationError{Field: "Signal", Message: "must not be empty"}
	}
	var reply storedReply
	err := r.t.do(ctx, request{
		method: http.MethodPost,
		path:   "/store_ecg_signal",
		body:   signalBody{Email: normalizeEmail(owner), Signal: signal, HeartRate: heartRate},
		auth:   true,
	}, &reply)
	if err != nil {
		return "", err
	}
	return reply.RecordID, nil
}

func (r *ECGRecordClient) forget(recordID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for owner, records := range r.cache {
		kept := records[:0:0]
		for _, rec := range records {
			if rec.ID != recordID {
				kept = append(kept, rec)
			}
		}
		r.cache[owner] = kept
	}
}

// snapshot copies up to n records of owner's cache.
func (r *ECGRecordClient) snapshot(owner string, n int) ([]Record, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	records := r.cache[owner]
	if n > len(records) {
		n = len(records)
	}
	out := make([]Record, n)
	for i := 0; i < n; i++ {
		out[i] = *records[i]
		out[i].Signal = copySignal(records[i].Signal)
	}
	return out, len(records)
}

// RecordView is a restartable pagination window over an owner's cached
// records, most recent first. It reads through the client cache, so
// optimistic classification results and deletions show up immediately; a new
// List replaces what every view of that owner sees.
type RecordView struct {
	records *ECGRecordClient
	owner   string

	mu    sync.Mutex
	shown int
}

func newRecordView(r *ECGRecordClient, owner string) *RecordView {
	return &RecordView{records: r, owner: owner, shown: PageSize}
}

// Visible returns the records inside the window.
func (v *RecordView) Visible() []Record {
	v.mu.Lock()
	n := v.shown
	v.mu.Unlock()
	out, _ := v.records.snapshot(v.owner, n)
	return out
}

// LoadMore extends the window by one page and returns its contents. At the
// end of the sequence it returns the same full set again.
func (v *RecordView) LoadMore() []Record {
	_, total := v.records.snapshot(v.owner, 0)
	v.mu.Lock()
	if v.shown < total {
		v.shown += PageSize
	}
	v.mu.Unlock()
	return v.Visible()
}

// HasMore reports whether LoadMore would reveal more records.
func (v *RecordView) HasMore() bool {
	_, total := v.records.snapshot(v.owner, 0)
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.shown < total
}

// Reset restarts the window at the first page.
func (v *RecordView) Reset() []Record {
	v.mu.Lock()
	v.shown = PageSize
	v.mu.Unlock()
	return v.Visible()
}

// Len is the number of cached records for the view's owner.
func (v *RecordView) Len() int {
	_, total := v.records.snapshot(v.owner, 0)
	return total
}
