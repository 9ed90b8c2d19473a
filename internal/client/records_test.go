package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordBackend serves the ECG record routes for one patient.
type recordBackend struct {
	mu       sync.Mutex
	records  []*Record
	classify func(w http.ResponseWriter, body classifyBody)
	nextID   int
}

func newRecordBackend(n int) *recordBackend {
	b := &recordBackend{}
	for i := 1; i <= n; i++ {
		b.records = append(b.records, &Record{
			ID:        fmt.Sprintf("r%d", i),
			Email:     "ana@example.com",
			Signal:    []float64{float64(i)},
			Timestamp: testNow.Add(time.Duration(i) * time.Minute),
		})
	}
	b.nextID = n
	return b
}

func (b *recordBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /get_ecg_data", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ana@example.com", r.URL.Query().Get("email"))
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"ecg_data": b.records})
	})
	mux.HandleFunc("POST /classify", func(w http.ResponseWriter, r *http.Request) {
		var body classifyBody
		readJSON(t, r, &body)
		if b.classify != nil {
			b.classify(w, body)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"classification": "Arrhythmia", "confidence": 0.9})
	})
	mux.HandleFunc("POST /delete_ecg", func(w http.ResponseWriter, r *http.Request) {
		var body deleteBody
		readJSON(t, r, &body)
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, rec := range b.records {
			if rec.ID == body.RecordID {
				b.records = append(b.records[:i], b.records[i+1:]...)
				writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted 1 ECG record(s)."})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Record not found"})
	})
	mux.HandleFunc("POST /simulate_ecg", func(w http.ResponseWriter, r *http.Request) {
		var body signalBody
		readJSON(t, r, &body)
		b.mu.Lock()
		defer b.mu.Unlock()
		b.nextID++
		id := fmt.Sprintf("r%d", b.nextID)
		b.records = append(b.records, &Record{ID: id, Email: body.Email, Signal: body.Signal})
		writeJSON(w, http.StatusCreated, map[string]string{"message": "ECG signal stored", "record_id": id})
	})
	mux.HandleFunc("POST /generate_ecg_image", func(w http.ResponseWriter, r *http.Request) {
		var body imageBody
		readJSON(t, r, &body)
		if len(body.Signal) > 3 {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "render failed"})
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG"))
	})
	return mux
}

func ids(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestECGRecordClient_List_NewestFirstPaged(t *testing.T) {
	b := newRecordBackend(12)
	c := newTestClient(t, b.handler(t), true)

	view, err := c.Records.List(context.Background(), "Ana@example.com")
	require.NoError(t, err)

	assert.Equal(t, 12, view.Len())
	assert.Equal(t, []string{"r12", "r11", "r10", "r9", "r8"}, ids(view.Visible()))
	assert.True(t, view.HasMore())

	assert.Len(t, view.LoadMore(), 10)
	all := view.LoadMore()
	assert.Len(t, all, 12)
	assert.Equal(t, "r1", all[11].ID)
	assert.False(t, view.HasMore())

	assert.Equal(t, ids(all), ids(view.LoadMore()), "loading past the end returns the same set")

	assert.Len(t, view.Reset(), PageSize)
}

func TestECGRecordClient_List_Empty(t *testing.T) {
	c := newTestClient(t, newRecordBackend(0).handler(t), true)

	view, err := c.Records.List(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Empty(t, view.Visible())
	assert.Empty(t, view.LoadMore())
	assert.False(t, view.HasMore())
}

func TestECGRecordClient_List_RequiresSession(t *testing.T) {
	c := newTestClient(t, newRecordBackend(1).handler(t), false)

	_, err := c.Records.List(context.Background(), "ana@example.com")
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
}

func TestECGRecordClient_Classify_MutatesOnlyTarget(t *testing.T) {
	b := newRecordBackend(3)
	seen := make(chan classifyBody, 1)
	b.classify = func(w http.ResponseWriter, body classifyBody) {
		seen <- body
		writeJSON(w, http.StatusOK, map[string]any{"classification": "Atrial Fibrillation", "confidence": 0.7})
	}
	c := newTestClient(t, b.handler(t), true)
	ctx := context.Background()

	view, err := c.Records.List(ctx, "ana@example.com")
	require.NoError(t, err)

	signal := []float64{0.1, -0.2, 0.3}
	res, err := c.Records.Classify(ctx, "ana@example.com", signal, "r2")
	require.NoError(t, err)
	assert.Equal(t, "Atrial Fibrillation", res.Label)
	got := <-seen
	assert.Equal(t, signal, got.Signal, "signal is sent unmodified")
	assert.Equal(t, "r2", got.RecordID)

	for _, rec := range view.Visible() {
		if rec.ID == "r2" {
			assert.Equal(t, "Atrial Fibrillation", rec.TestResult)
			assert.Equal(t, 0.7, rec.Confidence)
		} else {
			assert.Empty(t, rec.TestResult, rec.ID)
		}
	}
}

func TestECGRecordClient_Classify_SharedCallOutlivesFirstCaller(t *testing.T) {
	b := newRecordBackend(1)
	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	b.classify = func(w http.ResponseWriter, _ classifyBody) {
		entered <- struct{}{}
		<-release
		writeJSON(w, http.StatusOK, map[string]any{"classification": "Normal", "confidence": 0.9})
	}
	c := newTestClient(t, b.handler(t), true)
	signal := []float64{0.1, 0.2}

	short, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Records.Classify(short, "ana@example.com", signal, "r1")
		firstErr <- err
	}()
	<-entered

	type outcome struct {
		res Classification
		err error
	}
	second := make(chan outcome, 1)
	go func() {
		res, err := c.Records.Classify(context.Background(), "ana@example.com", signal, "r1")
		second <- outcome{res, err}
	}()

	err := <-firstErr
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, "Normal", got.res.Label)
}

func TestECGRecordClient_Classify_Errors(t *testing.T) {
	b := newRecordBackend(1)
	b.classify = func(w http.ResponseWriter, _ classifyBody) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "classifier unavailable"})
	}
	rc := &recorder{}
	c := newTestClient(t, rc.wrap(b.handler(t)), true)
	ctx := context.Background()

	_, err := c.Records.Classify(ctx, "ana@example.com", nil, "r1")
	var ce *ClassificationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 0, rc.count("/classify"), "empty signal never reaches the backend")

	_, err = c.Records.Classify(ctx, "ana@example.com", []float64{1}, "r1")
	require.ErrorAs(t, err, &ce)
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Status)
}

func TestECGRecordClient_Delete(t *testing.T) {
	b := newRecordBackend(3)
	rc := &recorder{}
	c := newTestClient(t, rc.wrap(b.handler(t)), true)
	ctx := context.Background()

	view, err := c.Records.List(ctx, "ana@example.com")
	require.NoError(t, err)

	deleted, err := c.Records.Delete(ctx, "r2", ConfirmFunc(func(context.Context, string) bool { return false }))
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, 0, rc.count("/delete_ecg"))

	yes := ConfirmFunc(func(context.Context, string) bool { return true })
	deleted, err = c.Records.Delete(ctx, "r2", yes)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, []string{"r3", "r1"}, ids(view.Visible()))

	view, err = c.Records.List(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.NotContains(t, ids(view.Visible()), "r2")

	_, err = c.Records.Delete(ctx, "r2", yes)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestECGRecordClient_RenderImage(t *testing.T) {
	rc := &recorder{}
	c := newTestClient(t, rc.wrap(newRecordBackend(0).handler(t)), true)
	ctx := context.Background()

	assert.Nil(t, c.Records.RenderImage(ctx, nil))
	assert.Equal(t, 0, rc.count("/generate_ecg_image"))

	assert.Equal(t, []byte("\x89PNG"), c.Records.RenderImage(ctx, []float64{1, 2, 3}))
	assert.Nil(t, c.Records.RenderImage(ctx, []float64{1, 2, 3, 4}), "backend failure degrades to no image")
}

func TestECGRecordClient_IngestSimulated(t *testing.T) {
	b := newRecordBackend(0)
	c := newTestClient(t, b.handler(t), true)
	ctx := context.Background()

	res, err := c.Records.IngestSimulated(ctx, "ana@example.com", "0.1, abc, 0.2,, 0.3")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, res.Signal)
	assert.Equal(t, 2, res.Dropped)
	assert.Equal(t, "r1", res.RecordID)
	b.mu.Lock()
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, b.records[0].Signal)
	b.mu.Unlock()

	_, err = c.Records.IngestSimulated(ctx, "ana@example.com", "abc,,")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}
