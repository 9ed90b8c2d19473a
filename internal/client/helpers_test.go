package client

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestClient starts handler as the backend and returns a client pointed at
// it. When logged is set a patient session for ana@example.com is stored.
func newTestClient(t *testing.T, handler http.Handler, logged bool) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		BaseURL: srv.URL,
		Log:     zerolog.Nop(),
		Now:     func() time.Time { return testNow },
	})
	require.NoError(t, err)

	if logged {
		require.NoError(t, c.Sessions.Save(&Session{
			Email:     "ana@example.com",
			Role:      RolePatient,
			Token:     "tok",
			IssuedAt:  testNow.Add(-time.Minute),
			ExpiresAt: testNow.Add(time.Hour),
		}))
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// readJSON runs on the server goroutine, so it must not stop the test.
func readJSON(t *testing.T, r *http.Request, v any) {
	t.Helper()
	assert.NoError(t, json.NewDecoder(r.Body).Decode(v))
}

type call struct {
	method string
	path   string
}

// recorder counts backend hits per route.
type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (rc *recorder) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc.mu.Lock()
		rc.calls = append(rc.calls, call{r.Method, r.URL.Path})
		rc.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (rc *recorder) count(path string) int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	n := 0
	for _, c := range rc.calls {
		if c.path == path {
			n++
		}
	}
	return n
}
