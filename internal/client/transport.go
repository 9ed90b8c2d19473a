package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerRequestID      = "X-Request-ID"
	maxResponseBytes     = 16 << 20
)

// transport issues backend calls, attaches the bearer token and maps HTTP
// statuses onto the typed errors.
type transport struct {
	baseURL  string
	http     *http.Client
	sessions SessionStore
	now      func() time.Time
	log      zerolog.Logger
}

type request struct {
	method string
	path   string
	query  url.Values
	// body is JSON-encoded unless it is a rawBody.
	body    any
	headers map[string]string
	auth    bool
}

// rawBody sends pre-encoded content such as a multipart form.
type rawBody struct {
	contentType string
	data        []byte
}

// errorEnvelope is the backend's {"error": "..."} body.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do sends req and decodes a 2xx body into out. out may be nil, a *[]byte for
// raw bodies, or any JSON target.
func (t *transport) do(ctx context.Context, req request, out any) error {
	httpReq, err := t.build(ctx, req)
	if err != nil {
		return err
	}

	start := t.now()
	resp, err := t.http.Do(httpReq)
	if err != nil {
		return &NetworkError{Op: req.method + " " + req.path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &NetworkError{Op: "read " + req.path, Err: err}
	}

	t.log.Debug().
		Str("method", req.method).
		Str("path", req.path).
		Str("request_id", httpReq.Header.Get(headerRequestID)).
		Int("status", resp.StatusCode).
		Dur("latency", t.now().Sub(start)).
		Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, body)
	}
	return decodeInto(body, out)
}

func (t *transport) build(ctx context.Context, req request) (*http.Request, error) {
	target := t.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var (
		reader      io.Reader
		contentType string
	)
	switch b := req.body.(type) {
	case nil:
	case rawBody:
		reader, contentType = bytes.NewReader(b.data), b.contentType
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", req.path, err)
		}
		reader, contentType = bytes.NewReader(payload), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", req.path, err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(headerRequestID, uuid.NewString())
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	if req.auth {
		token, err := t.token()
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return httpReq, nil
}

// session returns the stored session when it is present and unexpired.
func (t *transport) session() (*Session, error) {
	s, err := t.sessions.Load()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, &AuthError{Message: "not logged in"}
	}
	if s.Expired(t.now()) {
		return nil, &AuthError{Message: "session expired"}
	}
	return s, nil
}

func (t *transport) token() (string, error) {
	s, err := t.session()
	if err != nil {
		return "", err
	}
	return s.Token, nil
}

// statusError maps a non-2xx status and its envelope onto a typed error.
func statusError(status int, body []byte) error {
	msg := http.StatusText(status)
	var env errorEnvelope
	if json.Unmarshal(body, &env) == nil {
		switch {
		case env.Error != "":
			msg = env.Error
		case env.Message != "":
			msg = env.Message
		}
	}

	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &ValidationError{Message: msg}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Status: status, Message: msg}
	case http.StatusNotFound:
		return &NotFoundError{Message: msg}
	case http.StatusConflict:
		return &ConflictError{Message: msg}
	default:
		return &ServerError{Status: status, Message: msg}
	}
}

func decodeInto(body []byte, out any) error {
	switch o := out.(type) {
	case nil:
		return nil
	case *[]byte:
		*o = body
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return &ServerError{Status: http.StatusOK, Message: "empty response body"}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ServerError{Status: http.StatusOK, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

// notFoundAsServerError reports a 404 as a ServerError for operations that
// have no not-found outcome.
func notFoundAsServerError(err error) error {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return &ServerError{Status: http.StatusNotFound, Message: nf.Message}
	}
	return err
}
