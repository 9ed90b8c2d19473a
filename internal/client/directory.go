package client

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
)

// Doctor is one entry of the public doctor directory.
type Doctor struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Specialization string `json:"specialization"`
	Contact        string `json:"contact"`
}

// HistoryEntry is one classification in a patient's history log.
type HistoryEntry struct {
	RecordID   string    `json:"record_id,omitempty"`
	Result     string    `json:"result"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// DirectoryClient reads profiles, the doctor list and classification history.
type DirectoryClient struct {
	t        *transport
	validate *validator.Validate
}

func newDirectoryClient(t *transport, v *validator.Validate) *DirectoryClient {
	return &DirectoryClient{t: t, validate: v}
}

func (d *DirectoryClient) Doctors(ctx context.Context) ([]Doctor, error) {
	var reply doctorsReply
	if err := d.t.do(ctx, request{method: http.MethodGet, path: "/get_doctors"}, &reply); err != nil {
		return nil, err
	}
	return reply.Doctors, nil
}

func (d *DirectoryClient) Profile(ctx context.Context, email string) (*Principal, error) {
	email, err := d.checkEmail(email)
	if err != nil {
		return nil, err
	}
	var p Principal
	if err := d.t.do(ctx, request{method: http.MethodGet, path: "/user/" + url.PathEscape(email), auth: true}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

type profileImageBody struct {
	Email       string `json:"email"`
	ImageBase64 string `json:"image_base64"`
}

// UploadProfileImage base64-encodes image and stores it as the user's picture.
func (d *DirectoryClient) UploadProfileImage(ctx context.Context, email string, image []byte) error {
	email, err := d.checkEmail(email)
	if err != nil {
		return err
	}
	if len(image) == 0 {
		return &ValidationError{Field: "Image", Message: "must not be empty"}
	}
	return d.t.do(ctx, request{
		method: http.MethodPost,
		path:   "/upload_profile_image",
		body:   profileImageBody{Email: email, ImageBase64: base64.StdEncoding.EncodeToString(image)},
		auth:   true,
	}, nil)
}

type historyReply struct {
	History []HistoryEntry `json:"history"`
}

// History returns the classification log, most recent first.
func (d *DirectoryClient) History(ctx context.Context, email string) ([]HistoryEntry, error) {
	email, err := d.checkEmail(email)
	if err != nil {
		return nil, err
	}
	var reply historyReply
	err = d.t.do(ctx, request{
		method: http.MethodGet,
		path:   "/user/" + url.PathEscape(email) + "/ecg-history",
		auth:   true,
	}, &reply)
	if err != nil {
		return nil, err
	}

	out := make([]HistoryEntry, len(reply.History))
	for i, h := range reply.History {
		out[len(out)-1-i] = h
	}
	return out, nil
}

func (d *DirectoryClient) checkEmail(email string) (string, error) {
	email = normalizeEmail(email)
	if err := d.validate.Var(email, "required,email"); err != nil {
		return "", &ValidationError{Field: "Email", Message: "must be a valid email"}
	}
	return email, nil
}
