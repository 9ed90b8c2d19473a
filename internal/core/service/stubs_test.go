package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
	"github.com/raiahtisham/ecg-health-iq/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users   map[string]*domain.User
	pushErr error
	findErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	c.ECGResults = slices.Clone(u.ECGResults)
	return &c
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, ok := r.users[user.Email]; ok {
		return nil, domain.ErrUserExists
	}
	c := cloneUser(user)
	c.ID = fmt.Sprintf("u%d", len(r.users)+1)
	r.users[c.Email] = c
	return cloneUser(c), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, email, hash string) error {
	u, ok := r.users[email]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *stubUserRepo) SetProfileImage(_ context.Context, email, inline, ref string) error {
	u, ok := r.users[email]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.ProfileImage = inline
	u.ProfileImageRef = ref
	return nil
}

func (r *stubUserRepo) PushResult(_ context.Context, email string, res domain.ClassificationResult) error {
	if r.pushErr != nil {
		return r.pushErr
	}
	u, ok := r.users[email]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.ECGResults = append(u.ECGResults, res)
	u.LatestECGResult = res.Result
	return nil
}

func (r *stubUserRepo) ListByRole(_ context.Context, role string) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r *stubUserRepo) seed(email, role string) {
	r.users[email] = &domain.User{ID: email, Email: email, Name: "seed", Role: role}
}

// ---------------------------------------------------------------------------
// ECG records
// ---------------------------------------------------------------------------

type stubECGRepo struct {
	records   []*domain.ECGRecord
	insertErr error
	setErr    error
	seq       int
}

func (r *stubECGRepo) Insert(_ context.Context, rec *domain.ECGRecord) (string, error) {
	if r.insertErr != nil {
		return "", r.insertErr
	}
	r.seq++
	c := *rec
	c.ID = fmt.Sprintf("rec%d", r.seq)
	r.records = append(r.records, &c)
	return c.ID, nil
}

func (r *stubECGRepo) FindByID(_ context.Context, id string) (*domain.ECGRecord, error) {
	for _, rec := range r.records {
		if rec.ID == id {
			c := *rec
			return &c, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *stubECGRepo) ListByOwner(_ context.Context, email string) ([]*domain.ECGRecord, error) {
	out := []*domain.ECGRecord{}
	for _, rec := range r.records {
		if rec.Email == email {
			c := *rec
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *stubECGRepo) SetClassification(_ context.Context, id, email string, c domain.Classification, at time.Time) error {
	if r.setErr != nil {
		return r.setErr
	}
	for _, rec := range r.records {
		if rec.ID == id && rec.Email == email {
			rec.TestResult = c.Label
			rec.Confidence = c.Confidence
			rec.ClassifiedAt = &at
			return nil
		}
	}
	return domain.ErrRecordNotFound
}

func (r *stubECGRepo) Delete(_ context.Context, id string) error {
	for i, rec := range r.records {
		if rec.ID == id {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return domain.ErrRecordNotFound
}

func (r *stubECGRepo) ExistsWithSignal(_ context.Context, email string, signal []float64) (bool, error) {
	for _, rec := range r.records {
		if rec.Email == email && slices.Equal(rec.Signal, signal) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubECGRepo) Latest(_ context.Context, email string) (*domain.ECGRecord, error) {
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].Email == email {
			c := *r.records[i]
			return &c, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *stubECGRepo) SetDoctorResponse(_ context.Context, id, response string) error {
	for _, rec := range r.records {
		if rec.ID == id {
			rec.DoctorResponse = response
			return nil
		}
	}
	return domain.ErrRecordNotFound
}

// ---------------------------------------------------------------------------
// Consultations
// ---------------------------------------------------------------------------

type stubConsultationRepo struct {
	items     []*domain.Consultation
	createErr error
	findErr   error
}

func (r *stubConsultationRepo) Create(_ context.Context, c *domain.Consultation) (string, error) {
	if r.createErr != nil {
		return "", r.createErr
	}
	cp := *c
	cp.ID = fmt.Sprintf("c%d", len(r.items)+1)
	r.items = append(r.items, &cp)
	return cp.ID, nil
}

func (r *stubConsultationRepo) FindByIdempotencyKey(_ context.Context, key string) (*domain.Consultation, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, c := range r.items {
		if c.IdempotencyKey == key {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrConsultationNotFound
}

func (r *stubConsultationRepo) List(_ context.Context, f ports.ConsultationFilter) ([]*domain.Consultation, error) {
	out := []*domain.Consultation{}
	for i := len(r.items) - 1; i >= 0; i-- {
		c := r.items[i]
		if f.DoctorEmail != "" && c.DoctorEmail != f.DoctorEmail {
			continue
		}
		if f.PatientEmail != "" && c.PatientEmail != f.PatientEmail {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *stubConsultationRepo) SetReply(_ context.Context, patient, doctor, reply string, at time.Time) (*domain.Consultation, error) {
	for i := len(r.items) - 1; i >= 0; i-- {
		c := r.items[i]
		if c.PatientEmail != patient || (doctor != "" && c.DoctorEmail != doctor) {
			continue
		}
		before := *c
		c.DoctorReply = reply
		c.RepliedAt = &at
		return &before, nil
	}
	return nil, domain.ErrConsultationNotFound
}

func (r *stubConsultationRepo) Delete(_ context.Context, id string) error {
	for i, c := range r.items {
		if c.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrConsultationNotFound
}

// ---------------------------------------------------------------------------
// Collaborators
// ---------------------------------------------------------------------------

type stubClassifier struct {
	probs  []float64
	err    error
	called int
	got    []float64
}

func (c *stubClassifier) Predict(_ context.Context, signal []float64) ([]float64, error) {
	c.called++
	c.got = signal
	return c.probs, c.err
}

type stubRenderer struct{}

func (stubRenderer) Render(_ context.Context, signal []float64) ([]byte, error) {
	return []byte(fmt.Sprintf("png:%d", len(signal))), nil
}

type stubBlobs struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newStubBlobs() *stubBlobs {
	return &stubBlobs{objects: map[string][]byte{}, types: map[string]string{}}
}

func (b *stubBlobs) Put(_ context.Context, key string, data []byte, contentType string) error {
	if b.putErr != nil {
		return b.putErr
	}
	b.objects[key] = slices.Clone(data)
	b.types[key] = contentType
	return nil
}

func (b *stubBlobs) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := b.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

type stubKeys struct {
	mu       sync.Mutex
	held     map[string]bool
	err      error
	released []string
}

func newStubKeys() *stubKeys { return &stubKeys{held: map[string]bool{}} }

func (k *stubKeys) Reserve(_ context.Context, scope, key string, _ time.Duration) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.err != nil {
		return false, k.err
	}
	id := scope + ":" + key
	if k.held[id] {
		return false, nil
	}
	k.held[id] = true
	return true, nil
}

func (k *stubKeys) Release(_ context.Context, scope, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	id := scope + ":" + key
	delete(k.held, id)
	k.released = append(k.released, id)
	return nil
}

type stubPublisher struct {
	events []domain.ConsultationEvent
}

func (p *stubPublisher) Publish(e domain.ConsultationEvent) { p.events = append(p.events, e) }
