package client

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// SessionKey names the persisted session.
const SessionKey = "userToken"

// ErrSessionCorrupt is returned when a stored session cannot be decrypted or
// decoded.
var ErrSessionCorrupt = errors.New("session: stored data is corrupt or was written with another passphrase")

// Session is the locally cached proof of the last successful login. It never
// replaces server-side authorization.
type Session struct {
	Email     string          `json:"email"`
	Name      string          `json:"name"`
	Role      string          `json:"role"`
	Token     string          `json:"token"`
	IssuedAt  time.Time       `json:"issued_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

// Expired reports whether the session is no longer usable at now. A session
// without an expiry is treated as expired.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.IsZero() || !now.Before(s.ExpiresAt)
}

func (s *Session) IsDoctor() bool { return s.Role == RoleDoctor }

// SessionStore persists at most one session. Load returns nil, nil when none
// is stored.
type SessionStore interface {
	Save(s *Session) error
	Load() (*Session, error)
	Clear() error
}

// --- memory ---

// MemoryStore keeps the session in process memory only.
type MemoryStore struct {
	mu      sync.Mutex
	session *Session
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Save(s *Session) error {
	cp := *s
	m.mu.Lock()
	m.session = &cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	cp := *m.session
	return &cp, nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()
	return nil
}

// --- file ---

// Argon2id parameters for the session key.
const (
	saltSize      = 16
	argonTime     = 1
	argonMemory   = 64 * 1024
	argonThreads  = 4
	sessionKeyLen = chacha20poly1305.KeySize
)

// FileStore writes the session to <dir>/userToken with mode 0600. The file
// holds salt, nonce and XChaCha20-Poly1305 ciphertext, keyed by Argon2id over
// the passphrase.
type FileStore struct {
	mu         sync.Mutex
	path       string
	passphrase []byte
}

func NewFileStore(dir, passphrase string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("session: directory is required")
	}
	if passphrase == "" {
		return nil, errors.New("session: passphrase is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("session: create dir: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, SessionKey), passphrase: []byte(passphrase)}, nil
}

// Path returns the session file location.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Save(s *Session) error {
	plain, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("session: salt: %w", err)
	}
	aead, err := chacha20poly1305.NewX(f.deriveKey(salt))
	if err != nil {
		return fmt.Errorf("session: cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("session: nonce: %w", err)
	}

	out := make([]byte, 0, len(salt)+len(nonce)+len(plain)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plain, []byte(SessionKey))

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("session: write: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("session: replace: %w", err)
	}
	return nil
}

func (f *FileStore) Load() (*Session, error) {
	f.mu.Lock()
	data, err := os.ReadFile(f.path)
	f.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: read: %w", err)
	}

	nonceSize := chacha20poly1305.NonceSizeX
	if len(data) < saltSize+nonceSize+chacha20poly1305.Overhead {
		return nil, ErrSessionCorrupt
	}
	salt, rest := data[:saltSize], data[saltSize:]
	nonce, sealed := rest[:nonceSize], rest[nonceSize:]

	aead, err := chacha20poly1305.NewX(f.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("session: cipher: %w", err)
	}
	plain, err := aead.Open(nil, nonce, sealed, []byte(SessionKey))
	if err != nil {
		return nil, ErrSessionCorrupt
	}

	var s Session
	if err := json.Unmarshal(plain, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCorrupt, err)
	}
	return &s, nil
}

// Clear removes the session file. Clearing an absent session is not an error.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

func (f *FileStore) deriveKey(salt []byte) []byte {
	return argon2.IDKey(f.passphrase, salt, argonTime, argonMemory, argonThreads, sessionKeyLen)
}
