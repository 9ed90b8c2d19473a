package client

import (
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession() *Session {
	return &Session{
		Email:     "ana@example.com",
		Name:      "Ana",
		Role:      RolePatient,
		Token:     "tok",
		IssuedAt:  testNow,
		ExpiresAt: testNow.Add(time.Hour),
		Raw:       []byte(`{"token":"tok"}`),
	}
}

func TestSession_Expired(t *testing.T) {
	s := sampleSession()
	assert.False(t, s.Expired(testNow))
	assert.True(t, s.Expired(testNow.Add(time.Hour)))

	s.ExpiresAt = time.Time{}
	assert.True(t, s.Expired(testNow), "a session without expiry is unusable")
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore()

	s, err := m.Load()
	require.NoError(t, err)
	assert.Nil(t, s)

	orig := sampleSession()
	require.NoError(t, m.Save(orig))
	orig.Email = "changed@example.com"

	s, err = m.Load()
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", s.Email)

	require.NoError(t, m.Clear())
	require.NoError(t, m.Clear())
	s, err = m.Load()
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestFileStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir, "correct horse")
	require.NoError(t, err)

	s, err := fs.Load()
	require.NoError(t, err)
	assert.Nil(t, s)

	require.NoError(t, fs.Save(sampleSession()))

	raw, err := os.ReadFile(fs.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "ana@example.com", "session must be encrypted at rest")

	if runtime.GOOS != "windows" {
		info, err := os.Stat(fs.Path())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	got, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Equal(t, "tok", got.Token)
	assert.True(t, got.ExpiresAt.Equal(testNow.Add(time.Hour)))
	assert.JSONEq(t, `{"token":"tok"}`, string(got.Raw))

	// Save overwrites the prior session.
	next := sampleSession()
	next.Token = "tok2"
	require.NoError(t, fs.Save(next))
	got, err = fs.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok2", got.Token)

	require.NoError(t, fs.Clear())
	require.NoError(t, fs.Clear())
	got, err = fs.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileStore_Corrupt(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir, "correct horse")
	require.NoError(t, err)
	require.NoError(t, fs.Save(sampleSession()))

	other, err := NewFileStore(dir, "wrong")
	require.NoError(t, err)
	_, err = other.Load()
	assert.ErrorIs(t, err, ErrSessionCorrupt)

	raw, err := os.ReadFile(fs.Path())
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	require.NoError(t, os.WriteFile(fs.Path(), raw, 0o600))
	_, err = fs.Load()
	assert.ErrorIs(t, err, ErrSessionCorrupt)

	require.NoError(t, os.WriteFile(fs.Path(), []byte("short"), 0o600))
	_, err = fs.Load()
	assert.ErrorIs(t, err, ErrSessionCorrupt)
}

func TestNewFileStore_RequiresArguments(t *testing.T) {
	_, err := NewFileStore("", "pass")
	assert.Error(t, err)
	_, err = NewFileStore(t.TempDir(), "")
	assert.Error(t, err)
}
