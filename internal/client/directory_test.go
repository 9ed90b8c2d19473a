package client

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryClient(t *testing.T) {
	uploaded := make(chan profileImageBody, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /get_doctors", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"doctors": []Doctor{{Name: "Dr. X", Email: "dr.x@example.com"}}})
	})
	mux.HandleFunc("GET /user/{email}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("email") != "ana@example.com" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
			return
		}
		writeJSON(w, http.StatusOK, Principal{Name: "Ana", Email: "ana@example.com", Role: RolePatient, LatestECGResult: "Normal"})
	})
	mux.HandleFunc("GET /user/{email}/ecg-history", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"history": []HistoryEntry{
			{Result: "Normal", Timestamp: testNow},
			{Result: "Arrhythmia", Timestamp: testNow.Add(1)},
		}})
	})
	mux.HandleFunc("POST /upload_profile_image", func(w http.ResponseWriter, r *http.Request) {
		var body profileImageBody
		readJSON(t, r, &body)
		uploaded <- body
		writeJSON(w, http.StatusOK, map[string]string{"message": "Profile image uploaded successfully"})
	})
	c := newTestClient(t, mux, true)
	ctx := context.Background()

	doctors, err := c.Directory.Doctors(ctx)
	require.NoError(t, err)
	assert.Len(t, doctors, 1)

	p, err := c.Directory.Profile(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Normal", p.LatestECGResult)

	_, err = c.Directory.Profile(ctx, "ghost@example.com")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)

	history, err := c.Directory.History(ctx, "ana@example.com")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Arrhythmia", history[0].Result, "most recent first")

	require.NoError(t, c.Directory.UploadProfileImage(ctx, "ana@example.com", []byte("png")))
	body := <-uploaded
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png")), body.ImageBase64)

	var ve *ValidationError
	require.ErrorAs(t, c.Directory.UploadProfileImage(ctx, "ana@example.com", nil), &ve)
	_, err = c.Directory.Profile(ctx, "not-an-email")
	require.ErrorAs(t, err, &ve)
}
