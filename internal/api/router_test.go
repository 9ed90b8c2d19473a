package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
)

type stubDirectory struct{}

func (stubDirectory) Profile(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (stubDirectory) SetProfileImage(context.Context, string, string) error { return nil }

func (stubDirectory) Doctors(context.Context) ([]*domain.User, error) {
	return []*domain.User{{Name: "Dr. Bo", Email: "bo@example.com"}}, nil
}

func (stubDirectory) History(context.Context, string) ([]domain.ClassificationResult, error) {
	return nil, nil
}

func signToken(t *testing.T, email, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"role":  role,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestRouter(t *testing.T) {
	e := NewRouter(Dependencies{
		Directory: stubDirectory{},
		JWTSecret: "secret",
		Log:       zerolog.Nop(),
		Registry:  prometheus.NewRegistry(),
	})

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		wantCode int
	}{
		{"public doctors", http.MethodGet, "/get_doctors", "", http.StatusOK},
		{"liveness", http.MethodGet, "/health", "", http.StatusOK},
		{"readiness without checks", http.MethodGet, "/health/ready", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"classify needs token", http.MethodPost, "/classify", "", http.StatusUnauthorized},
		{"reply needs doctor", http.MethodPost, "/reply_consultation", signToken(t, "ana@example.com", domain.RolePatient), http.StatusForbidden},
		{"consult needs patient", http.MethodPost, "/consult_doctor", signToken(t, "bo@example.com", domain.RoleDoctor), http.StatusForbidden},
		{"profile maps domain error", http.MethodGet, "/user/ana@example.com", signToken(t, "ana@example.com", domain.RolePatient), http.StatusNotFound},
		{"unknown route", http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}"))
			req.Header.Set("Content-Type", "application/json")
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d: %s", tc.wantCode, rec.Code, rec.Body.String())
			}
		})
	}
}
