package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func runAuth(t *testing.T, header string) (*httptest.ResponseRecorder, bool, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth("secret")(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called, c
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"email": "ana@example.com",
		"role":  "patient",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	rec, called, c := runAuth(t, "Bearer "+token)
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if c.Get(ContextKeyEmail) != "ana@example.com" || c.Get(ContextKeyRole) != "patient" {
		t.Fatalf("claims not set: %v %v", c.Get(ContextKeyEmail), c.Get(ContextKeyRole))
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	expired := signToken(t, jwt.MapClaims{
		"email": "ana@example.com",
		"role":  "patient",
		"exp":   time.Now().Add(-time.Minute).Unix(),
	})
	noExpiry := signToken(t, jwt.MapClaims{"email": "ana@example.com", "role": "patient"})
	noRole := signToken(t, jwt.MapClaims{"email": "ana@example.com", "exp": time.Now().Add(time.Hour).Unix()})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Token abc"},
		{"garbage token", "Bearer not-a-token"},
		{"expired", "Bearer " + expired},
		{"no expiry", "Bearer " + noExpiry},
		{"no role claim", "Bearer " + noRole},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, called, _ := runAuth(t, tc.header)
			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}
