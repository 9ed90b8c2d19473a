package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/raiahtisham/ecg-health-iq/internal/api/middleware"
	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
)

// principal is the caller identity injected by the Auth middleware.
type principal struct {
	Email string
	Role  string
}

func (p principal) isDoctor() bool { return p.Role == domain.RoleDoctor }

// ctxPrincipal extracts the auth claims and fails fast when the middleware did
// not run.
func ctxPrincipal(c echo.Context) (principal, error) {
	email, _ := c.Get(middleware.ContextKeyEmail).(string)
	role, _ := c.Get(middleware.ContextKeyRole).(string)
	if email == "" || role == "" {
		return principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return principal{Email: domain.NormalizeEmail(email), Role: role}, nil
}

// requireSelf resolves the acting email for a request. An empty payload email
// defaults to the caller; any other email is ErrForbidden.
func requireSelf(c echo.Context, email string) (principal, string, error) {
	p, err := ctxPrincipal(c)
	if err != nil {
		return principal{}, "", err
	}
	email = domain.NormalizeEmail(email)
	if email == "" {
		return p, p.Email, nil
	}
	if email != p.Email {
		return principal{}, "", domain.ErrForbidden
	}
	return p, email, nil
}

// requireSelfOrDoctor lets doctors act on any patient and patients only on
// themselves.
func requireSelfOrDoctor(c echo.Context, email string) (string, error) {
	p, err := ctxPrincipal(c)
	if err != nil {
		return "", err
	}
	if p.isDoctor() {
		email = domain.NormalizeEmail(email)
		if email == "" {
			return "", echo.NewHTTPError(http.StatusBadRequest, "missing email")
		}
		return email, nil
	}
	_, email, err = requireSelf(c, email)
	return email, err
}

type messageResponse struct {
	Message string `json:"message"`
}
