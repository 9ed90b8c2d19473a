package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
)

// RBAC admits callers whose role, as set by Auth, is one of allowedRoles.
// Rejections are domain errors so the central error handler writes the same
// body the login endpoints use for a role mismatch.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}
	denied := domain.ErrForbidden
	if len(allowedRoles) == 1 {
		switch allowedRoles[0] {
		case domain.RolePatient:
			denied = domain.ErrNotPatient
		case domain.RoleDoctor:
			denied = domain.ErrNotDoctor
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextKeyRole).(string)
			if _, ok := allowed[role]; !ok {
				return denied
			}
			return next(c)
		}
	}
}
