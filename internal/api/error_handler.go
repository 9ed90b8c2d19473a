package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
)

// errorResponse is the envelope every failed request receives.
type errorResponse struct {
	Error string `json:"error"`
}

// errorMapping ties a domain sentinel to its status. An empty msg means the
// wrapped error text is returned, which keeps field names in validation
// failures.
type errorMapping struct {
	target error
	code   int
	msg    string
}

// Evaluated in order; the first errors.Is match wins.
var errorMappings = []errorMapping{
	{domain.ErrInvalidInput, http.StatusBadRequest, ""},
	{domain.ErrEmptySignal, http.StatusBadRequest, ""},
	{domain.ErrInvalidCSV, http.StatusBadRequest, ""},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid password"},
	{domain.ErrNotPatient, http.StatusForbidden, "Access denied: Not a patient"},
	{domain.ErrNotDoctor, http.StatusForbidden, "Access denied: Not a doctor"},
	{domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
	{domain.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{domain.ErrConsultationNotFound, http.StatusNotFound, "Consultation not found"},
	{domain.ErrRecordNotFound, http.StatusNotFound, "Record not found"},
	{domain.ErrUserExists, http.StatusConflict, "User with this email already exists"},
	{domain.ErrRequestInFlight, http.StatusConflict, "request already in progress"},
	{domain.ErrClassifierUnavailable, http.StatusServiceUnavailable, "classifier unavailable"},
}

// NewHTTPErrorHandler renders every handler error as {"error": msg}. Echo
// errors keep their code, mapped domain errors get theirs, and anything else
// is logged and reported as a 500 without detail.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg := resolveError(err)
		if code == http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("unhandled error")
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		if m.msg == "" {
			return m.code, err.Error()
		}
		return m.code, m.msg
	}
	return http.StatusInternalServerError, "internal server error"
}
