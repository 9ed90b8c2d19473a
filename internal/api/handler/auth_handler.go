package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
	"github.com/raiahtisham/ecg-health-iq/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterPatient creates a patient account.
//
// @Summary      Register a patient
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerPatientRequest  true  "Patient registration details"
// @Success      201   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /register [post]
func (h *AuthHandler) RegisterPatient(c echo.Context) error {
	var req registerPatientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	_, err := h.authService.RegisterPatient(c.Request().Context(), ports.RegisterPatientInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		Age:            req.Age,
		Gender:         req.Gender,
		MedicalHistory: req.MedicalHistory,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, messageResponse{Message: "User registered successfully"})
}

// RegisterDoctor creates a doctor account.
//
// @Summary      Register a doctor
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerDoctorRequest  true  "Doctor registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /doctor_register [post]
func (h *AuthHandler) RegisterDoctor(c echo.Context) error {
	var req registerDoctorRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.RegisterDoctor(c.Request().Context(), ports.RegisterDoctorInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		Age:            req.Age,
		Gender:         req.Gender,
		Specialization: req.Specialization,
		Contact:        req.Contact,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, registerResponse{Message: "Doctor registered successfully", User: user})
}

// Login authenticates a patient and returns a JWT.
//
// @Summary      Patient login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  patientLoginResponse
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, domain.RolePatient)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, patientLoginResponse{
		Message:   "Login successful",
		User:      res.User.Name,
		Email:     res.User.Email,
		Role:      res.User.Role,
		Token:     res.Token,
		IssuedAt:  res.IssuedAt,
		ExpiresAt: res.ExpiresAt,
	})
}

// DoctorLogin authenticates a doctor and returns a JWT.
//
// @Summary      Doctor login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  doctorLoginResponse
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /doctor_login [post]
func (h *AuthHandler) DoctorLogin(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, domain.RoleDoctor)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, doctorLoginResponse{
		Message:        "Login successful",
		Doctor:         res.User.Name,
		Email:          res.User.Email,
		Role:           res.User.Role,
		Specialization: res.User.Specialization,
		Token:          res.Token,
		IssuedAt:       res.IssuedAt,
		ExpiresAt:      res.ExpiresAt,
	})
}

// Refresh re-issues the caller's token.
//
// @Summary      Refresh session token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  refreshResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /refresh-token [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	res, err := h.authService.Refresh(c.Request().Context(), p.Email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, refreshResponse{
		Email:     res.User.Email,
		Role:      res.User.Role,
		Token:     res.Token,
		IssuedAt:  res.IssuedAt,
		ExpiresAt: res.ExpiresAt,
	})
}

// ResetPassword replaces a user's password.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Email and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.ResetPassword(c.Request().Context(), req.Email, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Password reset successful"})
}
