package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/raiahtisham/ecg-health-iq/internal/core/ports"
)

// UserHandler serves profile and doctor directory endpoints.
type UserHandler struct {
	directory ports.DirectoryService
}

func NewUserHandler(directory ports.DirectoryService) *UserHandler {
	return &UserHandler{directory: directory}
}

// Profile handles GET /user/:email.
//
// @Summary      Fetch a user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "User email"
// @Success      200    {object}  domain.User
// @Failure      403    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Router       /user/{email} [get]
func (h *UserHandler) Profile(c echo.Context) error {
	email, err := requireSelfOrDoctor(c, c.Param("email"))
	if err != nil {
		return err
	}

	user, err := h.directory.Profile(c.Request().Context(), email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// UploadProfileImage handles POST /upload_profile_image.
//
// @Summary      Upload a profile image
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      profileImageRequest  true  "Base64 image"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /upload_profile_image [post]
func (h *UserHandler) UploadProfileImage(c echo.Context) error {
	var req profileImageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	_, email, err := requireSelf(c, req.Email)
	if err != nil {
		return err
	}

	if err := h.directory.SetProfileImage(c.Request().Context(), email, req.ImageBase64); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Profile image uploaded successfully"})
}

// History handles GET /user/:email/ecg-history.
//
// @Summary      Classification history
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "User email"
// @Success      200    {object}  historyResponse
// @Failure      403    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Router       /user/{email}/ecg-history [get]
func (h *UserHandler) History(c echo.Context) error {
	email, err := requireSelfOrDoctor(c, c.Param("email"))
	if err != nil {
		return err
	}

	history, err := h.directory.History(c.Request().Context(), email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, historyResponse{History: history})
}

// Doctors handles GET /get_doctors.
//
// @Summary      List doctors
// @Tags         users
// @Produce      json
// @Success      200  {object}  doctorsResponse
// @Router       /get_doctors [get]
func (h *UserHandler) Doctors(c echo.Context) error {
	doctors, err := h.directory.Doctors(c.Request().Context())
	if err != nil {
		return err
	}

	resp := doctorsResponse{Doctors: make([]doctorEntry, 0, len(doctors))}
	for _, d := range doctors {
		resp.Doctors = append(resp.Doctors, doctorEntry{
			Name:           d.Name,
			Email:          d.Email,
			Specialization: d.Specialization,
			Contact:        d.Contact,
		})
	}
	return c.JSON(http.StatusOK, resp)
}
