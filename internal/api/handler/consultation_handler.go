package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
	"github.com/raiahtisham/ecg-health-iq/internal/core/ports"
)

const headerIdempotencyKey = "Idempotency-Key"

// ConsultationHandler serves patient consultation requests and doctor replies.
type ConsultationHandler struct {
	service ports.ConsultationService
}

func NewConsultationHandler(service ports.ConsultationService) *ConsultationHandler {
	return &ConsultationHandler{service: service}
}

// Create handles POST /consult_doctor.
//
// @Summary      Request a doctor consultation
// @Tags         consultations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string          false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      consultRequest  true   "Consultation details"
// @Success      200              {object}  consultResponse
// @Failure      400              {object}  map[string]string
// @Failure      403              {object}  map[string]string
// @Failure      409              {object}  map[string]string
// @Router       /consult_doctor [post]
func (h *ConsultationHandler) Create(c echo.Context) error {
	var req consultRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	_, email, err := requireSelf(c, req.Email)
	if err != nil {
		return err
	}

	res, err := h.service.Create(c.Request().Context(), ports.CreateConsultationInput{
		PatientName:    req.Name,
		Age:            req.Age,
		Phone:          req.Phone,
		PatientEmail:   email,
		DoctorEmail:    req.DoctorEmail,
		Message:        req.Message,
		Signal:         req.Signal,
		IdempotencyKey: c.Request().Header.Get(headerIdempotencyKey),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, consultResponse{
		Message:  "Consultation request sent successfully",
		ID:       res.ID,
		Replayed: res.Replayed,
	})
}

// List handles GET /get_consultations?doctor_email=&email=.
// Patients only ever see their own consultations.
//
// @Summary      List consultations
// @Tags         consultations
// @Produce      json
// @Security     BearerAuth
// @Param        doctor_email  query     string  false  "Filter by doctor"
// @Param        email         query     string  false  "Filter by patient"
// @Success      200           {object}  consultationsResponse
// @Failure      403           {object}  map[string]string
// @Router       /get_consultations [get]
func (h *ConsultationHandler) List(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	filter := ports.ConsultationFilter{
		DoctorEmail:  c.QueryParam("doctor_email"),
		PatientEmail: c.QueryParam("email"),
	}
	// Each principal only sees consultations addressed to or sent by them.
	if p.isDoctor() {
		if filter.DoctorEmail != "" && domain.NormalizeEmail(filter.DoctorEmail) != p.Email {
			return domain.ErrForbidden
		}
		filter.DoctorEmail = p.Email
	} else {
		if filter.PatientEmail != "" && domain.NormalizeEmail(filter.PatientEmail) != p.Email {
			return domain.ErrForbidden
		}
		filter.PatientEmail = p.Email
	}

	list, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, consultationsResponse{Consultations: list})
}

// Reply handles POST /reply_consultation. Later replies overwrite earlier ones.
//
// @Summary      Reply to a consultation
// @Tags         consultations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string        false  "Idempotency key; a replayed key is a no-op"
// @Param        body             body      replyRequest  true   "Patient email and reply"
// @Success      200              {object}  replyResponse
// @Failure      400              {object}  map[string]string
// @Failure      404              {object}  map[string]string
// @Router       /reply_consultation [post]
func (h *ConsultationHandler) Reply(c echo.Context) error {
	var req replyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	res, err := h.service.Reply(c.Request().Context(), ports.ReplyInput{
		PatientEmail:   req.Email,
		DoctorEmail:    p.Email,
		Reply:          req.Reply,
		IdempotencyKey: c.Request().Header.Get(headerIdempotencyKey),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, replyResponse{
		Message:   "Reply sent successfully",
		Overwrote: res.Overwrote,
		Replayed:  res.Replayed,
	})
}

// Delete handles POST /delete_consultation.
//
// @Summary      Delete a consultation
// @Tags         consultations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      recordIDRequest  true  "Consultation id"
// @Success      200   {object}  messageResponse
// @Failure      404   {object}  map[string]string
// @Router       /delete_consultation [post]
func (h *ConsultationHandler) Delete(c echo.Context) error {
	var req recordIDRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), req.RecordID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Consultation deleted successfully"})
}
