package handler

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
	"github.com/raiahtisham/ecg-health-iq/internal/core/ports"
)

const maxUploadBytes = 10 << 20

// ECGHandler serves ECG record ingest, classification and rendering.
type ECGHandler struct {
	service ports.ECGService
}

func NewECGHandler(service ports.ECGService) *ECGHandler {
	return &ECGHandler{service: service}
}

// List handles GET /get_ecg_data?email=.
//
// @Summary      List a patient's ECG records
// @Tags         ecg
// @Produce      json
// @Security     BearerAuth
// @Param        email  query     string  false  "Patient email (required for doctors)"
// @Success      200    {object}  recordsResponse
// @Failure      403    {object}  map[string]string
// @Router       /get_ecg_data [get]
func (h *ECGHandler) List(c echo.Context) error {
	email, err := requireSelfOrDoctor(c, c.QueryParam("email"))
	if err != nil {
		return err
	}

	records, err := h.service.List(c.Request().Context(), email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, recordsResponse{Records: records})
}

// Classify handles POST /classify.
//
// @Summary      Classify an ECG signal
// @Tags         ecg
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      classifyRequest  true  "Signal and optional record id"
// @Success      200   {object}  classificationResponse
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /classify [post]
func (h *ECGHandler) Classify(c echo.Context) error {
	var req classifyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	_, email, err := requireSelf(c, req.Email)
	if err != nil {
		return err
	}

	result, err := h.service.Classify(c.Request().Context(), email, req.Signal, req.RecordID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, classificationResponse{
		Classification: result.Label,
		Confidence:     result.Confidence,
	})
}

// Delete handles POST /delete_ecg.
//
// @Summary      Delete an ECG record
// @Tags         ecg
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      recordIDRequest  true  "Record id"
// @Success      200   {object}  messageResponse
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /delete_ecg [post]
func (h *ECGHandler) Delete(c echo.Context) error {
	var req recordIDRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), p.Email, req.RecordID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Deleted 1 ECG record(s)."})
}

// Simulate handles POST /simulate_ecg.
//
// @Summary      Submit a manually entered signal
// @Tags         ecg
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      signalRequest  true  "Signal"
// @Success      201   {object}  storedResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /simulate_ecg [post]
func (h *ECGHandler) Simulate(c echo.Context) error {
	var req signalRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	_, email, err := requireSelf(c, req.Email)
	if err != nil {
		return err
	}

	id, err := h.service.Simulate(c.Request().Context(), email, req.Signal)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, storedResponse{Message: "ECG data stored successfully", RecordID: id})
}

// Store handles POST /store_ecg_signal.
//
// @Summary      Persist a device-acquired signal
// @Tags         ecg
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      storeSignalRequest  true  "Signal and optional heart rate"
// @Success      201   {object}  storedResponse
// @Failure      400   {object}  map[string]string
// @Router       /store_ecg_signal [post]
func (h *ECGHandler) Store(c echo.Context) error {
	var req storeSignalRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	_, email, err := requireSelf(c, req.Email)
	if err != nil {
		return err
	}

	id, err := h.service.Store(c.Request().Context(), ports.StoreSignalInput{
		Email:     email,
		Signal:    req.Signal,
		Source:    domain.SourceDevice,
		HeartRate: req.HeartRate,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, storedResponse{Message: "ECG signal stored successfully", RecordID: id})
}

// UploadCSV handles POST /upload_csv (multipart: file, email).
//
// @Summary      Upload a CSV file for classification
// @Tags         ecg
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file   formData  file    true   "CSV file"
// @Param        email  formData  string  false  "Patient email"
// @Success      200    {object}  classificationResponse
// @Failure      400    {object}  map[string]string
// @Failure      503    {object}  map[string]string
// @Router       /upload_csv [post]
func (h *ECGHandler) UploadCSV(c echo.Context) error {
	_, email, err := requireSelf(c, c.FormValue("email"))
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}
	if !strings.EqualFold(path.Ext(fh.Filename), ".csv") {
		return echo.NewHTTPError(http.StatusBadRequest, "Only CSV files are allowed")
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := readLimited(f)
	if err != nil {
		return err
	}

	return h.classifyUpload(c, ports.UploadInput{
		Email:    email,
		Filename: fh.Filename,
		Data:     data,
		Source:   domain.SourceCSV,
	})
}

// UploadCSVText handles POST /upload_csv_text.
//
// @Summary      Upload CSV text for classification
// @Tags         ecg
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      csvTextRequest  true  "CSV text"
// @Success      200   {object}  classificationResponse
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /upload_csv_text [post]
func (h *ECGHandler) UploadCSVText(c echo.Context) error {
	var req csvTextRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	_, email, err := requireSelf(c, req.Email)
	if err != nil {
		return err
	}
	if len(req.CSVText) > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "upload too large")
	}

	return h.classifyUpload(c, ports.UploadInput{
		Email:    email,
		Filename: "ecg.csv",
		Data:     []byte(req.CSVText),
		Source:   domain.SourceCSVText,
	})
}

func (h *ECGHandler) classifyUpload(c echo.Context, in ports.UploadInput) error {
	res, err := h.service.ClassifyUpload(c.Request().Context(), in)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, classificationResponse{
		Classification: res.Label,
		Confidence:     res.Confidence,
		Message:        "CSV processed successfully",
		RecordID:       res.RecordID,
	})
}

// GenerateImage handles POST /generate_ecg_image and returns PNG bytes.
//
// @Summary      Render a signal as PNG
// @Tags         ecg
// @Accept       json
// @Produce      png
// @Security     BearerAuth
// @Param        body  body  imageRequest  true  "Signal"
// @Success      200
// @Failure      400   {object}  map[string]string
// @Router       /generate_ecg_image [post]
func (h *ECGHandler) GenerateImage(c echo.Context) error {
	var req imageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	img, err := h.service.Render(c.Request().Context(), req.Signal)
	if err != nil {
		return err
	}

	return c.Blob(http.StatusOK, "image/png", img)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > maxUploadBytes {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "upload too large")
	}
	return data, nil
}
