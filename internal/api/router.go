package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/raiahtisham/ecg-health-iq/internal/api/handler"
	"github.com/raiahtisham/ecg-health-iq/internal/api/middleware"
	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
	"github.com/raiahtisham/ecg-health-iq/internal/core/ports"
	"github.com/raiahtisham/ecg-health-iq/internal/infrastructure/http/handlers"

	_ "github.com/raiahtisham/ecg-health-iq/docs"
)

// Dependencies groups everything the router needs to build its handlers.
type Dependencies struct {
	Auth          ports.AuthService
	Directory     ports.DirectoryService
	ECG           ports.ECGService
	Consultations ports.ConsultationService
	JWTSecret     string
	RateLimiter   *middleware.RateLimiter
	HealthChecks  []handlers.Check
	Log           zerolog.Logger
	// Registry receives the HTTP metrics. Defaults to the global registry.
	Registry      *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(metricsConfig(deps.Registry)))
	if deps.RateLimiter != nil {
		e.Use(deps.RateLimiter.Middleware())
	}

	authHandler := handler.NewAuthHandler(deps.Auth)
	userHandler := handler.NewUserHandler(deps.Directory)
	ecgHandler := handler.NewECGHandler(deps.ECG)
	consultHandler := handler.NewConsultationHandler(deps.Consultations)

	// --- Public routes ---
	e.POST("/register", authHandler.RegisterPatient)
	e.POST("/login", authHandler.Login)
	e.POST("/doctor_register", authHandler.RegisterDoctor)
	e.POST("/doctor_login", authHandler.DoctorLogin)
	e.POST("/reset-password", authHandler.ResetPassword)
	e.GET("/get_doctors", userHandler.Doctors)

	// --- Any authenticated principal ---
	authed := middleware.Auth(deps.JWTSecret)
	patientOnly := middleware.RBAC(domain.RolePatient)
	doctorOnly := middleware.RBAC(domain.RoleDoctor)

	e.POST("/refresh-token", authHandler.Refresh, authed)
	e.GET("/user/:email", userHandler.Profile, authed)
	e.GET("/user/:email/ecg-history", userHandler.History, authed)
	e.POST("/upload_profile_image", userHandler.UploadProfileImage, authed)
	e.GET("/get_ecg_data", ecgHandler.List, authed)
	e.POST("/generate_ecg_image", ecgHandler.GenerateImage, authed)
	e.GET("/get_consultations", consultHandler.List, authed)
	e.POST("/delete_consultation", consultHandler.Delete, authed)

	// --- Patients ---
	e.POST("/classify", ecgHandler.Classify, authed, patientOnly)
	e.POST("/delete_ecg", ecgHandler.Delete, authed, patientOnly)
	e.POST("/simulate_ecg", ecgHandler.Simulate, authed, patientOnly)
	e.POST("/upload_csv", ecgHandler.UploadCSV, authed, patientOnly)
	e.POST("/upload_csv_text", ecgHandler.UploadCSVText, authed, patientOnly)
	e.POST("/store_ecg_signal", ecgHandler.Store, authed, patientOnly)
	e.POST("/consult_doctor", consultHandler.Create, authed, patientOnly)

	// --- Doctors ---
	e.POST("/reply_consultation", consultHandler.Reply, authed, doctorOnly)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.HealthChecks...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", metricsHandler(deps.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

func metricsConfig(reg *prometheus.Registry) echoprometheus.MiddlewareConfig {
	cfg := echoprometheus.MiddlewareConfig{Subsystem: "ecg_http"}
	if reg != nil {
		cfg.Registerer = reg
	}
	return cfg
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}
