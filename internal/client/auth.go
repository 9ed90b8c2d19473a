package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Principal is a patient or a doctor as returned by the backend.
type Principal struct {
	Name            string         `json:"name"`
	Email           string         `json:"email"`
	Role            string         `json:"role"`
	Age             int            `json:"age,omitempty"`
	Gender          string         `json:"gender,omitempty"`
	MedicalHistory  []string       `json:"medical_history,omitempty"`
	Specialization  string         `json:"specialization,omitempty"`
	Contact         string         `json:"contact,omitempty"`
	ProfileImage    string         `json:"profile_image,omitempty"`
	LatestECGResult string         `json:"latest_ecg_result,omitempty"`
	ECGResults      []HistoryEntry `json:"ecg_results,omitempty"`
}

// RegisterInput carries a signup. Doctors additionally need Specialization
// and Contact.
type RegisterInput struct {
	Role           string `validate:"oneof=patient doctor"`
	Name           string `validate:"required"`
	Email          string `validate:"required,email"`
	Password       string `validate:"required"`
	Age            int    `validate:"gt=0"`
	Gender         string `validate:"required"`
	MedicalHistory []string
	Specialization string `validate:"required_if=Role doctor"`
	Contact        string `validate:"required_if=Role doctor"`
}

type LoginResult struct {
	Message   string
	Principal Principal
	Session   *Session
}

// AuthClient registers, logs in and refreshes patients and doctors.
type AuthClient struct {
	t        *transport
	validate *validator.Validate
	log      zerolog.Logger
}

func newAuthClient(t *transport, v *validator.Validate, log zerolog.Logger) *AuthClient {
	return &AuthClient{t: t, validate: v, log: log}
}

type registerPatientBody struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Password       string   `json:"password"`
	Age            int      `json:"age"`
	Gender         string   `json:"gender"`
	MedicalHistory []string `json:"medical_history"`
}

type registerDoctorBody struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Age            int    `json:"age"`
	Gender         string `json:"gender"`
	Specialization string `json:"specialization"`
	Contact        string `json:"contact"`
}

type registerReply struct {
	Message string     `json:"message"`
	User    *Principal `json:"user"`
}

// Register creates an account. It never logs in or writes a session.
func (a *AuthClient) Register(ctx context.Context, in RegisterInput) (*Principal, error) {
	in.Email = normalizeEmail(in.Email)
	if err := a.validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}

	principal := &Principal{
		Name:           in.Name,
		Email:          in.Email,
		Role:           in.Role,
		Age:            in.Age,
		Gender:         in.Gender,
		MedicalHistory: in.MedicalHistory,
		Specialization: in.Specialization,
		Contact:        in.Contact,
	}

	req := request{method: http.MethodPost, path: "/register", body: registerPatientBody{
		Name: in.Name, Email: in.Email, Password: in.Password, Age: in.Age, Gender: in.Gender,
		MedicalHistory: in.MedicalHistory,
	}}
	if in.Role == RoleDoctor {
		req = request{method: http.MethodPost, path: "/doctor_register", body: registerDoctorBody{
			Name: in.Name, Email: in.Email, Password: in.Password, Age: in.Age, Gender: in.Gender,
			Specialization: in.Specialization, Contact: in.Contact,
		}}
	}

	var reply registerReply
	if err := a.t.do(ctx, req, &reply); err != nil {
		return nil, registrationError(err)
	}
	if reply.User != nil && reply.User.Email != "" {
		principal.Name = reply.User.Name
		principal.Email = reply.User.Email
	}

	a.log.Info().Str("email", principal.Email).Str("role", principal.Role).Msg("registered")
	return principal, nil
}

// registrationError keeps validation, conflict, network and server failures
// and reports anything else as a ServerError.
func registrationError(err error) error {
	var (
		ve *ValidationError
		ce *ConflictError
		ne *NetworkError
		se *ServerError
	)
	if errors.As(err, &ve) || errors.As(err, &ce) || errors.As(err, &ne) || errors.As(err, &se) {
		return err
	}
	return &ServerError{Message: err.Error()}
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReply struct {
	Message        string    `json:"message"`
	User           string    `json:"user"`
	Doctor         string    `json:"doctor"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Specialization string    `json:"specialization"`
	Token          string    `json:"token"`
	IssuedAt       time.Time `json:"issued_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Login authenticates at the role's endpoint and saves the session. The role
// picks the endpoint and is never sent.
func (a *AuthClient) Login(ctx context.Context, email, password, role string) (*LoginResult, error) {
	email = normalizeEmail(email)
	switch {
	case email == "":
		return nil, &ValidationError{Field: "Email", Message: "is required"}
	case password == "":
		return nil, &ValidationError{Field: "Password", Message: "is required"}
	case role != RolePatient && role != RoleDoctor:
		return nil, &ValidationError{Field: "Role", Message: "must be one of: patient doctor"}
	}

	path := "/login"
	if role == RoleDoctor {
		path = "/doctor_login"
	}

	var raw []byte
	err := a.t.do(ctx, request{method: http.MethodPost, path: path, body: loginBody{Email: email, Password: password}}, &raw)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return nil, &AuthError{Status: http.StatusNotFound, Message: nf.Message}
		}
		return nil, err
	}

	var reply loginReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, &ServerError{Status: http.StatusOK, Message: "decode login response: " + err.Error()}
	}
	if reply.Token == "" {
		return nil, &ServerError{Status: http.StatusOK, Message: "login response carries no token"}
	}

	name := reply.User
	if role == RoleDoctor {
		name = reply.Doctor
	}
	if reply.Email == "" {
		reply.Email = email
	}
	session := &Session{
		Email:     normalizeEmail(reply.Email),
		Name:      name,
		Role:      role,
		Token:     reply.Token,
		IssuedAt:  reply.IssuedAt,
		ExpiresAt: reply.ExpiresAt,
		Raw:       json.RawMessage(raw),
	}
	fillTokenTimes(session)

	if err := a.t.sessions.Save(session); err != nil {
		return nil, err
	}
	a.log.Info().Str("email", session.Email).Str("role", role).Time("expires_at", session.ExpiresAt).Msg("logged in")

	return &LoginResult{
		Message: reply.Message,
		Principal: Principal{
			Name:           name,
			Email:          session.Email,
			Role:           role,
			Specialization: reply.Specialization,
		},
		Session: session,
	}, nil
}

type refreshReply struct {
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Refresh exchanges the current unexpired token for a new one and overwrites
// the stored session. An expired session fails without a network call.
func (a *AuthClient) Refresh(ctx context.Context) (*Session, error) {
	current, err := a.t.session()
	if err != nil {
		return nil, err
	}

	var reply refreshReply
	if err := a.t.do(ctx, request{method: http.MethodPost, path: "/refresh-token", auth: true}, &reply); err != nil {
		return nil, err
	}
	if reply.Token == "" {
		return nil, &ServerError{Status: http.StatusOK, Message: "refresh response carries no token"}
	}

	next := *current
	next.Token = reply.Token
	next.IssuedAt = reply.IssuedAt
	next.ExpiresAt = reply.ExpiresAt
	fillTokenTimes(&next)

	if err := a.t.sessions.Save(&next); err != nil {
		return nil, err
	}
	return &next, nil
}

type resetBody struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

// ResetPassword replaces the password unconditionally.
func (a *AuthClient) ResetPassword(ctx context.Context, email, newPassword string) error {
	email = normalizeEmail(email)
	if err := a.validate.Var(email, "required,email"); err != nil {
		return &ValidationError{Field: "Email", Message: "must be a valid email"}
	}
	if strings.TrimSpace(newPassword) == "" {
		return &ValidationError{Field: "NewPassword", Message: "is required"}
	}

	err := a.t.do(ctx, request{method: http.MethodPost, path: "/reset-password", body: resetBody{Email: email, NewPassword: newPassword}}, nil)
	return notFoundAsServerError(err)
}

// Logout clears the stored session.
func (a *AuthClient) Logout() error {
	return a.t.sessions.Clear()
}

// Current returns the stored session, or nil when there is none or it has
// expired.
func (a *AuthClient) Current() (*Session, error) {
	s, err := a.t.session()
	if err != nil {
		var ae *AuthError
		if errors.As(err, &ae) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// fillTokenTimes reads iat/exp from the token when the response omitted them.
// The signature is verified by the backend, never here.
func fillTokenTimes(s *Session) {
	if !s.IssuedAt.IsZero() && !s.ExpiresAt.IsZero() {
		return
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return
	}
	if s.IssuedAt.IsZero() {
		if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
			s.IssuedAt = iat.Time
		}
	}
	if s.ExpiresAt.IsZero() {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			s.ExpiresAt = exp.Time
		}
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
