package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
	"github.com/raiahtisham/ecg-health-iq/internal/core/ports"
)

// AuthService implements registration, login, token refresh and password reset
// for both principal kinds.
type AuthService struct {
	repo      ports.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

func NewAuthService(repo ports.UserRepository, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL, log: log, now: time.Now}
}

func (s *AuthService) RegisterPatient(ctx context.Context, in ports.RegisterPatientInput) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	if strings.TrimSpace(in.Name) == "" || email == "" || in.Password == "" || in.Age <= 0 || in.Gender == "" {
		return nil, fmt.Errorf("register patient: %w: all required fields must be filled", domain.ErrInvalidInput)
	}

	user := &domain.User{
		Name:           strings.TrimSpace(in.Name),
		Email:          email,
		Role:           domain.RolePatient,
		Age:            in.Age,
		Gender:         in.Gender,
		MedicalHistory: trimAll(in.MedicalHistory),
	}
	return s.create(ctx, user, in.Password)
}

func (s *AuthService) RegisterDoctor(ctx context.Context, in ports.RegisterDoctorInput) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	if strings.TrimSpace(in.Name) == "" || email == "" || in.Password == "" || in.Age <= 0 ||
		in.Gender == "" || in.Specialization == "" || in.Contact == "" {
		return nil, fmt.Errorf("register doctor: %w: all fields are required", domain.ErrInvalidInput)
	}

	user := &domain.User{
		Name:           strings.TrimSpace(in.Name),
		Email:          email,
		Role:           domain.RoleDoctor,
		Age:            in.Age,
		Gender:         in.Gender,
		Specialization: in.Specialization,
		Contact:        in.Contact,
	}
	return s.create(ctx, user, in.Password)
}

func (s *AuthService) create(ctx context.Context, user *domain.User, password string) (*domain.User, error) {
	if _, err := s.repo.FindByEmail(ctx, user.Email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user.PasswordHash = string(hash)
	user.CreatedAt = now
	user.UpdatedAt = now

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("email", created.Email).Str("role", created.Role).Msg("user registered")
	return created, nil
}

// Login authenticates against the identity table of the given role. Doctors
// that are unknown get ErrNotDoctor rather than ErrUserNotFound, matching the
// doctor login contract.
func (s *AuthService) Login(ctx context.Context, email, password, role string) (*ports.LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("login: %w: email and password are required", domain.ErrInvalidInput)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound) && role == domain.RoleDoctor:
		return nil, domain.ErrNotDoctor
	case err != nil:
		return nil, err
	}

	if user.Role != role {
		if role == domain.RoleDoctor {
			return nil, domain.ErrNotDoctor
		}
		return nil, domain.ErrNotPatient
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(user)
}

// Refresh issues a new token for a user that still exists.
func (s *AuthService) Refresh(ctx context.Context, email string) (*ports.LoginResult, error) {
	user, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// ResetPassword replaces the password without checking the old one.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string) error {
	email = domain.NormalizeEmail(email)
	if email == "" || newPassword == "" {
		return fmt.Errorf("reset password: %w: email and new password are required", domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, email, string(hash)); err != nil {
		return err
	}
	s.log.Info().Str("email", email).Msg("password reset")
	return nil
}

func (s *AuthService) issue(user *domain.User) (*ports.LoginResult, error) {
	issued := s.now().UTC().Truncate(time.Second)
	expires := issued.Add(s.tokenTTL)

	claims := jwt.MapClaims{
		"email": user.Email,
		"role":  user.Role,
		"iat":   issued.Unix(),
		"exp":   expires.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &ports.LoginResult{User: user, Token: signed, IssuedAt: issued, ExpiresAt: expires}, nil
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
