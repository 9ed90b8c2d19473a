package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
	"github.com/raiahtisham/ecg-health-iq/internal/core/ports"
)

const profileImagePrefix = "profiles/"

// DirectoryService resolves profiles, profile images and the doctor directory.
// When blobs is nil profile images are kept inline on the user document.
type DirectoryService struct {
	users ports.UserRepository
	blobs ports.BlobStore
	log   zerolog.Logger
}

func NewDirectoryService(users ports.UserRepository, blobs ports.BlobStore, log zerolog.Logger) *DirectoryService {
	return &DirectoryService{users: users, blobs: blobs, log: log}
}

func (s *DirectoryService) Profile(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	if user.ProfileImageRef != "" && s.blobs != nil {
		data, err := s.blobs.Get(ctx, user.ProfileImageRef)
		if err != nil {
			s.log.Warn().Err(err).Str("email", user.Email).Msg("profile image unavailable")
		} else {
			user.ProfileImage = base64.StdEncoding.EncodeToString(data)
		}
	}
	return user, nil
}

func (s *DirectoryService) SetProfileImage(ctx context.Context, email, imageBase64 string) error {
	email = domain.NormalizeEmail(email)
	imageBase64 = stripDataURL(imageBase64)
	if email == "" || imageBase64 == "" {
		return fmt.Errorf("profile image: %w: missing email or image data", domain.ErrInvalidInput)
	}

	data, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return fmt.Errorf("profile image: %w: image is not valid base64", domain.ErrInvalidInput)
	}

	if s.blobs == nil {
		return s.users.SetProfileImage(ctx, email, imageBase64, "")
	}

	// Make sure the user exists before writing an orphan object.
	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		return err
	}

	key := profileImagePrefix + uuid.NewString()
	if err := s.blobs.Put(ctx, key, data, http.DetectContentType(data)); err != nil {
		return fmt.Errorf("store profile image: %w", err)
	}
	return s.users.SetProfileImage(ctx, email, "", key)
}

func (s *DirectoryService) Doctors(ctx context.Context) ([]*domain.User, error) {
	return s.users.ListByRole(ctx, domain.RoleDoctor)
}

func (s *DirectoryService) History(ctx context.Context, email string) ([]domain.ClassificationResult, error) {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user.ECGResults == nil {
		return []domain.ClassificationResult{}, nil
	}
	return user.ECGResults, nil
}

// stripDataURL drops a "data:image/png;base64," prefix produced by image pickers.
func stripDataURL(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			return s[i+1:]
		}
	}
	return s
}
