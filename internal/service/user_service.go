package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"skill-marketplace/internal/booking"
	"skill-marketplace/internal/model"
	"skill-marketplace/internal/repository"
)

var (
	allowedThemes    = map[string]bool{"system": true, "light": true, "dark": true}
	allowedLanguages = map[string]bool{"en": true, "id": true}
	avatarTypes      = map[string]string{"image/jpeg": ".jpg", "image/png": ".png", "image/webp": ".webp"}
)

type UpdateUserDTO struct {
	Name      *string
	AvatarURL *string
}

type UpdateSettingsDTO struct {
	Theme              *string
	Language           *string
	EmailNotifications *bool
	PushNotifications  *bool
}

type AvatarUpload struct {
	UploadURL string `json:"upload_url"`
	ObjectKey string `json:"object_key"`
}

// UploadPresigner issues presigned upload URLs for the object store.
type UploadPresigner interface {
	PresignUpload(ctx context.Context, objectKey, contentType string) (string, error)
}

type UserService interface {
	GetUserProfile(ctx context.Context, userID uuid.UUID) (*model.User, error)
	UpdateUserProfile(ctx context.Context, userID uuid.UUID, dto UpdateUserDTO) (*model.User, error)
	CreateAvatarUpload(ctx context.Context, userID uuid.UUID, contentType string) (*AvatarUpload, error)
	RegisterDeviceToken(ctx context.Context, userID uuid.UUID, token string) error
	GetSettings(ctx context.Context, userID uuid.UUID) (*model.UserSettings, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, dto UpdateSettingsDTO) (*model.UserSettings, error)
}

type userService struct {
	userRepo     repository.UserRepository
	settingsRepo repository.SettingsRepository
	presigner    UploadPresigner
}

func NewUserService(userRepo repository.UserRepository, settingsRepo repository.SettingsRepository, presigner UploadPresigner) UserService {
	return &userService{userRepo: userRepo, settingsRepo: settingsRepo, presigner: presigner}
}

func (s *userService) GetUserProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s", booking.ErrNotFound, userID)
		}

		return nil, err
	}

	return user, nil
}

func (s *userService) UpdateUserProfile(ctx context.Context, userID uuid.UUID, dto UpdateUserDTO) (*model.User, error) {
	if dto.Name != nil {
		trimmed := strings.TrimSpace(*dto.Name)
		if trimmed == "" || len(trimmed) > 100 {
			return nil, fmt.Errorf("%w: name must be 1..100 characters", booking.ErrValidation)
		}
		dto.Name = &trimmed
	}

	if err := s.userRepo.Update(ctx, userID, dto.Name, dto.AvatarURL); err != nil {
		return nil, err
	}

	return s.GetUserProfile(ctx, userID)
}

// CreateAvatarUpload presigns a PUT for a fresh object under the user's
// avatar prefix. The client stores the object key as avatar_url afterwards.
func (s *userService) CreateAvatarUpload(ctx context.Context, userID uuid.UUID, contentType string) (*AvatarUpload, error) {
	ext, ok := avatarTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported content type %q", booking.ErrValidation, contentType)
	}

	key := path.Join("avatars", userID.String(), uuid.NewString()+ext)
	uploadURL, err := s.presigner.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, err
	}

	return &AvatarUpload{UploadURL: uploadURL, ObjectKey: key}, nil
}

func (s *userService) RegisterDeviceToken(ctx context.Context, userID uuid.UUID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: device token is required", booking.ErrValidation)
	}
	return s.userRepo.RegisterDeviceToken(ctx, userID, token)
}

func (s *userService) GetSettings(ctx context.Context, userID uuid.UUID) (*model.UserSettings, error) {
	settings, err := s.settingsRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return model.DefaultSettings(userID), nil
	}
	return settings, nil
}

func (s *userService) UpdateSettings(ctx context.Context, userID uuid.UUID, dto UpdateSettingsDTO) (*model.UserSettings, error) {
	settings, err := s.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	if dto.Theme != nil {
		if !allowedThemes[*dto.Theme] {
			return nil, fmt.Errorf("%w: unknown theme %q", booking.ErrValidation, *dto.Theme)
		}
		settings.Theme = *dto.Theme
	}
	if dto.Language != nil {
		if !allowedLanguages[*dto.Language] {
			return nil, fmt.Errorf("%w: unsupported language %q", booking.ErrValidation, *dto.Language)
		}
		settings.Language = *dto.Language
	}
	if dto.EmailNotifications != nil {
		settings.EmailNotifications = *dto.EmailNotifications
	}
	if dto.PushNotifications != nil {
		settings.PushNotifications = *dto.PushNotifications
	}

	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}
