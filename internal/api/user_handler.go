package api

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"skill-marketplace/internal/model"
	"skill-marketplace/internal/service"
)

type UserHandler struct {
	userService service.UserService
	validate    *validator.Validate
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		validate:    validator.New(),
	}
}

type UserProfileResponse struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	AvatarURL *string    `json:"avatar_url,omitempty"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type UpdateProfileRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=100"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,max=512"`
}

type AvatarUploadRequest struct {
	ContentType string `json:"content_type" validate:"required"`
}

type DeviceTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type UpdateSettingsRequest struct {
	Theme              *string `json:"theme"`
	Language           *string `json:"language"`
	EmailNotifications *bool   `json:"email_notifications"`
	PushNotifications  *bool   `json:"push_notifications"`
}

func profileResponse(user *model.User) UserProfileResponse {
	return UserProfileResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func (h *UserHandler) GetMyProfile(c *fiber.Ctx) error {
	actor, err := ActorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	user, err := h.userService.GetUserProfile(c.UserContext(), actor.ID)
	if err != nil {
		return respondError(c, err, "Could not fetch profile")
	}

	return c.Status(fiber.StatusOK).JSON(profileResponse(user))
}

func (h *UserHandler) UpdateMyProfile(c *fiber.Ctx) error {
	actor, err := ActorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	user, err := h.userService.UpdateUserProfile(c.UserContext(), actor.ID, service.UpdateUserDTO{
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return respondError(c, err, "Could not update profile")
	}

	return c.Status(fiber.StatusOK).JSON(profileResponse(user))
}

func (h *UserHandler) CreateAvatarUploadURL(c *fiber.Ctx) error {
	actor, err := ActorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	var req AvatarUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	upload, err := h.userService.CreateAvatarUpload(c.UserContext(), actor.ID, req.ContentType)
	if err != nil {
		return respondError(c, err, "Could not create upload URL")
	}

	return c.Status(fiber.StatusOK).JSON(upload)
}

func (h *UserHandler) RegisterDeviceToken(c *fiber.Ctx) error {
	actor, err := ActorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	var req DeviceTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	if err := h.userService.RegisterDeviceToken(c.UserContext(), actor.ID, req.Token); err != nil {
		return respondError(c, err, "Could not register device token")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Device token registered"})
}

func (h *UserHandler) GetSettings(c *fiber.Ctx) error {
	actor, err := ActorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	settings, err := h.userService.GetSettings(c.UserContext(), actor.ID)
	if err != nil {
		return respondError(c, err, "Could not fetch settings")
	}

	return c.Status(fiber.StatusOK).JSON(settings)
}

func (h *UserHandler) UpdateSettings(c *fiber.Ctx) error {
	actor, err := ActorFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	var req UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	settings, err := h.userService.UpdateSettings(c.UserContext(), actor.ID, service.UpdateSettingsDTO{
		Theme:              req.Theme,
		Language:           req.Language,
		EmailNotifications: req.EmailNotifications,
		PushNotifications:  req.PushNotifications,
	})
	if err != nil {
		return respondError(c, err, "Could not update settings")
	}

	return c.Status(fiber.StatusOK).JSON(settings)
}
