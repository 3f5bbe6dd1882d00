package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"skill-marketplace/internal/booking"
	"skill-marketplace/internal/jwt"
	"skill-marketplace/internal/model"
	"skill-marketplace/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
)

const minPasswordLength = 8

type AuthService interface {
	RegisterUser(ctx context.Context, email, password, name string, role model.Role) (*model.User, error)
	LoginUser(ctx context.Context, email, password string) (accessToken string, refreshToken string, err error)
	RefreshToken(ctx context.Context, refreshTokenString string) (newAccessToken string, err error)
	LogoutUser(ctx context.Context, refreshTokenString string) error
}

type authService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
}

func NewAuthService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository) AuthService {
	return &authService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
	}
}

// RegisterUser creates a learner or instructor account. Admins are never
// self-registered.
func (s *authService) RegisterUser(ctx context.Context, email, password, name string, role model.Role) (*model.User, error) {
	if role == "" {
		role = model.RoleLearner
	}
	if role != model.RoleLearner && role != model.RoleInstructor {
		return nil, fmt.Errorf("%w: role must be learner or instructor", booking.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", booking.ErrValidation, minPasswordLength)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Name:         name,
		Role:         role,
	}

	newID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	user.ID = newID

	return user, nil
}

func (s *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := jwt.GenerateTokens(user)
	if err != nil {
		return "", "", err
	}

	refreshTokenModel := &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: time.Now().Add(jwt.RefreshTokenTTL),
	}

	if err := s.tokenRepo.Create(ctx, refreshTokenModel); err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshTokenString string) (string, error) {
	userID, err := jwt.ValidateRefreshToken(refreshTokenString)
	if err != nil {
		return "", ErrTokenInvalid
	}

	if _, err := s.tokenRepo.FindValidByHash(ctx, hashToken(refreshTokenString)); err != nil {
		return "", ErrTokenInvalid
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", ErrTokenInvalid
	}

	newAccessToken, _, err := jwt.GenerateTokens(user)

	if err != nil {
		return "", err
	}

	return newAccessToken, nil
}

func (s *authService) LogoutUser(ctx context.Context, refreshTokenString string) error {
	return s.tokenRepo.Delete(ctx, hashToken(refreshTokenString))
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
