package jwt

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"skill-marketplace/internal/model"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 30 * 24 * time.Hour

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var ErrWrongTokenType = errors.New("wrong token type")

func GenerateTokens(user *model.User) (accessToken string, refreshToken string, err error) {
	jwtSecret := []byte(os.Getenv("JWT_SECRET"))

	accessClaims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"name":  user.Name,
		"email": user.Email,
		"role":  string(user.Role),
		"typ":   tokenTypeAccess,
		"exp":   time.Now().Add(AccessTokenTTL).Unix(),
	}
	accessToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(jwtSecret)
	if err != nil {
		return "", "", err
	}

	refreshClaims := jwt.MapClaims{
		"sub": user.ID.String(),
		"typ": tokenTypeRefresh,
		"jti": uuid.NewString(),
		"exp": time.Now().Add(RefreshTokenTTL).Unix(),
	}
	refreshToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(jwtSecret)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func ValidateToken(tokenString string) (jwt.MapClaims, error) {
	jwtSecret := []byte(os.Getenv("JWT_SECRET"))

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrInvalidKey
}

// ValidateRefreshToken accepts only tokens minted as refresh tokens.
func ValidateRefreshToken(tokenString string) (uuid.UUID, error) {
	claims, err := ValidateToken(tokenString)
	if err != nil {
		return uuid.Nil, err
	}
	if typ, _ := claims["typ"].(string); typ != tokenTypeRefresh {
		return uuid.Nil, ErrWrongTokenType
	}
	sub, _ := claims["sub"].(string)
	return uuid.Parse(sub)
}

// ActorFromClaims builds the caller identity carried by an access token.
func ActorFromClaims(claims jwt.MapClaims) (model.Actor, error) {
	if typ, _ := claims["typ"].(string); typ != tokenTypeAccess {
		return model.Actor{}, ErrWrongTokenType
	}

	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return model.Actor{}, err
	}

	rawRole, _ := claims["role"].(string)
	role, err := model.ParseRole(rawRole)
	if err != nil {
		return model.Actor{}, err
	}

	return model.Actor{ID: id, Role: role}, nil
}
