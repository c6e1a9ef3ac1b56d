package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/username/walletfolio/backend/src/config"
)

// AuthService validates bearer tokens issued by the external auth layer.
// Token issuance, sessions and password handling live outside this service;
// the ledger only needs to recover the pre-validated owner ID.
type AuthService struct {
	JWTSecret string
}

func NewAuthService(secret string) *AuthService {
	return &AuthService{
		JWTSecret: secret,
	}
}

// GenerateToken signs a short-lived HS256 token for the given user ID.
// Kept for local development and tests; production tokens come from the
// auth service in front of this API.
func (a *AuthService) GenerateToken(userID string) (string, error) {
	expiry := 60 * time.Minute
	if config.Cfg != nil {
		expiry = config.Cfg.AccessTokenExpiry
	}
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(expiry).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.JWTSecret))
}

// ValidateToken parses and verifies tokenString and returns the subject claim.
func (a *AuthService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(a.JWTSecret), nil
	})
	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		sub, ok := claims["sub"].(string)
		if !ok || sub == "" {
			return "", errors.New("token missing subject claim")
		}
		return sub, nil
	}
	return "", errors.New("invalid token")
}
