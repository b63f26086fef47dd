package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/parkcare/care-api/config"
	"github.com/parkcare/care-api/internal/model"
)

// JWTService issues and validates access tokens carrying the principal.
type JWTService interface {
	GenerateAccessToken(user *model.UserAccount) (string, error)
	ValidateToken(token string) (*model.Principal, error)
}

type jwtService struct {
	secret []byte
	expiry time.Duration
}

func NewJWTService(cfg config.JWTConfig) JWTService {
	expiry := time.Duration(cfg.ExpiryHours) * time.Hour
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &jwtService{
		secret: []byte(cfg.Secret),
		expiry: expiry,
	}
}

type claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *jwtService) GenerateAccessToken(user *model.UserAccount) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	})
	return token.SignedString(s.secret)
}

func (s *jwtService) ValidateToken(tokenString string) (*model.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if !c.Role.Valid() {
		return nil, fmt.Errorf("unknown role in token: %s", c.Role)
	}

	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject in token: %w", err)
	}

	return &model.Principal{ID: id, Role: c.Role}, nil
}
