package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"taskboard/internal/apperr"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role,omitempty"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// Service signs and verifies the access/refresh token pair.
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(secret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *Service) sign(claims *Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Service) SignAccess(userID, email, role string) (string, error) {
	now := time.Now()
	return s.sign(&Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Type:   TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	})
}

func (s *Service) SignRefresh(userID, email string) (string, error) {
	now := time.Now()
	return s.sign(&Claims{
		UserID: userID,
		Email:  email,
		Type:   TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	})
}

// Pair issues a fresh access/refresh pair for the user.
func (s *Service) Pair(userID, email, role string) (access, refresh string, err error) {
	access, err = s.SignAccess(userID, email, role)
	if err != nil {
		return "", "", err
	}
	refresh, err = s.SignRefresh(userID, email)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *Service) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Wrap(apperr.Authentication, "Invalid token", err)
	}
	return claims, nil
}

func (s *Service) ParseAccess(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != TypeAccess {
		return nil, apperr.New(apperr.Authentication, "Invalid token type")
	}
	return claims, nil
}

func (s *Service) ParseRefresh(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, apperr.New(apperr.Authentication, "Invalid refresh token")
	}
	if claims.Type != TypeRefresh {
		return nil, apperr.New(apperr.Authentication, "Invalid token type")
	}
	return claims, nil
}
