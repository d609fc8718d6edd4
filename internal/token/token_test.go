package token

import (
	"strings"
	"testing"
	"time"

	"taskboard/internal/apperr"
)

func newTestService() *Service {
	return NewService("test-secret", 15*time.Minute, 720*time.Hour)
}

func TestAccessRoundtrip(t *testing.T) {
	s := newTestService()

	signed, err := s.SignAccess("user-1", "dev@example.com", "developer")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := s.ParseAccess(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "dev@example.com" || claims.Role != "developer" {
		t.Errorf("claims do not roundtrip: %+v", claims)
	}
	if claims.Type != TypeAccess {
		t.Errorf("expected access type, got %q", claims.Type)
	}
}

func TestRefreshRoundtrip(t *testing.T) {
	s := newTestService()

	signed, err := s.SignRefresh("user-1", "dev@example.com")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := s.ParseRefresh(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" || claims.Type != TypeRefresh {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Error("refresh token should carry a jti")
	}
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	s := newTestService()

	refresh, _ := s.SignRefresh("user-1", "dev@example.com")
	if _, err := s.ParseAccess(refresh); apperr.KindOf(err) != apperr.Authentication {
		t.Errorf("refresh token must not pass as access, got %v", err)
	}

	access, _ := s.SignAccess("user-1", "dev@example.com", "developer")
	if _, err := s.ParseRefresh(access); apperr.KindOf(err) != apperr.Authentication {
		t.Errorf("access token must not pass as refresh, got %v", err)
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	s := newTestService()

	signed, _ := s.SignAccess("user-1", "dev@example.com", "developer")
	parts := strings.Split(signed, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	if _, err := s.ParseAccess(tampered); err == nil {
		t.Error("tampered signature must be rejected")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	signed, _ := newTestService().SignAccess("user-1", "dev@example.com", "developer")

	other := NewService("another-secret", 15*time.Minute, 720*time.Hour)
	if _, err := other.ParseAccess(signed); apperr.KindOf(err) != apperr.Authentication {
		t.Errorf("token signed with a different secret must be rejected, got %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	s := NewService("test-secret", -time.Minute, 720*time.Hour)

	signed, err := s.SignAccess("user-1", "dev@example.com", "developer")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := s.ParseAccess(signed); err == nil {
		t.Error("expired token must be rejected")
	}
}
