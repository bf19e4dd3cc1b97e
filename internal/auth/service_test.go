package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/visagepay/visagepay/internal/config"
	"github.com/visagepay/visagepay/internal/identity"
)

func testConfig(ttl time.Duration) config.Config {
	return config.Config{JWTSecret: "test-secret", AccessTokenTTL: ttl}
}

func TestLoginAndParse(t *testing.T) {
	svc := NewService(testConfig(time.Hour))
	user := identity.User{ID: "user-1", Role: identity.RoleShopOwner}

	token, err := svc.Login(user)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token.ExpiresIn != 3600 {
		t.Fatalf("expected 3600s expiry, got %d", token.ExpiresIn)
	}

	claims, err := svc.Parse(token.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != user.ID {
		t.Fatalf("wrong subject: %s", claims.Subject)
	}
	if claims.Role != identity.RoleShopOwner {
		t.Fatalf("wrong role: %s", claims.Role)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := NewService(testConfig(time.Hour)).Login(identity.User{ID: "user-1", Role: identity.RoleCustomer})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	other := NewService(config.Config{JWTSecret: "different", AccessTokenTTL: time.Hour})
	if _, err := other.Parse(token.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	svc := NewService(testConfig(-time.Minute))
	token, err := svc.Login(identity.User{ID: "user-1", Role: identity.RoleCustomer})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := svc.Parse(token.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := NewService(testConfig(time.Hour)).Parse("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}
