package identity

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "shop-1", Password: "correct horse", Role: RoleShopOwner})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Role != RoleShopOwner {
		t.Fatalf("unexpected role: %s", user.Role)
	}

	authed, err := svc.Authenticate(ctx, "shop-1", "correct horse")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if authed.ID != user.ID {
		t.Fatalf("authenticated wrong user")
	}

	if _, err := svc.Authenticate(ctx, "shop-1", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Username: "x", Password: "short", Role: RoleCustomer}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected weak password error, got %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Username: "", Password: "long enough", Role: RoleCustomer}); err == nil {
		t.Fatalf("expected error for empty username")
	}
	if _, err := svc.Register(ctx, RegisterInput{Username: "x", Password: "long enough", Role: Role("BOGUS")}); err == nil {
		t.Fatalf("expected error for invalid role")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Username: "dup", Password: "long enough", Role: RoleCustomer}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Username: "dup", Password: "long enough", Role: RoleCustomer}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected username taken, got %v", err)
	}
}
