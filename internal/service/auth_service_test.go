package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/padmajamazumder/parkit/internal/domain"
	"github.com/padmajamazumder/parkit/internal/repository/inmem"
)

func newTestAuthService(store *inmem.Store) *AuthService {
	return NewAuthService(store.Users(), "test-secret", time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	store := inmem.NewStore()
	svc := newTestAuthService(store)
	ctx := context.Background()

	user, err := svc.Register(ctx, domain.RegisterUserDTO{
		Email:    "user@example.com",
		Password: "secret123",
		Fullname: "Test User",
		Address:  "1 Main St",
		Pincode:  "700001",
	})
	if err != nil {
		t.Fatalf("registering: %v", err)
	}
	if user.Password != "" {
		t.Fatalf("password leaked in register response")
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected role user, got %s", user.Role)
	}

	resp, err := svc.Login(ctx, domain.LoginUserDTO{Email: "user@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("logging in: %v", err)
	}
	if resp.UserID != user.ID || resp.Role != domain.RoleUser {
		t.Fatalf("unexpected login response: %+v", resp)
	}

	claims, err := svc.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("validating token: %v", err)
	}
	if claims["sub"] != strconv.Itoa(user.ID) {
		t.Fatalf("unexpected subject claim: %v", claims["sub"])
	}
	if claims["email"] != "user@example.com" || claims["role"] != domain.RoleUser {
		t.Fatalf("unexpected claims: %v", claims)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := inmem.NewStore()
	svc := newTestAuthService(store)
	ctx := context.Background()

	dto := domain.RegisterUserDTO{
		Email: "user@example.com", Password: "secret123", Fullname: "Test User",
		Address: "1 Main St", Pincode: "700001",
	}
	if _, err := svc.Register(ctx, dto); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, dto); !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	store := inmem.NewStore()
	svc := newTestAuthService(store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, domain.RegisterUserDTO{
		Email: "user@example.com", Password: "secret123", Fullname: "Test User",
		Address: "1 Main St", Pincode: "700001",
	}); err != nil {
		t.Fatalf("registering: %v", err)
	}

	if _, err := svc.Login(ctx, domain.LoginUserDTO{Email: "user@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, domain.LoginUserDTO{Email: "nobody@example.com", Password: "secret123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	store := inmem.NewStore()
	svc := newTestAuthService(store)

	if _, err := svc.ValidateToken("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestEnsureAdminIdempotent(t *testing.T) {
	store := inmem.NewStore()
	svc := newTestAuthService(store)
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "admin@example.com", "admin-pass", "Admin"); err != nil {
		t.Fatalf("seeding admin: %v", err)
	}
	if err := svc.EnsureAdmin(ctx, "admin@example.com", "admin-pass", "Admin"); err != nil {
		t.Fatalf("reseeding admin: %v", err)
	}

	admin, err := store.FindByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("finding admin: %v", err)
	}
	if admin.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", admin.Role)
	}

	// The bootstrap admin never shows up in the user listing.
	users, err := svc.ListUsers(ctx)
	if err != nil {
		t.Fatalf("listing users: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected no non-admin users, got %d", len(users))
	}
}
