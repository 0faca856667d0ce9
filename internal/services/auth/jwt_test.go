package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/enums"
)

func newTestManager(t *testing.T) *JWTManager {
	t.Helper()

	manager, err := NewJWTManager(Config{Secret: "test-secret", TTL: time.Hour})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager
}

func TestMintAndVerify(t *testing.T) {
	manager := newTestManager(t)

	token, err := manager.Mint(7, enums.RoleRecipient)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	identity, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity.UserID != 7 || identity.Role != enums.RoleRecipient {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	manager := newTestManager(t)

	token, err := manager.Mint(7, enums.RoleRecipient)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	other, err := NewJWTManager(Config{Secret: "different-secret"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}

	if _, err := manager.Verify(token + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	manager := newTestManager(t)
	manager.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := manager.Mint(7, enums.RoleCurator)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	manager.now = time.Now
	if _, err := manager.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestIdentityContextRoundTrip(t *testing.T) {
	identity := Identity{UserID: 7, Role: enums.RoleCurator}
	ctx := WithIdentity(context.Background(), identity)

	got, ok := IdentityFromContext(ctx)
	if !ok || got != identity {
		t.Fatalf("unexpected identity: %+v ok=%v", got, ok)
	}

	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Fatalf("empty context must not carry an identity")
	}
}
