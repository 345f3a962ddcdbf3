package jwtauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"eps-citas/internal/navigation"
	"eps-citas/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueVerify_RoundTrip(t *testing.T) {
	s, err := New("secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	tok, err := s.Issue(auth.Claims{UserID: 7, Email: "doc@test.com", Role: navigation.RoleMedico})
	if err != nil {
		t.Fatal(err)
	}

	c, err := s.Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if c.UserID != 7 || c.Role != navigation.RoleMedico || c.Email != "doc@test.com" {
		t.Fatalf("unexpected claims %+v", c)
	}
}

func TestVerify_Rejects(t *testing.T) {
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	s, _ := New("secret", time.Hour)
	s = s.WithClock(func() time.Time { return base })
	tok, _ := s.Issue(auth.Claims{UserID: 1, Role: navigation.RolePaciente})

	later := s.WithClock(func() time.Time { return base.Add(2 * time.Hour) })
	if _, err := later.Verify(context.Background(), tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}

	other, _ := New("other-secret", time.Hour)
	other = other.WithClock(func() time.Time { return base })
	if _, err := other.Verify(context.Background(), tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected bad signature rejected, got %v", err)
	}

	if _, err := s.Verify(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected garbage rejected, got %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1", "tipo": "admin", "iss": issuerName})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := s.Verify(context.Background(), unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected alg none rejected, got %v", err)
	}
}

func TestIssue_RequiresIdentity(t *testing.T) {
	s, _ := New("secret", 0)
	if _, err := s.Issue(auth.Claims{Role: navigation.RoleAdmin}); err == nil {
		t.Fatal("expected error without user id")
	}
	if _, err := New("  ", time.Hour); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
