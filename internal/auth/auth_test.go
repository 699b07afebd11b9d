package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTokenIssuer_IssueAnonymous(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	userID, token, err := issuer.IssueAnonymous()
	if err != nil {
		t.Fatalf("IssueAnonymous() error = %v", err)
	}
	if _, err := uuid.Parse(userID); err != nil {
		t.Errorf("IssueAnonymous() userID %q is not a UUID: %v", userID, err)
	}
	if token == "" {
		t.Error("IssueAnonymous() returned empty token")
	}

	got, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got != userID {
		t.Errorf("Verify() userID = %v, want %v", got, userID)
	}
}

func TestTokenIssuer_IssueAnonymous_UniqueIDs(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	first, _, err := issuer.IssueAnonymous()
	if err != nil {
		t.Fatalf("IssueAnonymous() error = %v", err)
	}
	second, _, err := issuer.IssueAnonymous()
	if err != nil {
		t.Fatalf("IssueAnonymous() error = %v", err)
	}
	if first == second {
		t.Errorf("IssueAnonymous() returned the same user id twice: %v", first)
	}
}

func TestTokenIssuer_Renew(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	userID, _, err := issuer.IssueAnonymous()
	if err != nil {
		t.Fatalf("IssueAnonymous() error = %v", err)
	}

	renewed, err := issuer.Renew(userID)
	if err != nil {
		t.Fatalf("Renew() error = %v", err)
	}

	got, err := issuer.Verify(renewed)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got != userID {
		t.Errorf("Verify() userID = %v, want %v", got, userID)
	}
}

func TestTokenIssuer_Renew_InvalidUserID(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	_, err := issuer.Renew("not-a-uuid")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Renew() error = %v, want ErrInvalidToken", err)
	}
}

func TestTokenIssuer_Verify_Errors(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour)
	expired := NewTokenIssuer("test-secret", -time.Minute)

	userID, validToken, err := issuer.IssueAnonymous()
	if err != nil {
		t.Fatalf("IssueAnonymous() error = %v", err)
	}

	expiredToken, err := expired.Renew(userID)
	if err != nil {
		t.Fatalf("Renew() error = %v", err)
	}

	_, foreignToken, err := other.IssueAnonymous()
	if err != nil {
		t.Fatalf("IssueAnonymous() error = %v", err)
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{
			name:    "garbage token",
			token:   "not.a.token",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "empty token",
			token:   "",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "wrong secret",
			token:   foreignToken,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "expired token",
			token:   expiredToken,
			wantErr: ErrExpiredToken,
		},
		{
			name:    "valid token",
			token:   validToken,
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Verify(tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUserIDFromContext(t *testing.T) {
	ctx := context.Background()

	if _, ok := UserIDFromContext(ctx); ok {
		t.Error("UserIDFromContext() should report missing user id on empty context")
	}

	ctx = WithUserID(ctx, "user-1")
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		t.Fatal("UserIDFromContext() should find the user id")
	}
	if userID != "user-1" {
		t.Errorf("UserIDFromContext() = %v, want %v", userID, "user-1")
	}
}
