package auth

import (
	"testing"

	"github.com/google/uuid"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	userID, orgID := uuid.New(), uuid.New()

	token, err := svc.Generate(userID, "owner@salon.test", "admin", orgID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("UserID = %s, want %s", claims.UserID, userID)
	}
	if claims.OrganizationID != orgID {
		t.Errorf("OrganizationID = %s, want %s", claims.OrganizationID, orgID)
	}
	if claims.Role != "admin" {
		t.Errorf("Role = %q, want admin", claims.Role)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", 1).Generate(uuid.New(), "a@b.c", "staff", uuid.New())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewJWTService("secret-b", 1).Validate(token); err != ErrInvalidToken {
		t.Fatalf("Validate with wrong secret = %v, want ErrInvalidToken", err)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	token, err := NewJWTService("secret", -1).Generate(uuid.New(), "a@b.c", "staff", uuid.New())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewJWTService("secret", -1).Validate(token); err != ErrInvalidToken {
		t.Fatalf("Validate of expired token = %v, want ErrInvalidToken", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	if _, err := NewJWTService("secret", 1).Validate("not-a-token"); err != ErrInvalidToken {
		t.Fatalf("Validate = %v, want ErrInvalidToken", err)
	}
}
