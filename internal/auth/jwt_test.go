package auth

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, err := svc.GenerateToken("tenant-1", RoleViewer)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken(): %v", err)
	}
	if claims.TenantID != "tenant-1" {
		t.Errorf("TenantID = %s, want tenant-1", claims.TenantID)
	}
	if claims.Role != RoleViewer {
		t.Errorf("Role = %s, want %s", claims.Role, RoleViewer)
	}
	if claims.Subject != "tenant-1" {
		t.Errorf("Subject = %s, want tenant-1", claims.Subject)
	}
}

func TestGenerateTokenValidation(t *testing.T) {
	svc := NewJWTService("test-secret")

	if _, err := svc.GenerateToken("", RoleAdmin); !errors.Is(err, ErrEmptyTenantID) {
		t.Errorf("empty tenant error = %v, want ErrEmptyTenantID", err)
	}
	if _, err := svc.GenerateToken("tenant-1", "superuser"); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("bad role error = %v, want ErrInvalidRole", err)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a").GenerateToken("tenant-1", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	if _, err := NewJWTService("secret-b").ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateTokenMalformed(t *testing.T) {
	svc := NewJWTServiceWithLeeway("test-secret", 0)

	token, err := svc.GenerateToken("tenant-1", RoleViewer)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}
	if _, err := svc.ValidateToken(token); err != nil {
		t.Errorf("fresh token rejected: %v", err)
	}
	if _, err := svc.ValidateToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateTokenWithRotation(t *testing.T) {
	oldSvc := NewJWTService("old-secret")
	token, err := oldSvc.GenerateToken("tenant-1", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	// A service rotated to a new secret still accepts tokens signed with
	// the previous one.
	rotated := NewJWTServiceWithRotation("new-secret", "old-secret")
	claims, err := rotated.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() after rotation: %v", err)
	}
	if claims.TenantID != "tenant-1" {
		t.Errorf("TenantID = %s, want tenant-1", claims.TenantID)
	}

	// Without the previous secret configured the old token is rejected.
	if _, err := NewJWTService("new-secret").ValidateToken(token); err == nil {
		t.Error("old token accepted without rotation secret")
	}
}

func TestTokenExpirySet(t *testing.T) {
	svc := NewJWTService("test-secret")
	token, err := svc.GenerateToken("tenant-1", RoleViewer)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken(): %v", err)
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 || remaining > TokenExpiry {
		t.Errorf("token expiry %s out of range (0, %s]", remaining, TokenExpiry)
	}
}
