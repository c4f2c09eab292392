package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidate(t *testing.T) {
	a, err := NewAuthenticator("test-secret")
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}

	token, expiresAt, err := a.GenerateClientToken("client-123")
	if err != nil {
		t.Fatalf("GenerateClientToken: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Error("token must expire in the future")
	}

	claims, err := a.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.ClientID != "client-123" || claims.Role != "client" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer, _ := NewAuthenticator("issuer-secret")
	verifier, _ := NewAuthenticator("other-secret")

	token, _, err := issuer.GenerateClientToken("client-123")
	if err != nil {
		t.Fatalf("GenerateClientToken: %v", err)
	}
	if _, err := verifier.ValidateToken(token); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	a, _ := NewAuthenticator("test-secret")
	if _, err := a.ValidateToken("not.a.token"); err == nil {
		t.Fatal("garbage token must be rejected")
	}
}

func TestNewAuthenticatorRequiresSecret(t *testing.T) {
	if _, err := NewAuthenticator(""); err == nil {
		t.Fatal("empty secret must be rejected")
	}
}
