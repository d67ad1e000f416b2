package auth

import (
	"testing"

	"meditrip-api/internal/model"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := MakeToken("user-1", model.RoleDoctor, "secret")
	if err != nil {
		t.Fatalf("make token: %v", err)
	}

	id, err := ParseToken(tok, "secret")
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if id.UserID != "user-1" || id.Role != model.RoleDoctor {
		t.Errorf("identity = %+v", id)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	tok, _ := MakeToken("user-1", model.RolePatient, "secret")
	if _, err := ParseToken(tok, "other"); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestTokenGarbage(t *testing.T) {
	if _, err := ParseToken("not.a.jwt", "secret"); err == nil {
		t.Fatal("expected error for garbage token")
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "hunter2hunter2") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}

func TestRefreshTokenHash(t *testing.T) {
	raw, hash, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if raw == "" || hash == "" || raw == hash {
		t.Fatalf("raw=%q hash=%q", raw, hash)
	}
	if HashRefreshToken(raw) != hash {
		t.Error("hash of raw token must match stored hash")
	}

	raw2, _, _ := GenerateRefreshToken()
	if raw == raw2 {
		t.Error("tokens must be unique")
	}
}
