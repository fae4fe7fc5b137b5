package auth

import (
	"testing"
	"time"
)

func TestCreateAndVerifyToken(t *testing.T) {
	cfg := TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"}

	token, err := CreateToken("user-1", "alice", cfg)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	claims, err := VerifyToken(token, cfg)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("expected user-1, got %q", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Fatalf("expected alice, got %q", claims.Username)
	}
	if claims.ID == "" {
		t.Fatalf("expected non-empty jti")
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	cfg := TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"}
	token, err := CreateToken("user-1", "alice", cfg)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	if _, err := VerifyToken(token, TokenConfig{Secret: "other", Expiry: time.Hour}); err == nil {
		t.Fatalf("expected verification failure with wrong secret")
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	cfg := TokenConfig{Secret: "secret", Expiry: time.Millisecond, Issuer: "test"}
	token, err := CreateToken("user-1", "alice", cfg)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := VerifyToken(token, cfg); err == nil {
		t.Fatalf("expected expired token error")
	}
}

func TestCreateToken_Validation(t *testing.T) {
	if _, err := CreateToken("", "alice", TokenConfig{Secret: "s", Expiry: time.Hour}); err == nil {
		t.Fatalf("expected error for missing userID")
	}
	if _, err := CreateToken("u", "alice", TokenConfig{Expiry: time.Hour}); err == nil {
		t.Fatalf("expected error for missing secret")
	}
	if _, err := CreateToken("u", "alice", TokenConfig{Secret: "s"}); err == nil {
		t.Fatalf("expected error for invalid expiry")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword("hunter2", hash) {
		t.Fatalf("expected password to match")
	}
	if CheckPassword("hunter3", hash) {
		t.Fatalf("expected mismatch for wrong password")
	}
	if CheckPassword("hunter2", "not-a-hash") {
		t.Fatalf("expected mismatch for malformed hash")
	}
}
