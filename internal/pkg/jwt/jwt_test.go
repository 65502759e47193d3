package jwt

import (
	"testing"
	"time"
)

func TestSignAndParse(t *testing.T) {
	SetSecret("test-secret")

	token, err := SignWithOptions("user-1", time.Minute, SignOptions{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("user id = %q, want user-1", claims.UserID)
	}
	if claims.SessionID != "sess-1" {
		t.Errorf("session id = %q, want sess-1", claims.SessionID)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	SetSecret("test-secret")

	token, err := Sign("user-1", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Parse(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestParseRejectsTampered(t *testing.T) {
	SetSecret("test-secret")

	token, err := Sign("user-1", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Parse(token + "x"); err == nil {
		t.Fatal("expected error for tampered token")
	}
}
