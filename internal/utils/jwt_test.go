package utils

import (
	"testing"
)

func TestSignAndParseJWT(t *testing.T) {
	token, err := SignJWT("secret", "user-123", "client", 60)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := ParseJWT("secret", token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != "user-123" {
		t.Fatalf("user id round trip failed: %s", claims.UserID)
	}
	if claims.Role != "client" {
		t.Fatalf("role round trip failed: %s", claims.Role)
	}
}

func TestParseJWTWrongSecret(t *testing.T) {
	token, err := SignJWT("secret", "user-123", "client", 60)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseJWT("different-secret", token); err == nil {
		t.Fatal("token signed with another secret should not parse")
	}
}

func TestParseJWTExpired(t *testing.T) {
	token, err := SignJWT("secret", "user-123", "client", -1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseJWT("secret", token); err == nil {
		t.Fatal("expired token should not parse")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "hunter22" {
		t.Fatal("password stored in plain text")
	}
	if !CheckPassword(hash, "hunter22") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "hunter23") {
		t.Fatal("wrong password accepted")
	}
}

func TestRandomTokenUnique(t *testing.T) {
	a, b := RandomToken(32), RandomToken(32)
	if a == b {
		t.Fatal("two random tokens collided")
	}
	if len(a) == 0 {
		t.Fatal("empty token")
	}
}
