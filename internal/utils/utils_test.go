package utils

import (
	"strings"
	"testing"
	"time"
)

var epoch = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, "s3cret") {
		t.Fatal("VerifyPassword rejected the right password")
	}
	if VerifyPassword(hash, "wrong") {
		t.Fatal("VerifyPassword accepted a wrong password")
	}
}

func TestHashPasswordOutOfRangeCost(t *testing.T) {
	hash, err := HashPassword("pw", 99)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, "pw") {
		t.Fatal("hash with fallback cost does not verify")
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, "ana", "cook", false, epoch, 15*time.Minute)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	claims, err := ParseAccessToken("secret", tok.Token, epoch.Add(time.Minute))
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	id, _ := claims.UserID()
	if id != 42 || claims.Role != "cook" || claims.Username != "ana" {
		t.Fatalf("claims = %+v, want id 42 role cook user ana", claims)
	}
}

func TestAccessTokenExpired(t *testing.T) {
	tok, err := NewAccessToken("secret", 1, "a", "waiter", false, epoch, time.Minute)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if _, err := ParseAccessToken("secret", tok.Token, epoch.Add(2*time.Minute)); err != ErrTokenInvalid {
		t.Fatalf("ParseAccessToken(expired) error = %v, want ErrTokenInvalid", err)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	tok, _ := NewAccessToken("secret", 1, "a", "waiter", false, epoch, time.Minute)
	if _, err := ParseAccessToken("other", tok.Token, epoch); err != ErrTokenInvalid {
		t.Fatalf("ParseAccessToken(wrong secret) error = %v, want ErrTokenInvalid", err)
	}
}

func TestRefreshTokenHash(t *testing.T) {
	rt, err := NewRefreshToken(epoch, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if len(rt.Raw) != 96 {
		t.Fatalf("len(Raw) = %d, want 96", len(rt.Raw))
	}
	if h := HashRefreshRaw(rt.Raw); len(h) != 64 || h == rt.Raw {
		t.Fatalf("HashRefreshRaw = %q", h)
	}
	if !rt.Exp.Equal(epoch.Add(24 * time.Hour)) {
		t.Fatalf("Exp = %v", rt.Exp)
	}
}

func TestRandomCode(t *testing.T) {
	code, err := RandomCode(8, CodeAlphabet)
	if err != nil {
		t.Fatalf("RandomCode: %v", err)
	}
	if len(code) != 8 {
		t.Fatalf("len(code) = %d, want 8", len(code))
	}
	for _, r := range code {
		if !strings.ContainsRune(CodeAlphabet, r) {
			t.Fatalf("code %q contains %q outside the alphabet", code, r)
		}
	}
}
