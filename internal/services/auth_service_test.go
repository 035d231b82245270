package services

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

func newTestAuthService(signingKey string, ttl time.Duration) *authServiceImpl {
	return &authServiceImpl{
		logger:            zerolog.Nop(),
		jwtIssuer:         "todo-agent-test",
		jwtSigningKey:     []byte(signingKey),
		jwtAccessTokenTTL: ttl,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	s := newTestAuthService("test-signing-key", 30*time.Minute)

	token, expiresAt, err := s.generateAccessToken("alice")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if remaining := time.Until(expiresAt); remaining < 29*time.Minute {
		t.Fatalf("expected ~30m ttl, got %v", remaining)
	}

	claims, err := s.ParseJWTToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != "alice" {
		t.Fatalf("expected subject alice, got %q", claims.Subject)
	}
}

func TestParseJWTTokenRejectsWrongSigningKey(t *testing.T) {
	issuer := newTestAuthService("key-one", 30*time.Minute)
	verifier := newTestAuthService("key-two", 30*time.Minute)

	token, _, err := issuer.generateAccessToken("alice")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	_, err = verifier.ParseJWTToken(token)
	if err == nil {
		t.Fatal("expected signature error, got nil")
	}
	if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		t.Fatalf("expected signature error, got: %v", err)
	}
}

func TestParseJWTTokenRejectsExpiredToken(t *testing.T) {
	s := newTestAuthService("test-signing-key", -time.Minute)

	token, _, err := s.generateAccessToken("alice")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	_, err = s.ParseJWTToken(token)
	if err == nil {
		t.Fatal("expected expiry error, got nil")
	}
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected token expired error, got: %v", err)
	}
}

func TestParseJWTTokenRejectsMalformedToken(t *testing.T) {
	s := newTestAuthService("test-signing-key", 30*time.Minute)

	_, err := s.ParseJWTToken("not.a.token")
	if err == nil {
		t.Fatal("expected parse error, got nil")
	}
}
