package httpapi

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

func TestNewAuthManagerRequiresGatePassword(t *testing.T) {
	if _, err := NewAuthManager("secret", time.Hour, "   "); err == nil {
		t.Fatalf("expected blank gate password to be rejected")
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	auth, err := NewAuthManager("test-secret-key", time.Hour, "warehouse-gate-9")
	if err != nil {
		t.Fatalf("new auth manager: %v", err)
	}

	token, expiresAt, err := auth.Login("warehouse-gate-9")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a token")
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expected expiry in the future, got %v", expiresAt)
	}
	if err := auth.ParseToken(token); err != nil {
		t.Fatalf("token should verify: %v", err)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	auth, err := NewAuthManager("test-secret-key", time.Hour, "warehouse-gate-9")
	if err != nil {
		t.Fatalf("new auth manager: %v", err)
	}

	for _, password := range []string{"", "  ", "wrong", "warehouse-gate-9 "} {
		if _, _, err := auth.Login(password); err == nil {
			t.Fatalf("expected login failure for %q", password)
		}
	}
}

func TestParseTokenRejectsForgedAndExpiredTokens(t *testing.T) {
	auth, err := NewAuthManager("test-secret-key", time.Hour, "warehouse-gate-9")
	if err != nil {
		t.Fatalf("new auth manager: %v", err)
	}

	if err := auth.ParseToken("not-a-jwt"); err == nil {
		t.Fatalf("expected garbage token to be rejected")
	}

	other, err := NewAuthManager("a-completely-different-secret", time.Hour, "warehouse-gate-9")
	if err != nil {
		t.Fatalf("new auth manager: %v", err)
	}
	forged, _, err := other.Login("warehouse-gate-9")
	if err != nil {
		t.Fatalf("login against other manager: %v", err)
	}
	if err := auth.ParseToken(forged); err == nil {
		t.Fatalf("token signed with another secret must not verify")
	}

	expired := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.RegisteredClaims{
		Subject:   "operator",
		IssuedAt:  jwtlib.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(-time.Hour)),
		Issuer:    "stockledger",
	})
	signed, err := expired.SignedString([]byte("test-secret-key"))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}
	if err := auth.ParseToken(signed); err == nil {
		t.Fatalf("expired token must not verify")
	}
}
