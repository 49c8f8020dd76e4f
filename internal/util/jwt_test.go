package util

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenIssuer(t *testing.T) {
	tokens := NewTokenIssuer("secret", "spendly", time.Hour)

	raw, exp, err := tokens.Issue(42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if d := time.Until(exp); d < 59*time.Minute || d > time.Hour {
		t.Errorf("expiry in %v, want about an hour", d)
	}
	claims, err := tokens.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != 42 || claims.Subject != "42" || claims.Issuer != "spendly" {
		t.Errorf("claims = %+v", claims)
	}

	tests := []struct {
		name   string
		issuer *TokenIssuer
		raw    string
	}{
		{"wrong secret", NewTokenIssuer("other", "spendly", time.Hour), raw},
		{"wrong issuer", NewTokenIssuer("secret", "someone-else", time.Hour), raw},
		{"garbage", tokens, "not.a.token"},
	}
	for _, tt := range tests {
		if _, err := tt.issuer.Parse(tt.raw); err == nil {
			t.Errorf("%s: token accepted", tt.name)
		}
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	tokens := NewTokenIssuer("secret", "spendly", time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	raw, _, _ := tokens.Issue(1)

	tokens.now = time.Now
	if _, err := tokens.Parse(raw); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expired token err = %v", err)
	}
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	tokens := NewTokenIssuer("secret", "spendly", time.Hour)
	claims := &Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "spendly",
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tokens.Parse(raw); err == nil {
		t.Error("HS512 token accepted")
	}

	claims.Subject = "2"
	claims.UserID = 1
	raw, _ = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if _, err := tokens.Parse(raw); err == nil {
		t.Error("token with mismatched subject accepted")
	}
}

func TestNewTokenIssuer_DefaultTTL(t *testing.T) {
	if got := NewTokenIssuer("s", "i", -time.Hour).TTL(); got != 24*time.Hour {
		t.Errorf("TTL = %v, want 24h", got)
	}
}
