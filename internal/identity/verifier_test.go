package identity

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func newJWKSServer(t *testing.T, kid string, key *rsa.PrivateKey) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		pub := key.PublicKey
		resp := map[string]any{"keys": []map[string]string{{
			"kty": "RSA",
			"kid": kid,
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func signIDToken(t *testing.T, key *rsa.PrivateKey, kid string, claims idTokenClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func googleClaims(audience string) idTokenClaims {
	return idTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "google-uid-1",
			Issuer:    "https://accounts.google.com",
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email:   "visitor@example.com",
		Name:    "Visitor",
		Picture: "https://example.com/p.png",
	}
}

func TestNewVerifierRequiresClientID(t *testing.T) {
	if _, err := NewVerifier(Config{}); err == nil {
		t.Fatal("expected missing client id to fail")
	}
}

func TestVerifyExtractsProfile(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv := newJWKSServer(t, "kid-1", key)
	defer srv.Close()

	v, err := NewVerifier(Config{ClientID: "client-1", JWKSURL: srv.URL})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	signed := signIDToken(t, key, "kid-1", googleClaims("client-1"))
	profile, err := v.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if profile.Subject != "google-uid-1" || profile.Email != "visitor@example.com" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.DisplayName != "Visitor" || profile.PhotoURL == "" {
		t.Fatalf("unexpected profile fields: %+v", profile)
	}
}

func TestVerifyRejectsWrongAudience(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv := newJWKSServer(t, "kid-1", key)
	defer srv.Close()

	v, err := NewVerifier(Config{ClientID: "client-1", JWKSURL: srv.URL})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	signed := signIDToken(t, key, "kid-1", googleClaims("someone-else"))
	if _, err := v.Verify(signed); err == nil {
		t.Fatal("expected audience mismatch to fail")
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv := newJWKSServer(t, "kid-1", key)
	defer srv.Close()

	v, err := NewVerifier(Config{ClientID: "client-1", JWKSURL: srv.URL})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	claims := googleClaims("client-1")
	claims.Issuer = "https://evil.example.com"
	signed := signIDToken(t, key, "kid-1", claims)
	if _, err := v.Verify(signed); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}
