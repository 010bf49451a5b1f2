package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const secret = "test-secret"

func sign(t *testing.T, claims jwt.RegisteredClaims, method jwt.SigningMethod, key any) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func validClaims() jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "watching",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

func TestVerify(t *testing.T) {
	v := NewVerifier(Options{Secret: secret, Issuer: "watching"})

	sub, err := v.Verify(sign(t, validClaims(), jwt.SigningMethodHS256, []byte(secret)))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sub != "user-1" {
		t.Errorf("expected user-1, got %q", sub)
	}
}

func TestVerifyRejects(t *testing.T) {
	v := NewVerifier(Options{Secret: secret, Issuer: "watching"})

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "someone-else"

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	noSubject := validClaims()
	noSubject.Subject = ""

	cases := map[string]string{
		"wrong secret": sign(t, validClaims(), jwt.SigningMethodHS256, []byte("other")),
		"expired":      sign(t, expired, jwt.SigningMethodHS256, []byte(secret)),
		"wrong issuer": sign(t, wrongIssuer, jwt.SigningMethodHS256, []byte(secret)),
		"no expiry":    sign(t, noExpiry, jwt.SigningMethodHS256, []byte(secret)),
		"no subject":   sign(t, noSubject, jwt.SigningMethodHS256, []byte(secret)),
		"wrong method": sign(t, validClaims(), jwt.SigningMethodHS512, []byte(secret)),
		"garbage":      "not.a.token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := v.Verify(token); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier(Options{Secret: secret})

	var gotIdentity string
	h := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdentity = Identity(r)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, validClaims(), jwt.SigningMethodHS256, []byte(secret)))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
	if gotIdentity != "user:user-1" {
		t.Errorf("expected subject identity, got %q", gotIdentity)
	}
}

func TestMiddlewareDisabledUsesIP(t *testing.T) {
	v := NewVerifier(Options{Disabled: true})

	var gotIdentity string
	h := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdentity = Identity(r)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	h.ServeHTTP(httptest.NewRecorder(), req)

	if gotIdentity != "ip:203.0.113.7" {
		t.Errorf("expected ip identity, got %q", gotIdentity)
	}
}
