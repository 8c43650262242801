package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const testIssuer = "https://id.example.com/"

type testIdP struct {
	server  *httptest.Server
	private jwk.Key
	fetches atomic.Int32
}

func newTestIdP(t *testing.T) *testIdP {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	private, err := jwk.FromRaw(raw)
	if err != nil {
		t.Fatalf("FromRaw: %v", err)
	}
	_ = private.Set(jwk.KeyIDKey, "test-key")
	_ = private.Set(jwk.AlgorithmKey, jwa.RS256)

	public, err := jwk.PublicKeyOf(private)
	if err != nil {
		t.Fatalf("PublicKeyOf: %v", err)
	}
	set := jwk.NewSet()
	if err := set.AddKey(public); err != nil {
		t.Fatalf("AddKey: %v", err)
	}
	body, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	idp := &testIdP{private: private}
	idp.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idp.fetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(idp.server.Close)
	return idp
}

func (idp *testIdP) sign(t *testing.T, build func(b *jwt.Builder) *jwt.Builder) string {
	t.Helper()
	tok, err := build(jwt.NewBuilder()).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, idp.private))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return string(signed)
}

func TestVerifier_Verify(t *testing.T) {
	t.Parallel()

	idp := newTestIdP(t)
	v := NewVerifier(NewJWKSManager(idp.server.Client()), idp.server.URL, testIssuer)

	token := idp.sign(t, func(b *jwt.Builder) *jwt.Builder {
		return b.Issuer(testIssuer).
			Subject("user|42").
			Expiration(time.Now().Add(time.Hour)).
			Claim("email", "ada@example.com").
			Claim("name", "Ada")
	})

	claims, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Sub != "user|42" || claims.Email != "ada@example.com" || claims.Name != "Ada" || claims.Iss != testIssuer {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := v.Verify(context.Background(), token); err != nil {
		t.Fatalf("second Verify() error = %v", err)
	}
	if got := idp.fetches.Load(); got != 1 {
		t.Errorf("JWKS fetches = %d, want 1", got)
	}
}

func TestVerifier_Verify_Rejects(t *testing.T) {
	t.Parallel()

	idp := newTestIdP(t)
	v := NewVerifier(NewJWKSManager(idp.server.Client()), idp.server.URL, testIssuer)

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "expired",
			token: func(t *testing.T) string {
				return idp.sign(t, func(b *jwt.Builder) *jwt.Builder {
					return b.Issuer(testIssuer).Subject("u").Expiration(time.Now().Add(-time.Hour))
				})
			},
		},
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				return idp.sign(t, func(b *jwt.Builder) *jwt.Builder {
					return b.Issuer("https://evil.example.com/").Subject("u").Expiration(time.Now().Add(time.Hour))
				})
			},
		},
		{
			name: "missing subject",
			token: func(t *testing.T) string {
				return idp.sign(t, func(b *jwt.Builder) *jwt.Builder {
					return b.Issuer(testIssuer).Expiration(time.Now().Add(time.Hour))
				})
			},
		},
		{
			name:  "garbage",
			token: func(t *testing.T) string { return "not.a.jwt" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := v.Verify(context.Background(), tt.token(t)); err == nil {
				t.Error("Expected verification error")
			}
		})
	}
}

func TestJWKSManager_FetchFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := NewJWKSManager(srv.Client())
	if _, err := m.GetJWKS(context.Background(), srv.URL); err == nil {
		t.Error("Expected error for non-200 JWKS response")
	}
}

func TestJWKSManager_Expiry(t *testing.T) {
	t.Parallel()

	idp := newTestIdP(t)
	m := NewJWKSManager(idp.server.Client())
	now := time.Now()
	m.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if _, err := m.GetJWKS(context.Background(), idp.server.URL); err != nil {
			t.Fatalf("GetJWKS() error = %v", err)
		}
	}
	now = now.Add(2 * time.Hour)
	if _, err := m.GetJWKS(context.Background(), idp.server.URL); err != nil {
		t.Fatalf("GetJWKS() error = %v", err)
	}
	m.Invalidate(idp.server.URL)
	if _, err := m.GetJWKS(context.Background(), idp.server.URL); err != nil {
		t.Fatalf("GetJWKS() error = %v", err)
	}

	if got := idp.fetches.Load(); got != 3 {
		t.Errorf("fetches = %d, want 3", got)
	}
}
