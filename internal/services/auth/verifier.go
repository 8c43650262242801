package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/postcraft/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// ErrMissingSubject is returned for tokens without a sub claim
var ErrMissingSubject = errors.New("token missing subject claim")

// TokenVerifier validates a bearer token and returns its identity claims
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.JWTClaims, error)
}

// Verifier checks token signatures against the issuer's JWKS
type Verifier struct {
	jwks    *JWKSManager
	jwksURL string
	issuer  string
	skew    time.Duration
}

// NewVerifier creates a verifier for tokens from issuer, signed by keys at jwksURL
func NewVerifier(jwks *JWKSManager, jwksURL, issuer string) *Verifier {
	return &Verifier{
		jwks:    jwks,
		jwksURL: jwksURL,
		issuer:  issuer,
		skew:    30 * time.Second,
	}
}

var _ TokenVerifier = (*Verifier)(nil)

// Verify parses and validates token, checking signature, expiry and issuer
func (v *Verifier) Verify(ctx context.Context, token string) (*models.JWTClaims, error) {
	keys, err := v.jwks.GetJWKS(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	parsed, err := jwt.Parse([]byte(token),
		jwt.WithKeySet(keys),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
		jwt.WithAcceptableSkew(v.skew),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	if parsed.Subject() == "" {
		return nil, ErrMissingSubject
	}

	claims := &models.JWTClaims{
		Sub: parsed.Subject(),
		Iss: parsed.Issuer(),
		Exp: parsed.Expiration().Unix(),
	}
	if email, ok := parsed.PrivateClaims()["email"].(string); ok {
		claims.Email = email
	}
	if name, ok := parsed.PrivateClaims()["name"].(string); ok {
		claims.Name = name
	}
	return claims, nil
}
