// Package auth verifies bearer access tokens issued by the identity provider.
package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"golang.org/x/sync/singleflight"
)

const (
	defaultJWKSTTL = 1 * time.Hour
	maxJWKSBytes   = 1 << 20
)

type cachedKeySet struct {
	keys    jwk.Set
	expires time.Time
}

// JWKSManager fetches and caches JSON Web Key Sets by URL
type JWKSManager struct {
	client *http.Client
	ttl    time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedKeySet
	// fetches collapses concurrent refreshes of one URL after expiry
	fetches singleflight.Group
}

// NewJWKSManager creates a JWKS manager. A nil client gets a 10s timeout client.
func NewJWKSManager(client *http.Client) *JWKSManager {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &JWKSManager{
		client: client,
		ttl:    defaultJWKSTTL,
		now:    time.Now,
		cache:  make(map[string]cachedKeySet),
	}
}

// GetJWKS returns the key set at jwksURL, served from cache while fresh
func (m *JWKSManager) GetJWKS(ctx context.Context, jwksURL string) (jwk.Set, error) {
	m.mu.RLock()
	cached, ok := m.cache[jwksURL]
	m.mu.RUnlock()
	if ok && m.now().Before(cached.expires) {
		return cached.keys, nil
	}

	v, err, _ := m.fetches.Do(jwksURL, func() (any, error) {
		keys, err := m.fetch(ctx, jwksURL)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.cache[jwksURL] = cachedKeySet{keys: keys, expires: m.now().Add(m.ttl)}
		m.mu.Unlock()
		return keys, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(jwk.Set), nil
}

// Invalidate drops the cached key set for jwksURL, forcing a refetch
func (m *JWKSManager) Invalidate(jwksURL string) {
	m.mu.Lock()
	delete(m.cache, jwksURL)
	m.mu.Unlock()
}

func (m *JWKSManager) fetch(ctx context.Context, jwksURL string) (jwk.Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read JWKS response: %w", err)
	}
	keys, err := jwk.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}
	return keys, nil
}
