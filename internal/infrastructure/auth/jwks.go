package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	ErrUnknownKeyID = errors.New("signing key not published by the pool")
	ErrKeySetEmpty  = errors.New("key set carries no usable RSA keys")
)

type jsonWebKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type keySet struct {
	Keys []jsonWebKey `json:"keys"`
}

// publicKey decodes the modulus and exponent of an RSA signing key.
func (k jsonWebKey) publicKey() (*rsa.PublicKey, error) {
	if k.Kty != "RSA" || k.Kid == "" {
		return nil, fmt.Errorf("unsupported key %q of type %q", k.Kid, k.Kty)
	}
	if k.Use != "" && k.Use != "sig" {
		return nil, fmt.Errorf("key %q is not a signing key", k.Kid)
	}
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil || len(n) == 0 {
		return nil, fmt.Errorf("key %q: bad modulus", k.Kid)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil || len(e) == 0 {
		return nil, fmt.Errorf("key %q: bad exponent", k.Kid)
	}
	exp := new(big.Int).SetBytes(e)
	if !exp.IsInt64() || exp.Int64() < 3 {
		return nil, fmt.Errorf("key %q: exponent out of range", k.Kid)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(exp.Int64())}, nil
}

// keyFetcher holds the pool's published keys for ttl. A lookup for an
// unknown kid forces a refetch, but no more often than minRefresh.
// Concurrent refetches share one request.
type keyFetcher struct {
	url        string
	ttl        time.Duration
	minRefresh time.Duration
	client     *http.Client
	flight     singleflight.Group

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

func newKeyFetcher(url string, ttl time.Duration) *keyFetcher {
	return &keyFetcher{
		url:        url,
		ttl:        ttl,
		minRefresh: 30 * time.Second,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

func (f *keyFetcher) lookup(kid string) (*rsa.PublicKey, bool, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	age := time.Since(f.fetchedAt)
	key, ok := f.keys[kid]
	fresh := f.keys != nil && age < f.ttl
	canRefresh := f.keys == nil || age >= f.minRefresh
	return key, ok && fresh, canRefresh
}

func (f *keyFetcher) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	key, hit, canRefresh := f.lookup(kid)
	if hit {
		return key, nil
	}
	if !canRefresh {
		if key != nil {
			return key, nil
		}
		return nil, ErrUnknownKeyID
	}
	_, err, _ := f.flight.Do("refresh", func() (any, error) {
		return nil, f.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if key, ok := f.keys[kid]; ok {
		return key, nil
	}
	return nil, ErrUnknownKeyID
}

func (f *keyFetcher) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch key set: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch key set: unexpected status %d", resp.StatusCode)
	}
	var set keySet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("decode key set: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		pub, err := k.publicKey()
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return ErrKeySetEmpty
	}
	f.mu.Lock()
	f.keys = keys
	f.fetchedAt = time.Now()
	f.mu.Unlock()
	return nil
}
