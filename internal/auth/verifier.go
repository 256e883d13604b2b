package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"storefront/internal/models"
)

type cachedIdentity struct {
	identity models.Identity
	expires  time.Time
}

// Verifier parses tokens and keeps recently verified ones in an LRU cache
// keyed by the token hash. Cached entries are honoured only until the
// token's own expiry.
type Verifier struct {
	secret string
	cache  *lru.Cache[string, cachedIdentity]
	now    func() time.Time
}

func NewVerifier(secret string, cacheSize int) (*Verifier, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[string, cachedIdentity](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Verifier{secret: secret, cache: cache, now: time.Now}, nil
}

func (v *Verifier) Verify(token string) (models.Identity, error) {
	key := cacheKey(token)
	if hit, ok := v.cache.Get(key); ok {
		if v.now().Before(hit.expires) {
			return hit.identity, nil
		}
		v.cache.Remove(key)
	}

	identity, expires, err := Parse(token, v.secret)
	if err != nil {
		return models.Identity{}, err
	}
	if !v.now().Before(expires) {
		return models.Identity{}, fmt.Errorf("%w: expired", ErrInvalidToken)
	}
	v.cache.Add(key, cachedIdentity{identity: identity, expires: expires})
	return identity, nil
}

func (v *Verifier) Cached() int {
	return v.cache.Len()
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
