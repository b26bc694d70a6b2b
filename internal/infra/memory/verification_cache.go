package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"ffquiz-service/internal/app"
	"ffquiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// VerificationCache caches successful verifications with TTL to avoid
// repeated calls to the account API. Failures are never cached.
type VerificationCache struct {
	verifier app.Verifier
	ttl      time.Duration
	clock    func() time.Time
	sf       singleflight.Group
	rnd      *rand.Rand

	mu    sync.RWMutex
	rndMu sync.Mutex
	cache map[string]cachedRecord
}

type cachedRecord struct {
	rec       domain.VerificationRecord
	expiresAt time.Time
}

func NewVerificationCache(verifier app.Verifier, ttl time.Duration) *VerificationCache {
	return &VerificationCache{
		verifier: verifier,
		ttl:      ttl,
		clock:    time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:    make(map[string]cachedRecord),
	}
}

func (c *VerificationCache) Verify(ctx context.Context, gameID, region string) (domain.VerificationRecord, error) {
	key := region + ":" + gameID
	if rec, ok := c.lookup(key); ok {
		return rec, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another caller filled it.
		if rec, ok := c.lookup(key); ok {
			return rec, nil
		}

		rec, err := c.verifier.Verify(ctx, gameID, region)
		if err != nil {
			return domain.VerificationRecord{}, err
		}
		if ttl := c.ttlWithJitter(); ttl > 0 {
			c.mu.Lock()
			c.cache[key] = cachedRecord{rec: rec, expiresAt: c.clock().Add(ttl)}
			c.mu.Unlock()
		}
		return rec, nil
	})
	if err != nil {
		return domain.VerificationRecord{}, err
	}
	return result.(domain.VerificationRecord), nil
}

func (c *VerificationCache) lookup(key string) (domain.VerificationRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.VerificationRecord{}, false
	}
	return entry.rec, true
}

func (c *VerificationCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
