package redis

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"ffquiz-service/internal/app"
	"ffquiz-service/internal/domain"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// VerificationCache caches successful verifications in Redis so every
// instance shares them, and falls back to the verifier on a miss.
// Records are stored as: SET verify:{region}:{gameID} {json} EX ttl
type VerificationCache struct {
	client   *redis.Client
	verifier app.Verifier
	ttl      time.Duration
	sf       singleflight.Group
	rndMu    sync.Mutex
	rnd      *rand.Rand
}

func NewVerificationCache(client *redis.Client, verifier app.Verifier, ttl time.Duration) *VerificationCache {
	return &VerificationCache{
		client:   client,
		verifier: verifier,
		ttl:      ttl,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *VerificationCache) Verify(ctx context.Context, gameID, region string) (domain.VerificationRecord, error) {
	key := c.key(gameID, region)
	if rec, ok := c.lookup(ctx, key); ok {
		return rec, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if rec, ok := c.lookup(ctx, key); ok {
			return rec, nil
		}

		rec, err := c.verifier.Verify(ctx, gameID, region)
		if err != nil {
			return domain.VerificationRecord{}, err
		}

		if ttl := c.ttlWithJitter(); ttl > 0 {
			if data, err := json.Marshal(rec); err == nil {
				if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
					log.Printf("cache verification %s: %v", key, err)
				}
			}
		}
		return rec, nil
	})
	if err != nil {
		return domain.VerificationRecord{}, err
	}
	return result.(domain.VerificationRecord), nil
}

// lookup treats Redis errors as a miss; the verifier stays authoritative.
func (c *VerificationCache) lookup(ctx context.Context, key string) (domain.VerificationRecord, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.VerificationRecord{}, false
	}
	var rec domain.VerificationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.VerificationRecord{}, false
	}
	return rec, true
}

func (c *VerificationCache) key(gameID, region string) string {
	return "verify:" + region + ":" + gameID
}

func (c *VerificationCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
