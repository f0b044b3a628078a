package sessionpolicy

import (
	"context"
	"time"

	"iam-service/internal/redis"

	gocache "github.com/patrickmn/go-cache"
)

// Key under which the logout delay is stored, both in redis and in the
// in-process cache.
const Key = "logout_delay"

const redisKey = "iam:" + Key

// Policy owns the current logout delay: the maximum age a session may
// reach before it must be terminated, derived from the lifetime of the
// last verified ID token. It is written on every successful token decode
// and read by session-expiry enforcement. The durable copy lives in
// redis; a short-lived in-process copy keeps the hot read path off the
// network.
type Policy struct {
	durable *redis.Client
	cache   *gocache.Cache
}

func New(durable *redis.Client, cacheTTL time.Duration) *Policy {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &Policy{
		durable: durable,
		cache:   gocache.New(cacheTTL, 2*cacheTTL),
	}
}

// Record overwrites the current logout delay. There is no invalidation
// protocol beyond the next Record call.
func (p *Policy) Record(ctx context.Context, delay time.Duration) error {
	secs := int64(delay / time.Second)
	if err := p.durable.Set(ctx, redisKey, secs, 0).Err(); err != nil {
		return err
	}
	p.cache.Set(Key, delay, gocache.DefaultExpiration)
	return nil
}

// LogoutDelay returns the current delay, preferring the in-process copy
// and falling back to redis. ok is false when no delay has ever been
// recorded.
func (p *Policy) LogoutDelay(ctx context.Context) (time.Duration, bool) {
	if v, found := p.cache.Get(Key); found {
		if d, isDur := v.(time.Duration); isDur {
			return d, true
		}
	}

	secs, err := p.durable.Get(ctx, redisKey).Int64()
	if err != nil {
		return 0, false
	}

	d := time.Duration(secs) * time.Second
	p.cache.Set(Key, d, gocache.DefaultExpiration)
	return d, true
}
