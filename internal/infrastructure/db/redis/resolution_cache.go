package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/citydirectory/directory-core/internal/api/metrics"
	"github.com/citydirectory/directory-core/internal/core/domain"
	"github.com/citydirectory/directory-core/internal/core/ports"
)

// MaxResolutionTTL bounds how long a resolution may be served from cache;
// canonical bindings change on rename.
const MaxResolutionTTL = 60 * time.Second

const defaultResolutionTTL = 30 * time.Second

// ResolutionCache decorates a SlugResolver with a short-lived Redis cache.
// Key formats:
//
//	resolve:<lang>:<site_key>:<slug>       cached resolution
//	resolve:entity:<entity_type>:<id>      set of resolution keys of one entity
//	resolve:gen:<lang>                     invalidation generation
//
// Only successful resolutions are stored. NotFound and Unavailable are passed
// through and never cached. Concurrent misses for one triple share a single
// lookup. A lookup that started before an invalidation of its language does
// not write its result back.
type ResolutionCache struct {
	client *redis.Client
	next   ports.SlugResolver
	ttl    time.Duration
	group  singleflight.Group
	log    zerolog.Logger
}

// NewResolutionCache wraps next. ttl is clamped to (0, MaxResolutionTTL];
// zero selects the default.
func NewResolutionCache(client *redis.Client, next ports.SlugResolver, ttl time.Duration, log zerolog.Logger) *ResolutionCache {
	switch {
	case ttl <= 0:
		ttl = defaultResolutionTTL
	case ttl > MaxResolutionTTL:
		ttl = MaxResolutionTTL
	}
	return &ResolutionCache{client: client, next: next, ttl: ttl, log: log}
}

// TTL reports the effective cache lifetime.
func (c *ResolutionCache) TTL() time.Duration { return c.ttl }

// Resolve serves t from cache or resolves it through the wrapped resolver.
// Cache failures degrade to an uncached resolution.
func (c *ResolutionCache) Resolve(ctx context.Context, t domain.Triple) (domain.ResolutionResult, error) {
	start := time.Now()
	defer func() { metrics.ResolutionDuration.Observe(time.Since(start).Seconds()) }()

	t = t.Normalize()
	key := c.key(t)

	res, hit, err := c.get(ctx, key)
	switch {
	case err != nil:
		metrics.ResolutionCacheTotal.WithLabelValues("error").Inc()
		c.log.Warn().Err(err).Str("key", key).Msg("resolution cache read failed, resolving directly")
	case hit:
		metrics.ResolutionCacheTotal.WithLabelValues("hit").Inc()
		return res, nil
	default:
		metrics.ResolutionCacheTotal.WithLabelValues("miss").Inc()
	}

	// The shared lookup outlives any single caller; each caller still stops
	// waiting when its own context ends.
	lookupCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		gen, genErr := c.generation(lookupCtx, t.Lang)
		res, err := c.next.Resolve(lookupCtx, t)
		if err != nil {
			return domain.ResolutionResult{}, err
		}
		if genErr != nil {
			c.log.Warn().Err(genErr).Str("key", key).Msg("failed to read cache generation, not caching")
			return res, nil
		}
		setErr := c.set(lookupCtx, t.Lang, key, res, gen)
		switch {
		case errors.Is(setErr, errStaleResolution):
			c.log.Debug().Str("key", key).Msg("resolution invalidated while in flight, not caching")
		case setErr != nil:
			c.log.Warn().Err(setErr).Str("key", key).Msg("failed to cache resolution")
		}
		return res, nil
	})

	select {
	case <-ctx.Done():
		return domain.ResolutionResult{}, fmt.Errorf("%w: %w", domain.ErrUnavailable, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return domain.ResolutionResult{}, r.Err
		}
		return r.Val.(domain.ResolutionResult), nil
	}
}

// Invalidate drops every cached resolution of entity together with the given
// triples, and discards lookups for their languages that are still in flight.
func (c *ResolutionCache) Invalidate(ctx context.Context, entity domain.EntityRef, triples ...domain.Triple) error {
	keys := make([]string, 0, len(triples)+1)
	langs := make(map[string]struct{}, 1)
	for _, t := range triples {
		t = t.Normalize()
		keys = append(keys, c.key(t))
		langs[t.Lang] = struct{}{}
	}

	// The generation moves first so a lookup finishing after the deletes
	// below finds it changed.
	for lang := range langs {
		if err := c.client.Incr(ctx, genKey(lang)).Err(); err != nil {
			return fmt.Errorf("resolution cache invalidate: %w", err)
		}
	}

	setKey := entityKey(entity)
	members, err := c.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("resolution cache invalidate: %w", err)
	}
	keys = append(keys, members...)
	for _, k := range keys {
		c.group.Forget(k)
	}

	if err := c.client.Del(ctx, append(keys, setKey)...).Err(); err != nil {
		return fmt.Errorf("resolution cache invalidate: %w", err)
	}
	return nil
}

func (c *ResolutionCache) get(ctx context.Context, key string) (domain.ResolutionResult, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ResolutionResult{}, false, nil
	}
	if err != nil {
		return domain.ResolutionResult{}, false, fmt.Errorf("resolution cache get: %w", err)
	}
	var res domain.ResolutionResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return domain.ResolutionResult{}, false, fmt.Errorf("resolution cache decode: %w", err)
	}
	return res, true, nil
}

var errStaleResolution = errors.New("resolution invalidated while in flight")

func (c *ResolutionCache) generation(ctx context.Context, lang string) (int64, error) {
	gen, err := c.client.Get(ctx, genKey(lang)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("resolution cache generation: %w", err)
	}
	return gen, nil
}

// set stores res under key unless lang's generation moved past gen. The key
// is recorded in the entity's set so Invalidate can find it.
func (c *ResolutionCache) set(ctx context.Context, lang, key string, res domain.ResolutionResult, gen int64) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	setKey := entityKey(res.Entity)

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey(lang)).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleResolution
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, c.ttl)
			pipe.SAdd(ctx, setKey, key)
			pipe.Expire(ctx, setKey, c.ttl)
			return nil
		})
		return err
	}, genKey(lang))
	if errors.Is(err, redis.TxFailedErr) {
		return errStaleResolution
	}
	return err
}

func (c *ResolutionCache) key(t domain.Triple) string {
	return fmt.Sprintf("resolve:%s:%s:%s", t.Lang, t.SiteKey, t.Slug)
}

func entityKey(e domain.EntityRef) string {
	return fmt.Sprintf("resolve:entity:%s:%s", e.Type, e.ID)
}

func genKey(lang string) string {
	return "resolve:gen:" + lang
}
