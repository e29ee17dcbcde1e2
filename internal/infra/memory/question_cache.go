package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"grownest-service/internal/domain"
)

// QuestionLoader fetches question sets from a backing source (learning
// platform, Postgres walkthrough content).
type QuestionLoader interface {
	Load(ctx context.Context, mode domain.GameMode, id string) (domain.QuestionSet, error)
}

// QuestionCache caches question sets with TTL to avoid refetching on every
// session start or reconnect.
type QuestionCache struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	set       domain.QuestionSet
	expiresAt time.Time
}

func NewQuestionCache(loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSet),
	}
}

func (c *QuestionCache) Load(ctx context.Context, mode domain.GameMode, id string) (domain.QuestionSet, error) {
	key := cacheKey(mode, id)
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.set, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.set, nil
		}
		c.mu.RUnlock()

		set, err := c.loader.Load(ctx, mode, id)
		if err != nil {
			return domain.QuestionSet{}, err
		}

		c.mu.Lock()
		c.cache[key] = cachedSet{
			set:       set,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

func cacheKey(mode domain.GameMode, id string) string {
	return string(mode) + ":" + id
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticQuestionSource serves question sets from an in-memory map, keyed by
// content ID. Used for demos and as the no-database walkthrough source.
type StaticQuestionSource struct {
	sets map[string]domain.QuestionSet
}

func NewStaticQuestionSource(sets map[string]domain.QuestionSet) *StaticQuestionSource {
	return &StaticQuestionSource{sets: sets}
}

func (s *StaticQuestionSource) Load(_ context.Context, _ domain.GameMode, id string) (domain.QuestionSet, error) {
	if set, ok := s.sets[id]; ok {
		return set, nil
	}
	return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
}
