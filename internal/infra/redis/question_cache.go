package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"grownest-service/internal/domain"
)

// QuestionLoader fetches question sets from a backing source (learning
// platform, Postgres walkthrough content).
type QuestionLoader interface {
	Load(ctx context.Context, mode domain.GameMode, id string) (domain.QuestionSet, error)
}

// QuestionCache caches normalized question sets in Redis as one JSON value
// per mode+content key and falls back to the loader on a miss. Sharing the
// cache across instances keeps reconnects cheap.
type QuestionCache struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) Load(ctx context.Context, mode domain.GameMode, id string) (domain.QuestionSet, error) {
	key := c.key(mode, id)

	if set, ok := c.fromCache(ctx, key); ok {
		return set, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if set, ok := c.fromCache(ctx, key); ok {
			return set, nil
		}

		set, err := c.loader.Load(ctx, mode, id)
		if err != nil {
			return domain.QuestionSet{}, err
		}

		if data, err := json.Marshal(set); err == nil {
			// best-effort cache fill
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

func (c *QuestionCache) fromCache(ctx context.Context, key string) (domain.QuestionSet, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.QuestionSet{}, false
	}
	var set domain.QuestionSet
	if err := json.Unmarshal(data, &set); err != nil {
		return domain.QuestionSet{}, false
	}
	return set, true
}

func (c *QuestionCache) key(mode domain.GameMode, id string) string {
	return "nest:questions:" + string(mode) + ":" + id
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
