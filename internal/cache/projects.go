package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/algenord/portfolio-backend/internal/projects/domain"
)

const (
	keyPrefix       = "portfolio:projects:"     // every key lives under this
	listKeyPrefix   = "portfolio:projects:list:" // list per filter combination
	detailKeyPrefix = "portfolio:projects:id:"   // one project by id
	cacheTTL        = 5 * time.Minute
)

// ProjectCache is a read cache for the public list/detail routes. Mutations
// call Invalidate; a Redis outage or a nil cache degrades to Postgres. All
// methods are nil-receiver safe.
type ProjectCache struct {
	client *redis.Client
}

func NewProjectCache(client *redis.Client) *ProjectCache {
	if client == nil {
		return nil
	}
	return &ProjectCache{client: client}
}

// ListKey derives the cache key for one filter combination.
func ListKey(f domain.ListFilter) string {
	return fmt.Sprintf("%s%s|%s|%s", listKeyPrefix, f.ServiceCategory, f.CustomerType, f.Sort)
}

func (c *ProjectCache) GetList(ctx context.Context, key string) ([]domain.Project, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[cache] get %s: %v", key, err)
		}
		return nil, false
	}

	var out []domain.Project
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *ProjectCache) SetList(ctx context.Context, key string, projects []domain.Project) {
	if c == nil {
		return
	}

	data, err := json.Marshal(projects)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, cacheTTL).Err(); err != nil {
		log.Printf("[cache] set %s: %v", key, err)
	}
}

func (c *ProjectCache) GetProject(ctx context.Context, id int64) (*domain.Project, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, fmt.Sprintf("%s%d", detailKeyPrefix, id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[cache] get project %d: %v", id, err)
		}
		return nil, false
	}

	var p domain.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *ProjectCache) SetProject(ctx context.Context, p *domain.Project) {
	if c == nil || p == nil {
		return
	}

	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	key := fmt.Sprintf("%s%d", detailKeyPrefix, p.ID)
	if err := c.client.Set(ctx, key, data, cacheTTL).Err(); err != nil {
		log.Printf("[cache] set %s: %v", key, err)
	}
}

// Invalidate drops every cached list and detail entry. Called after any
// project or image mutation.
func (c *ProjectCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}

	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("[cache] del %s: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("[cache] invalidate scan: %v", err)
	}
}
