package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algenord/portfolio-backend/internal/projects/domain"
)

func newTestCache(t *testing.T) (*ProjectCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewProjectCache(client), mr
}

func sampleProjects() []domain.Project {
	return []domain.Project{
		{
			ID:              1,
			Title:           "Roof restoration",
			ServiceCategory: domain.CategoryRoofCleaning,
			CustomerType:    domain.CustomerPrivate,
			ExecutionDate:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			Images: []domain.Image{
				{ID: 1, ProjectID: 1, URL: "/uploads/a.png", ImageType: domain.ImageBefore},
				{ID: 2, ProjectID: 1, URL: "/uploads/b.png", ImageType: domain.ImageAfter},
			},
		},
		{
			ID:              2,
			Title:           "Facade wash",
			ServiceCategory: domain.CategoryFacadeCleaning,
			CustomerType:    domain.CustomerBusiness,
		},
	}
}

func TestProjectCache_ListRoundtrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	key := ListKey(domain.ListFilter{ServiceCategory: domain.CategoryRoofCleaning, Sort: "desc"})

	_, ok := c.GetList(ctx, key)
	assert.False(t, ok)

	c.SetList(ctx, key, sampleProjects())

	got, ok := c.GetList(ctx, key)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "Roof restoration", got[0].Title)
	assert.Len(t, got[0].Images, 2)
}

func TestProjectCache_DetailRoundtrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, ok := c.GetProject(ctx, 1)
	assert.False(t, ok)

	p := sampleProjects()[0]
	c.SetProject(ctx, &p)

	got, ok := c.GetProject(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, p.Title, got.Title)
	assert.Equal(t, domain.ImageAfter, got.Images[1].ImageType)
}

func TestProjectCache_ListKeyPerFilter(t *testing.T) {
	a := ListKey(domain.ListFilter{ServiceCategory: domain.CategoryRoofCleaning})
	b := ListKey(domain.ListFilter{ServiceCategory: domain.CategoryRoofCleaning, Sort: "asc"})
	c := ListKey(domain.ListFilter{CustomerType: domain.CustomerBusiness})

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, b, c)
}

func TestProjectCache_Invalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	key := ListKey(domain.ListFilter{})
	c.SetList(ctx, key, sampleProjects())
	p := sampleProjects()[0]
	c.SetProject(ctx, &p)

	// a key outside the cache namespace must survive
	mr.Set("session:abc", "keep")

	c.Invalidate(ctx)

	_, ok := c.GetList(ctx, key)
	assert.False(t, ok)
	_, ok = c.GetProject(ctx, 1)
	assert.False(t, ok)

	kept, err := mr.Get("session:abc")
	require.NoError(t, err)
	assert.Equal(t, "keep", kept)
}

func TestProjectCache_Expiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	key := ListKey(domain.ListFilter{})
	c.SetList(ctx, key, sampleProjects())

	mr.FastForward(cacheTTL + time.Second)

	_, ok := c.GetList(ctx, key)
	assert.False(t, ok)
}

func TestProjectCache_NilIsNoop(t *testing.T) {
	var c *ProjectCache
	ctx := context.Background()

	_, ok := c.GetList(ctx, "any")
	assert.False(t, ok)
	_, ok = c.GetProject(ctx, 1)
	assert.False(t, ok)

	// none of these may panic
	c.SetList(ctx, "any", sampleProjects())
	p := sampleProjects()[0]
	c.SetProject(ctx, &p)
	c.Invalidate(ctx)
}
