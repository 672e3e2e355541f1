package pubcontent

import (
	"context"
	"sync"
	"time"
)

// PostCache is an in-memory cache of catalog posts, tags and categories with TTL.
type PostCache struct {
	mu         sync.RWMutex
	posts      []Post
	tags       []string
	categories []string
	fetched    time.Time
	ttl        time.Duration
	catalog    *Catalog
}

// NewPostCache creates a PostCache backed by the given Catalog.
func NewPostCache(c *Catalog, ttl time.Duration) *PostCache {
	return &PostCache{catalog: c, ttl: ttl}
}

func (c *PostCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.tags = nil
	c.categories = nil
	c.mu.Unlock()
}

func (c *PostCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	posts, err := c.catalog.ListPosts(ctx, Filter{})
	if err != nil {
		return err
	}
	tags, err := c.catalog.ListTags(ctx)
	if err != nil {
		return err
	}
	categories, err := c.catalog.ListCategories(ctx)
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []Post{}
	}
	c.posts = posts
	c.tags = tags
	c.categories = categories
	c.fetched = time.Now()
	return nil
}

// ensureLoaded returns cached data after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *PostCache) ensureLoaded(ctx context.Context) ([]Post, []string, []string, error) {
	c.mu.RLock()
	if c.valid() {
		posts, tags, cats := c.posts, c.tags, c.categories
		c.mu.RUnlock()
		return posts, tags, cats, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, nil, nil, err
	}
	return c.posts, c.tags, c.categories, nil
}

// ListPosts returns cached posts that pass f.
func (c *PostCache) ListPosts(ctx context.Context, f Filter) ([]Post, error) {
	posts, _, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	if f == (Filter{}) {
		return posts, nil
	}
	var filtered []Post
	for _, p := range posts {
		if f.Match(p) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// ListTags returns all unique tags.
func (c *PostCache) ListTags(ctx context.Context) ([]string, error) {
	_, tags, _, err := c.ensureLoaded(ctx)
	return tags, err
}

// ListCategories returns all unique categories.
func (c *PostCache) ListCategories(ctx context.Context) ([]string, error) {
	_, _, cats, err := c.ensureLoaded(ctx)
	return cats, err
}

// GetPost returns a single post by slug from the cache.
func (c *PostCache) GetPost(ctx context.Context, slug string) (Post, error) {
	posts, _, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return Post{}, err
	}
	for _, p := range posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Post{}, ErrNotFound
}
