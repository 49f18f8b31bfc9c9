// internal/demosite/cache.go
//
// Public demo-site cache.
//
// Context
// -------
// Public slug routes read published sites through Cache.  Sites load
// lazily on first request, concurrent misses for one slug collapse into a
// single store read (singleflight), and entries live in a sync.Map with a
// lastSeen stamp.  Run evicts entries idle longer than IdleTTL and, when
// the map grows past MaxEntries, the least recently used ones.
//
// Service invalidates the affected slugs after every successful mutation,
// so a publish, edit, or delete is visible on the next public read.

package demosite

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/demosite/internal/metrics"
)

// Defaults used when CacheOptions leaves a field at zero.
const (
	DefaultIdleTTL       = 30 * time.Minute
	DefaultMaxEntries    = 500
	DefaultEvictInterval = time.Minute
)

// Loader fetches a published site by slug.
type Loader interface {
	GetBySlug(ctx context.Context, slug string, includeUnpublished bool) (DemoSite, error)
}

// CacheOptions tunes eviction.
type CacheOptions struct {
	IdleTTL       time.Duration
	MaxEntries    int
	EvictInterval time.Duration
}

type entry struct {
	site     DemoSite
	lastSeen int64 // UnixNano
}

// Cache holds published sites keyed by slug.
type Cache struct {
	load  Loader
	opts  CacheOptions
	sfg   singleflight.Group
	m     sync.Map // slug → *entry
	gen   atomic.Uint64
	now   func() time.Time
	count atomic.Int64
}

// NewCache returns an empty cache over l.
func NewCache(l Loader, opts CacheOptions) *Cache {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.EvictInterval <= 0 {
		opts.EvictInterval = DefaultEvictInterval
	}
	return &Cache{load: l, opts: opts, now: time.Now}
}

// Published returns the published site for slug, loading it on demand.
func (c *Cache) Published(ctx context.Context, slug string) (DemoSite, error) {
	if v, ok := c.m.Load(slug); ok {
		ent := v.(*entry)
		atomic.StoreInt64(&ent.lastSeen, c.now().UnixNano())
		return ent.site, nil
	}

	gen := c.gen.Load()
	v, err, _ := c.sfg.Do(slug, func() (any, error) {
		if v, ok := c.m.Load(slug); ok {
			return v.(*entry).site, nil
		}
		site, err := c.load.GetBySlug(ctx, slug, false)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				metrics.SiteLoadErrorsTotal.Inc()
			}
			return nil, err
		}
		// A mutation that raced this load bumped gen; serve the row but
		// do not cache it.
		if c.gen.Load() == gen {
			c.store(slug, site)
		}
		metrics.SiteLoadTotal.Inc()
		return site, nil
	})
	if err != nil {
		return DemoSite{}, err
	}
	return v.(DemoSite), nil
}

func (c *Cache) store(slug string, site DemoSite) {
	ent := &entry{site: site, lastSeen: c.now().UnixNano()}
	if _, loaded := c.m.Swap(slug, ent); !loaded {
		c.count.Add(1)
		metrics.CachedSites.Inc()
	}
}

// Invalidate drops the entries for site id and for the given slugs.  The
// id pass catches a slug that was renamed since it was cached.
func (c *Cache) Invalidate(id string, slugs ...string) {
	c.gen.Add(1)
	if id != "" {
		c.m.Range(func(key, value any) bool {
			if value.(*entry).site.ID == id {
				slugs = append(slugs, key.(string))
			}
			return true
		})
	}
	for _, s := range slugs {
		if s == "" {
			continue
		}
		c.sfg.Forget(s)
		if _, ok := c.m.LoadAndDelete(s); ok {
			c.count.Add(-1)
			metrics.CachedSites.Dec()
		}
	}
}

// Len returns the number of cached sites.
func (c *Cache) Len() int { return int(c.count.Load()) }

// Run evicts on every EvictInterval until ctx is cancelled.
func (c *Cache) Run(ctx context.Context) {
	t := time.NewTicker(c.opts.EvictInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.evict()
		}
	}
}

// evict removes idle entries, then trims the least recently used ones
// down to MaxEntries.
func (c *Cache) evict() {
	now := c.now().UnixNano()

	type kv struct {
		slug string
		at   int64
	}
	var live []kv
	c.m.Range(func(key, value any) bool {
		ent := value.(*entry)
		seen := atomic.LoadInt64(&ent.lastSeen)
		if idle := time.Duration(now - seen); idle > c.opts.IdleTTL {
			c.drop(key.(string), "idle", idle)
			return true
		}
		live = append(live, kv{slug: key.(string), at: seen})
		return true
	})

	if over := len(live) - c.opts.MaxEntries; over > 0 {
		sort.Slice(live, func(i, j int) bool { return live[i].at < live[j].at })
		for _, e := range live[:over] {
			c.drop(e.slug, "lru", 0)
		}
	}
}

func (c *Cache) drop(slug, reason string, idle time.Duration) {
	if _, ok := c.m.LoadAndDelete(slug); !ok {
		return
	}
	c.count.Add(-1)
	metrics.SiteEvictTotal.Inc()
	metrics.CachedSites.Dec()
	zap.S().Debugw("demo site evicted", "slug", slug, "reason", reason, "idle", idle.Truncate(time.Second))
}
