// internal/demosite/service.go
//
// Service couples the store with the public cache.  Every successful
// mutation invalidates the cached copy of the site before returning, so
// readers observe the change on their next request.

package demosite

import (
	"context"

	"go.uber.org/zap"

	"github.com/yanizio/demosite/internal/auth"
	"github.com/yanizio/demosite/internal/metrics"
)

// Repository is the persistence surface Service needs.  *Store satisfies
// it.
type Repository interface {
	Loader
	Create(ctx context.Context, authorID string, sub Submission) (DemoSite, error)
	Update(ctx context.Context, id string, actor auth.Actor, p Patch) (DemoSite, error)
	Delete(ctx context.Context, id string, actor auth.Actor) error
	GetByID(ctx context.Context, id string) (DemoSite, error)
	List(ctx context.Context) ([]Listed, error)
}

// Service is the entry point used by HTTP components.
type Service struct {
	repo  Repository
	cache *Cache
}

// NewService wires repo and cache.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Create persists a validated submission owned by actor.
func (s *Service) Create(ctx context.Context, actor auth.Actor, sub Submission) (DemoSite, error) {
	d, err := s.repo.Create(ctx, actor.ID, sub)
	metrics.SiteMutationsTotal.WithLabelValues("create", metrics.Result(err)).Inc()
	if err != nil {
		return DemoSite{}, err
	}
	s.cache.Invalidate(d.ID, d.Slug)
	zap.S().Infow("demo site created", "id", d.ID, "slug", d.Slug, "author", actor.ID)
	return d, nil
}

// Update applies p on behalf of actor.
func (s *Service) Update(ctx context.Context, id string, actor auth.Actor, p Patch) (DemoSite, error) {
	d, err := s.repo.Update(ctx, id, actor, p)
	metrics.SiteMutationsTotal.WithLabelValues("update", metrics.Result(err)).Inc()
	if err != nil {
		return DemoSite{}, err
	}
	s.cache.Invalidate(d.ID, d.Slug)
	zap.S().Infow("demo site updated", "id", d.ID, "slug", d.Slug, "actor", actor.ID)
	return d, nil
}

// SetPublished toggles the publish flag.
func (s *Service) SetPublished(ctx context.Context, id string, actor auth.Actor, published bool) (DemoSite, error) {
	return s.Update(ctx, id, actor, Patch{IsPublished: &published})
}

// Delete removes the site on behalf of actor.
func (s *Service) Delete(ctx context.Context, id string, actor auth.Actor) error {
	err := s.repo.Delete(ctx, id, actor)
	metrics.SiteMutationsTotal.WithLabelValues("delete", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	s.cache.Invalidate(id)
	zap.S().Infow("demo site deleted", "id", id, "actor", actor.ID)
	return nil
}

// Get returns any site by id, published or not.
func (s *Service) Get(ctx context.Context, id string) (DemoSite, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns every site with its author summary.
func (s *Service) List(ctx context.Context) ([]Listed, error) {
	return s.repo.List(ctx)
}

// Published resolves a public slug through the cache.
func (s *Service) Published(ctx context.Context, slug string) (DemoSite, error) {
	return s.cache.Published(ctx, slug)
}
