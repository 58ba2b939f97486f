package geofence

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/jmakela/herdguard-go/internal/datastore/entities"
	"github.com/jmakela/herdguard-go/internal/datastore/repository"
)

const activeFencesKey = "geofences:active"

// CachedProvider serves active geofences from a short-TTL cache so every
// position report does not hit the database. Fences change rarely; a stale
// read within the TTL window only delays a boundary change taking effect.
type CachedProvider struct {
	repo  repository.GeofenceRepository
	cache *gocache.Cache
}

// NewCachedProvider creates a provider caching active fences for ttl.
func NewCachedProvider(repo repository.GeofenceRepository, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		repo:  repo,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// ActiveFences returns the active geofences, from cache when fresh.
func (p *CachedProvider) ActiveFences(ctx context.Context) ([]entities.Geofence, error) {
	if cached, ok := p.cache.Get(activeFencesKey); ok {
		if fences, ok := cached.([]entities.Geofence); ok {
			return fences, nil
		}
	}
	fences, err := p.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	p.cache.SetDefault(activeFencesKey, fences)
	return fences, nil
}

// Invalidate drops the cached fence list, forcing a reload on next read.
func (p *CachedProvider) Invalidate() {
	p.cache.Delete(activeFencesKey)
}
