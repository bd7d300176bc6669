// Package profile resolves peer profiles for roster construction, with a
// cache in front of the upstream roster backend.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/aminofox/zencall/pkg/call"
	"github.com/aminofox/zencall/pkg/logger"
)

// ErrCacheMiss is returned by stores when a key is absent
var ErrCacheMiss = errors.New("profile: cache miss")

// Store is the cache seam the directory writes resolved profiles through
type Store interface {
	// Get returns the cached bytes for a key, or ErrCacheMiss
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores bytes under a key with a TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key
	Delete(ctx context.Context, key string) error
}

// Directory is a call.RosterBackend that caches resolved profiles. Cache
// failures never fail resolution; the upstream answer wins and the cache
// write is best effort.
type Directory struct {
	upstream call.RosterBackend
	store    Store
	ttl      time.Duration
	logger   logger.Logger

	// hits and misses count cache outcomes; atomic because the directory
	// is shared by callers outside any single goroutine
	hits   atomic.Int64
	misses atomic.Int64
}

// NewDirectory creates a caching profile directory
func NewDirectory(upstream call.RosterBackend, store Store, ttl time.Duration, log logger.Logger) *Directory {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &Directory{
		upstream: upstream,
		store:    store,
		ttl:      ttl,
		logger:   log,
	}
}

// ResolveProfile implements call.RosterBackend
func (d *Directory) ResolveProfile(ctx context.Context, peerID call.PeerID) (call.Profile, error) {
	key := cacheKey(peerID)

	if data, err := d.store.Get(ctx, key); err == nil {
		var p call.Profile
		if err := json.Unmarshal(data, &p); err == nil {
			d.hits.Add(1)
			return p, nil
		}
		// A corrupt entry is dropped and re-resolved
		_ = d.store.Delete(ctx, key)
	} else if err != ErrCacheMiss {
		d.logger.Warn("Profile cache read failed",
			logger.String("peer_id", string(peerID)),
			logger.Err(err),
		)
	}

	d.misses.Add(1)

	p, err := d.upstream.ResolveProfile(ctx, peerID)
	if err != nil {
		return call.Profile{}, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := d.store.Set(ctx, key, data, d.ttl); err != nil {
			d.logger.Warn("Profile cache write failed",
				logger.String("peer_id", string(peerID)),
				logger.Err(err),
			)
		}
	}

	return p, nil
}

// Invalidate drops a peer's cached profile
func (d *Directory) Invalidate(ctx context.Context, peerID call.PeerID) {
	if err := d.store.Delete(ctx, cacheKey(peerID)); err != nil {
		d.logger.Warn("Profile cache invalidation failed",
			logger.String("peer_id", string(peerID)),
			logger.Err(err),
		)
	}
}

// Stats returns cache hit and miss counts
func (d *Directory) Stats() (hits, misses int64) {
	return d.hits.Load(), d.misses.Load()
}

func cacheKey(peerID call.PeerID) string {
	return "profile:" + string(peerID)
}
