package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aminofox/zencall/pkg/call"
	"github.com/aminofox/zencall/pkg/logger"
)

type countingUpstream struct {
	calls int
	err   error
}

func (u *countingUpstream) ResolveProfile(ctx context.Context, peerID call.PeerID) (call.Profile, error) {
	u.calls++
	if u.err != nil {
		return call.Profile{}, u.err
	}
	return call.Profile{Name: "Peer " + string(peerID), IsContact: true}, nil
}

type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("store down")
}

func (failingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("store down")
}

func (failingStore) Delete(ctx context.Context, key string) error {
	return errors.New("store down")
}

func TestDirectoryCachesResolvedProfiles(t *testing.T) {
	upstream := &countingUpstream{}
	d := NewDirectory(upstream, NewMemoryStore(), time.Minute, logger.NewNopLogger())
	ctx := context.Background()

	first, err := d.ResolveProfile(ctx, "alice")
	if err != nil {
		t.Fatalf("Failed to resolve profile: %v", err)
	}

	second, err := d.ResolveProfile(ctx, "alice")
	if err != nil {
		t.Fatalf("Failed to resolve cached profile: %v", err)
	}

	if first != second {
		t.Error("Cached profile should match the resolved one")
	}
	if upstream.calls != 1 {
		t.Errorf("Expected 1 upstream call, got %d", upstream.calls)
	}

	hits, misses := d.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("Expected 1 hit and 1 miss, got %d/%d", hits, misses)
	}
}

func TestDirectoryInvalidate(t *testing.T) {
	upstream := &countingUpstream{}
	d := NewDirectory(upstream, NewMemoryStore(), time.Minute, logger.NewNopLogger())
	ctx := context.Background()

	if _, err := d.ResolveProfile(ctx, "alice"); err != nil {
		t.Fatalf("Failed to resolve profile: %v", err)
	}

	d.Invalidate(ctx, "alice")

	if _, err := d.ResolveProfile(ctx, "alice"); err != nil {
		t.Fatalf("Failed to resolve profile after invalidation: %v", err)
	}
	if upstream.calls != 2 {
		t.Errorf("Expected upstream re-resolution, got %d calls", upstream.calls)
	}
}

func TestDirectorySurvivesStoreFailure(t *testing.T) {
	upstream := &countingUpstream{}
	d := NewDirectory(upstream, failingStore{}, time.Minute, logger.NewNopLogger())

	p, err := d.ResolveProfile(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Store failure must not fail resolution: %v", err)
	}
	if p.Name != "Peer alice" {
		t.Errorf("Expected upstream profile, got '%s'", p.Name)
	}
}

func TestDirectoryDropsCorruptEntry(t *testing.T) {
	upstream := &countingUpstream{}
	store := NewMemoryStore()
	d := NewDirectory(upstream, store, time.Minute, logger.NewNopLogger())
	ctx := context.Background()

	if err := store.Set(ctx, "profile:alice", []byte("not-json"), time.Minute); err != nil {
		t.Fatalf("Failed to seed corrupt entry: %v", err)
	}

	p, err := d.ResolveProfile(ctx, "alice")
	if err != nil {
		t.Fatalf("Corrupt cache entry must not fail resolution: %v", err)
	}
	if p.Name != "Peer alice" {
		t.Errorf("Expected upstream profile, got '%s'", p.Name)
	}
	if upstream.calls != 1 {
		t.Errorf("Expected upstream resolution, got %d calls", upstream.calls)
	}
}

func TestDirectoryPropagatesUpstreamError(t *testing.T) {
	upstream := &countingUpstream{err: errors.New("directory unavailable")}
	d := NewDirectory(upstream, NewMemoryStore(), time.Minute, logger.NewNopLogger())

	if _, err := d.ResolveProfile(context.Background(), "alice"); err == nil {
		t.Error("Upstream failure should propagate")
	}
}

type atomicUpstream struct {
	calls atomic.Int64
}

func (u *atomicUpstream) ResolveProfile(ctx context.Context, peerID call.PeerID) (call.Profile, error) {
	u.calls.Add(1)
	return call.Profile{Name: string(peerID)}, nil
}

func TestDirectoryConcurrentAccess(t *testing.T) {
	upstream := &atomicUpstream{}
	d := NewDirectory(upstream, NewMemoryStore(), time.Minute, logger.NewNopLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			peer := call.PeerID(fmt.Sprintf("peer-%d", g))
			for i := 0; i < 25; i++ {
				if _, err := d.ResolveProfile(ctx, peer); err != nil {
					t.Errorf("Failed to resolve profile: %v", err)
				}
				d.Stats()
			}
		}(g)
	}
	wg.Wait()

	hits, misses := d.Stats()
	if hits+misses != 200 {
		t.Errorf("Expected every resolution counted once, got %d hits and %d misses", hits, misses)
	}
	if got := upstream.calls.Load(); got != 8 {
		t.Errorf("Expected 8 upstream calls, got %d", got)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}

	if _, err := store.Get(ctx, "k"); err != nil {
		t.Fatalf("Fresh entry should be readable: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	if _, err := store.Get(ctx, "k"); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after expiry, got %v", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := store.Get(ctx, "k"); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after delete, got %v", err)
	}
}
