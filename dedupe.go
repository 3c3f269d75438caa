// Package dedupe is the high-level entry point for the directory
// duplicate detection and merge engine. It wraps the finder and merger
// behind one client with shared caching and event hooks.
//
// Example usage:
//
//	store, err := sqlite.Open("directory.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	client, err := dedupe.New(store,
//	    dedupe.WithSatellites(store, store, store),
//	    dedupe.WithCacheTTL(10*time.Minute),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	groups, err := client.Find(ctx)
//	for _, group := range groups {
//	    fmt.Printf("%s: %v\n", group.MatchKey, group.RecordIDs)
//	}
//
//	result, err := client.Merge(ctx, groups[0].RecordIDs[0], groups[0].RecordIDs[1:])
package dedupe

import (
	"context"
	"sync"
	"time"

	"github.com/localindex/dedupe/internal/cache"
	"github.com/localindex/dedupe/pkg/dedup"
	"github.com/localindex/dedupe/pkg/directory"
	"github.com/localindex/dedupe/pkg/merge"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// MergedHook is called after every successful merge or undo.
type MergedHook func(primaryID int64, mergedIDs []int64)

// Client is the combined detection and consolidation API.
type Client interface {
	// Find returns disjoint duplicate groups, highest confidence first.
	Find(ctx context.Context, opts ...dedup.FindOption) ([]dedup.Group, error)

	// Count returns a fast approximate duplicate-group count.
	Count(ctx context.Context) (int, error)

	// Statistics aggregates counters over the detected groups.
	Statistics(ctx context.Context) (*dedup.Statistics, error)

	// GroupDetails loads display details for a group's member ids.
	GroupDetails(ctx context.Context, recordIDs []int64) ([]dedup.RecordDetail, error)

	// Preview reports what a merge would do without writing anything.
	Preview(ctx context.Context, primaryID int64, duplicateIDs []int64) (*merge.Diff, error)

	// Merge consolidates the duplicates into the primary.
	Merge(ctx context.Context, primaryID int64, duplicateIDs []int64, opts ...merge.MergeOption) (*merge.Result, error)

	// Undo reverses the disposal step of the primary's most recent merge.
	Undo(ctx context.Context, primaryID int64) (*merge.UndoResult, error)

	// OnMerged registers a callback invoked after merges and undos.
	OnMerged(hook MergedHook)

	// ClearCache drops every cached detection result.
	ClearCache()
}

// client is the internal implementation of the Client interface.
type client struct {
	finder *dedup.Finder
	merger *merge.Merger

	mu    sync.RWMutex
	hooks []MergedHook
}

// New creates a Client over the given record store. Without satellite
// stores, review, taxonomy, and claim handling is skipped.
func New(store directory.RecordStore, opts ...Option) (Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.cache == nil {
		cfg.cache = cache.New(cfg.ttl, cleanupInterval(cfg.ttl))
	}

	finder, err := dedup.NewFinder(store,
		dedup.WithCache(cfg.cache),
		dedup.WithCacheTTL(cfg.ttl),
		dedup.WithReviewStore(cfg.reviews),
		dedup.WithTaxonomyStore(cfg.taxonomies),
		dedup.WithClaimStore(cfg.claims),
		dedup.WithLinkBase(cfg.linkBase),
	)
	if err != nil {
		return nil, err
	}

	merger, err := merge.New(store,
		merge.WithReviewStore(cfg.reviews),
		merge.WithTaxonomyStore(cfg.taxonomies),
		merge.WithClaimStore(cfg.claims),
		merge.WithCache(cfg.cache),
	)
	if err != nil {
		return nil, err
	}

	return &client{finder: finder, merger: merger}, nil
}

// Find returns disjoint duplicate groups, highest confidence first.
func (c *client) Find(ctx context.Context, opts ...dedup.FindOption) ([]dedup.Group, error) {
	return c.finder.Find(ctx, opts...)
}

// Count returns a fast approximate duplicate-group count.
func (c *client) Count(ctx context.Context) (int, error) {
	return c.finder.Count(ctx)
}

// Statistics aggregates counters over the detected groups.
func (c *client) Statistics(ctx context.Context) (*dedup.Statistics, error) {
	return c.finder.Statistics(ctx, nil)
}

// GroupDetails loads display details for a group's member ids.
func (c *client) GroupDetails(ctx context.Context, recordIDs []int64) ([]dedup.RecordDetail, error) {
	return c.finder.GroupDetails(ctx, recordIDs)
}

// Preview reports what a merge would do without writing anything.
func (c *client) Preview(ctx context.Context, primaryID int64, duplicateIDs []int64) (*merge.Diff, error) {
	return c.merger.Preview(ctx, primaryID, duplicateIDs)
}

// Merge consolidates the duplicates into the primary and notifies hooks.
func (c *client) Merge(ctx context.Context, primaryID int64, duplicateIDs []int64, opts ...merge.MergeOption) (*merge.Result, error) {
	result, err := c.merger.Merge(ctx, primaryID, duplicateIDs, opts...)
	if err != nil {
		return result, err
	}
	c.notify(primaryID, result.Merged)
	return result, nil
}

// Undo reverses the disposal step of the primary's most recent merge.
func (c *client) Undo(ctx context.Context, primaryID int64) (*merge.UndoResult, error) {
	result, err := c.merger.Undo(ctx, primaryID)
	if err != nil {
		return result, err
	}
	c.notify(primaryID, result.Restored)
	return result, nil
}

// OnMerged registers a callback invoked after merges and undos.
func (c *client) OnMerged(hook MergedHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook)
}

// ClearCache drops every cached detection result.
func (c *client) ClearCache() {
	c.finder.ClearCache()
}

func (c *client) notify(primaryID int64, ids []int64) {
	c.mu.RLock()
	hooks := make([]MergedHook, len(c.hooks))
	copy(hooks, c.hooks)
	c.mu.RUnlock()

	for _, hook := range hooks {
		hook(primaryID, ids)
	}
}

// cleanupInterval derives the cache eviction sweep period from the TTL.
func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl < time.Minute {
		return time.Minute
	}
	return 2 * ttl
}
