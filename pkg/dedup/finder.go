package dedup

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/localindex/dedupe/pkg/directory"
	"github.com/localindex/dedupe/pkg/errors"
	"github.com/localindex/dedupe/pkg/logging"
)

// CachePrefix namespaces every cache key the finder writes. Anything that
// structurally mutates records (create, edit, delete, merge) must
// invalidate this prefix.
const CachePrefix = "dedupe:"

const (
	groupsKeyPrefix = CachePrefix + "groups:"
	countKey        = CachePrefix + "count"

	// DefaultCacheTTL is how long duplicate groups stay cached.
	DefaultCacheTTL = 5 * time.Minute

	defaultParallelism = 3
)

// Finder orchestrates the detection strategies: it runs them, merges
// overlapping raw groups into disjoint duplicate groups, sorts by
// confidence, and caches the result.
type Finder struct {
	store      directory.RecordStore
	cache      directory.Cache
	reviews    directory.ReviewStore
	taxonomies directory.TaxonomyStore
	claims     directory.ClaimStore

	ttl         time.Duration
	parallelism int
	linkBase    string
	strategies  map[Method]strategy
}

// Option configures a Finder.
type Option func(*Finder) error

// WithCache sets the cache used for duplicate groups and counts.
// Without a cache every call recomputes.
func WithCache(cache directory.Cache) Option {
	return func(f *Finder) error {
		f.cache = cache
		return nil
	}
}

// WithCacheTTL overrides the default 5 minute cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(f *Finder) error {
		if ttl <= 0 {
			return errors.NewValidationError("ttl", ttl, "must be positive")
		}
		f.ttl = ttl
		return nil
	}
}

// WithParallelism bounds how many strategies run concurrently.
func WithParallelism(n int) Option {
	return func(f *Finder) error {
		if n < 1 {
			return errors.NewValidationError("parallelism", n, "must be at least 1")
		}
		f.parallelism = n
		return nil
	}
}

// WithReviewStore wires the review satellite store for group details.
func WithReviewStore(reviews directory.ReviewStore) Option {
	return func(f *Finder) error {
		f.reviews = reviews
		return nil
	}
}

// WithTaxonomyStore wires the taxonomy satellite store for group details.
func WithTaxonomyStore(taxonomies directory.TaxonomyStore) Option {
	return func(f *Finder) error {
		f.taxonomies = taxonomies
		return nil
	}
}

// WithClaimStore wires the claim satellite store for group details.
func WithClaimStore(claims directory.ClaimStore) Option {
	return func(f *Finder) error {
		f.claims = claims
		return nil
	}
}

// WithLinkBase sets the base URL used to build edit/view links in group
// details.
func WithLinkBase(base string) Option {
	return func(f *Finder) error {
		f.linkBase = strings.TrimRight(base, "/")
		return nil
	}
}

// NewFinder creates a Finder over the given record store.
func NewFinder(store directory.RecordStore, opts ...Option) (*Finder, error) {
	if store == nil {
		return nil, errors.NewValidationError("store", nil, "cannot be nil")
	}
	f := &Finder{
		store:       store,
		ttl:         DefaultCacheTTL,
		parallelism: defaultParallelism,
		strategies:  newStrategies(),
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// findOptions carries per-call Find configuration.
type findOptions struct {
	methods  []Method
	useCache bool
}

// FindOption configures a single Find call.
type FindOption func(*findOptions)

// WithMethods restricts detection to the given methods. Unknown methods
// are dropped; if none remain, Find returns an empty result.
func WithMethods(methods ...Method) FindOption {
	return func(o *findOptions) {
		o.methods = methods
	}
}

// WithoutCache forces recomputation and skips the cached result.
func WithoutCache() FindOption {
	return func(o *findOptions) {
		o.useCache = false
	}
}

// Find runs the selected detection strategies and returns disjoint
// duplicate groups ordered by confidence, highest first.
func (f *Finder) Find(ctx context.Context, opts ...FindOption) ([]Group, error) {
	options := findOptions{useCache: true}
	for _, opt := range opts {
		opt(&options)
	}

	methods, requested := f.selectMethods(options.methods)
	if requested && len(methods) == 0 {
		return []Group{}, nil
	}

	key := groupsKeyPrefix + methodsKey(methods)
	if options.useCache && f.cache != nil {
		if cached, ok := f.cache.Get(key); ok {
			if groups, ok := cached.([]Group); ok {
				return groups, nil
			}
		}
	}

	raw, err := f.runStrategies(ctx, methods)
	if err != nil {
		return nil, err
	}

	groups := mergeOverlapping(raw)
	sortGroups(groups)

	if f.cache != nil {
		f.cache.Set(key, groups, f.ttl)
	}
	return groups, nil
}

// Count returns a fast approximate duplicate-group count using only the
// exact-title strategy. Cheaper and less accurate than Find; intended for
// summary badges.
func (f *Finder) Count(ctx context.Context) (int, error) {
	if f.cache != nil {
		if cached, ok := f.cache.Get(countKey); ok {
			if count, ok := cached.(int); ok {
				return count, nil
			}
		}
	}

	raw, err := f.strategies[MethodExactTitle].Scan(ctx, f.store)
	if err != nil {
		return 0, err
	}
	count := len(raw)

	if f.cache != nil {
		f.cache.Set(countKey, count, f.ttl)
	}
	return count, nil
}

// ClearCache drops every cached finder result. Call after any write that
// changes record identity fields.
func (f *Finder) ClearCache() {
	if f.cache != nil {
		f.cache.DeletePrefix(CachePrefix)
	}
}

// selectMethods filters the requested methods down to known ones, in
// canonical order. requested reports whether the caller asked for a
// specific subset.
func (f *Finder) selectMethods(requested []Method) ([]Method, bool) {
	if len(requested) == 0 {
		return AllowedMethods(), false
	}
	seen := make(map[Method]bool, len(requested))
	for _, m := range requested {
		if m.Valid() {
			seen[m] = true
		}
	}
	methods := make([]Method, 0, len(seen))
	for _, m := range AllowedMethods() {
		if seen[m] {
			methods = append(methods, m)
		}
	}
	return methods, true
}

// runStrategies executes the strategies concurrently and joins before
// returning; the union-merge step must only see complete results.
func (f *Finder) runStrategies(ctx context.Context, methods []Method) ([]rawGroup, error) {
	results := make([][]rawGroup, len(methods))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.parallelism)
	for i, method := range methods {
		i, method := i, method
		g.Go(func() error {
			started := time.Now()
			groups, err := f.strategies[method].Scan(ctx, f.store)
			if err != nil {
				return err
			}
			logging.Ctx(ctx).Debug().
				Str("method", string(method)).
				Int("groups", len(groups)).
				Dur("elapsed", time.Since(started)).
				Msg("detection strategy finished")
			results[i] = groups
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var raw []rawGroup
	for _, groups := range results {
		raw = append(raw, groups...)
	}
	return raw, nil
}

// mergeOverlapping merges raw groups that share record ids into connected
// components. A component's confidence is the maximum of its contributors;
// its method set is their union; its match key comes from the first
// contributing group.
func mergeOverlapping(raw []rawGroup) []Group {
	uf := newUnionFind()
	for _, group := range raw {
		for _, id := range group.ids[1:] {
			uf.union(group.ids[0], id)
		}
	}

	type component struct {
		key        string
		confidence Confidence
		methods    map[Method]bool
		ids        map[int64]bool
	}

	components := make(map[int64]*component)
	order := make([]int64, 0)
	for _, group := range raw {
		root := uf.find(group.ids[0])
		comp, ok := components[root]
		if !ok {
			comp = &component{
				key:        group.key,
				confidence: group.confidence,
				methods:    make(map[Method]bool),
				ids:        make(map[int64]bool),
			}
			components[root] = comp
			order = append(order, root)
		}
		comp.methods[group.method] = true
		if group.confidence.Higher(comp.confidence) {
			comp.confidence = group.confidence
		}
		for _, id := range group.ids {
			comp.ids[id] = true
		}
	}

	groups := make([]Group, 0, len(order))
	for _, root := range order {
		comp := components[root]
		ids := make([]int64, 0, len(comp.ids))
		for id := range comp.ids {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		methods := make([]Method, 0, len(comp.methods))
		for method := range comp.methods {
			methods = append(methods, method)
		}
		sortMethods(methods)

		groups = append(groups, Group{
			MatchKey:   comp.key,
			Methods:    methods,
			Confidence: comp.confidence,
			RecordIDs:  ids,
			Count:      len(ids),
		})
	}
	return groups
}

// sortGroups orders groups by confidence descending. Ties sort by match
// key so output is deterministic.
func sortGroups(groups []Group) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Confidence != groups[j].Confidence {
			return groups[i].Confidence.Higher(groups[j].Confidence)
		}
		return groups[i].MatchKey < groups[j].MatchKey
	})
}

// methodsKey builds the canonical cache key suffix for a method set. The
// set is already canonically ordered by selectMethods.
func methodsKey(methods []Method) string {
	parts := make([]string, len(methods))
	for i, m := range methods {
		parts[i] = string(m)
	}
	return strings.Join(parts, ",")
}
