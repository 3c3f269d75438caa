package dedupe

import (
	"strings"
	"time"

	"github.com/localindex/dedupe/pkg/dedup"
	"github.com/localindex/dedupe/pkg/directory"
	"github.com/localindex/dedupe/pkg/errors"
)

// config holds client configuration assembled by options.
type config struct {
	reviews    directory.ReviewStore
	taxonomies directory.TaxonomyStore
	claims     directory.ClaimStore
	cache      directory.Cache
	ttl        time.Duration
	linkBase   string
}

func defaultConfig() *config {
	return &config{ttl: dedup.DefaultCacheTTL}
}

// Option configures a Client.
type Option func(*config) error

// WithSatellites wires the review, taxonomy, and claim stores in one
// call. Any of them may be nil to skip that concern.
func WithSatellites(reviews directory.ReviewStore, taxonomies directory.TaxonomyStore, claims directory.ClaimStore) Option {
	return func(c *config) error {
		c.reviews = reviews
		c.taxonomies = taxonomies
		c.claims = claims
		return nil
	}
}

// WithReviewStore wires the review satellite store.
func WithReviewStore(reviews directory.ReviewStore) Option {
	return func(c *config) error {
		c.reviews = reviews
		return nil
	}
}

// WithTaxonomyStore wires the taxonomy satellite store.
func WithTaxonomyStore(taxonomies directory.TaxonomyStore) Option {
	return func(c *config) error {
		c.taxonomies = taxonomies
		return nil
	}
}

// WithClaimStore wires the claim satellite store.
func WithClaimStore(claims directory.ClaimStore) Option {
	return func(c *config) error {
		c.claims = claims
		return nil
	}
}

// WithCache replaces the default in-process TTL cache. The finder and
// merger share it: merges invalidate cached detection results.
func WithCache(cache directory.Cache) Option {
	return func(c *config) error {
		c.cache = cache
		return nil
	}
}

// WithCacheTTL overrides how long detection results stay cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *config) error {
		if ttl <= 0 {
			return errors.NewValidationError("ttl", ttl, "must be positive")
		}
		c.ttl = ttl
		return nil
	}
}

// WithLinkBase sets the base URL for edit/view links in group details.
func WithLinkBase(base string) Option {
	return func(c *config) error {
		c.linkBase = strings.TrimRight(base, "/")
		return nil
	}
}
