package dedup

import (
	"context"
	"fmt"
	"sort"

	"github.com/localindex/dedupe/pkg/directory"
	"github.com/localindex/dedupe/pkg/errors"
	"github.com/localindex/dedupe/pkg/normalize"
)

// Scan bounds. They keep worst-case latency and memory predictable on
// large directories.
const (
	scanLimit  = 5000 // records fetched per full-scan strategy
	groupLimit = 500  // groups emitted per strategy
)

// strategy is one independent, read-only duplicate scan. Implementations
// must not mutate store state and must return an empty result, not an
// error, when an optional data source is missing.
type strategy interface {
	Method() Method
	Scan(ctx context.Context, store directory.RecordStore) ([]rawGroup, error)
}

// newStrategies builds the full strategy set.
func newStrategies() map[Method]strategy {
	return map[Method]strategy{
		MethodExactTitle: &groupFieldStrategy{
			method:     MethodExactTitle,
			confidence: ConfidenceHigh,
			field:      directory.FieldTitle,
			label: func(values []string) string {
				return values[0]
			},
		},
		MethodTitleCity: &groupFieldStrategy{
			method:     MethodTitleCity,
			confidence: ConfidenceHigh,
			field:      directory.FieldTitleCity,
			requires:   directory.TableLocations,
			label: func(values []string) string {
				return fmt.Sprintf("%s (%s)", values[0], values[1])
			},
		},
		MethodTitleAddress: &groupFieldStrategy{
			method:     MethodTitleAddress,
			confidence: ConfidenceHigh,
			field:      directory.FieldTitleAddress,
			requires:   directory.TableLocations,
			label: func(values []string) string {
				return fmt.Sprintf("%s @ %s", values[0], values[1])
			},
		},
		MethodNormalizedTitle: &scanStrategy{
			method:         MethodNormalizedTitle,
			confidence:     ConfidenceMedium,
			distinctTitles: true,
			key: func(r *directory.Record) string {
				return normalize.Title(r.Title)
			},
			label: func(key string) string {
				return key
			},
		},
		MethodPhone: &scanStrategy{
			method:     MethodPhone,
			confidence: ConfidenceHigh,
			key: func(r *directory.Record) string {
				return normalize.Phone(r.Phone)
			},
			label: func(key string) string {
				return "Phone: " + key
			},
		},
		MethodWebsite: &scanStrategy{
			method:     MethodWebsite,
			confidence: ConfidenceHigh,
			key: func(r *directory.Record) string {
				return normalize.WebsiteHost(r.Website)
			},
			label: func(key string) string {
				return "Website: " + key
			},
		},
	}
}

// groupFieldStrategy groups records by a store-side field bucket, for
// fields the store can group natively (exact title, title+city,
// title+address).
type groupFieldStrategy struct {
	method     Method
	confidence Confidence
	field      directory.Field
	requires   string // optional table the field depends on, "" for none
	label      func(values []string) string
}

func (s *groupFieldStrategy) Method() Method { return s.method }

func (s *groupFieldStrategy) Scan(ctx context.Context, store directory.RecordStore) ([]rawGroup, error) {
	if s.requires != "" && !store.TableExists(ctx, s.requires) {
		return nil, nil
	}

	buckets, err := store.GroupByField(ctx, s.field, groupLimit)
	if err != nil {
		return nil, errors.WrapStore("record", "group by "+string(s.field), err)
	}

	groups := make([]rawGroup, 0, len(buckets))
	for _, bucket := range buckets {
		if len(bucket.IDs) < 2 || len(bucket.Values) == 0 {
			continue
		}
		groups = append(groups, rawGroup{
			key:        s.label(bucket.Values),
			method:     s.method,
			confidence: s.confidence,
			ids:        append([]int64(nil), bucket.IDs...),
		})
	}
	return groups, nil
}

// scanStrategy fetches a bounded slice of records and buckets them by a
// derived key (normalized title, normalized phone, website host).
type scanStrategy struct {
	method     Method
	confidence Confidence
	key        func(*directory.Record) string
	label      func(key string) string

	// distinctTitles drops buckets whose literal titles are all identical;
	// those are already covered by the exact-title strategy.
	distinctTitles bool
}

func (s *scanStrategy) Method() Method { return s.method }

func (s *scanStrategy) Scan(ctx context.Context, store directory.RecordStore) ([]rawGroup, error) {
	records, err := store.Scan(ctx, scanLimit)
	if err != nil {
		return nil, errors.WrapStore("record", "scan", err)
	}

	buckets := make(map[string][]*directory.Record)
	for _, record := range records {
		key := s.key(record)
		if key == "" {
			continue
		}
		buckets[key] = append(buckets[key], record)
	}

	groups := make([]rawGroup, 0)
	for key, members := range buckets {
		if len(members) < 2 {
			continue
		}
		if s.distinctTitles && allTitlesEqual(members) {
			continue
		}
		ids := make([]int64, len(members))
		for i, member := range members {
			ids[i] = member.ID
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		groups = append(groups, rawGroup{
			key:        s.label(key),
			method:     s.method,
			confidence: s.confidence,
			ids:        ids,
		})
	}

	// Largest groups first, key as tiebreak, so the result cap is
	// deterministic.
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].ids) != len(groups[j].ids) {
			return len(groups[i].ids) > len(groups[j].ids)
		}
		return groups[i].key < groups[j].key
	})
	if len(groups) > groupLimit {
		groups = groups[:groupLimit]
	}
	return groups, nil
}

func allTitlesEqual(records []*directory.Record) bool {
	for _, record := range records[1:] {
		if record.Title != records[0].Title {
			return false
		}
	}
	return true
}
