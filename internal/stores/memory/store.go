// Package memory provides an in-memory store bundle implementing every
// collaborator interface the dedup engine consumes. It backs the test
// suites and the CLI's seed-file mode.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/localindex/dedupe/pkg/directory"
	"github.com/localindex/dedupe/pkg/errors"
)

// Store is an in-memory record store plus satellite stores, all sharing
// one dataset under a single lock. Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	records   map[int64]*directory.Record
	reviews   map[int64]*directory.Review
	terms     map[directory.Taxonomy]map[int64][]int64
	termNames map[directory.Taxonomy]map[int64]string
	claims    map[int64]*directory.Claim
	missing   map[string]bool
}

// Option configures a Store.
type Option func(*Store)

// WithoutTable marks an optional data source as unavailable, so
// strategies depending on it degrade to empty results.
func WithoutTable(name string) Option {
	return func(s *Store) {
		s.missing[name] = true
	}
}

// New creates an empty in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		records:   make(map[int64]*directory.Record),
		reviews:   make(map[int64]*directory.Review),
		terms:     make(map[directory.Taxonomy]map[int64][]int64),
		termNames: make(map[directory.Taxonomy]map[int64]string),
		claims:    make(map[int64]*directory.Claim),
		missing:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddRecord inserts or replaces a record.
func (s *Store) AddRecord(record *directory.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record.Clone()
}

// GetByIDs returns the records for the given ids, skipping unknown ids.
func (s *Store) GetByIDs(_ context.Context, ids []int64) ([]*directory.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*directory.Record, 0, len(ids))
	for _, id := range ids {
		if record, ok := s.records[id]; ok {
			records = append(records, record.Clone())
		}
	}
	return records, nil
}

// Scan returns up to limit visible records, ordered by id.
func (s *Store) Scan(_ context.Context, limit int) ([]*directory.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.records))
	for id, record := range s.records {
		if record.Status.Visible() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	records := make([]*directory.Record, len(ids))
	for i, id := range ids {
		records[i] = s.records[id].Clone()
	}
	return records, nil
}

// GroupByField buckets visible records by the given field. Only buckets
// with at least two members are returned, largest first, capped at limit.
func (s *Store) GroupByField(ctx context.Context, field directory.Field, limit int) ([]directory.FieldGroup, error) {
	switch field {
	case directory.FieldTitleCity, directory.FieldTitleAddress:
		if !s.TableExists(ctx, directory.TableLocations) {
			return nil, nil
		}
	case directory.FieldTitle:
	default:
		return nil, errors.NewValidationError("field", field, "not groupable")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type bucket struct {
		values []string
		ids    []int64
	}
	buckets := make(map[string]*bucket)

	for _, record := range s.records {
		if !record.Status.Visible() {
			continue
		}
		values, ok := fieldValues(record, field)
		if !ok {
			continue
		}
		key := strings.Join(values, "\x00")
		b, ok := buckets[key]
		if !ok {
			b = &bucket{values: values}
			buckets[key] = b
		}
		b.ids = append(b.ids, record.ID)
	}

	groups := make([]directory.FieldGroup, 0, len(buckets))
	for _, b := range buckets {
		if len(b.ids) < 2 {
			continue
		}
		sort.Slice(b.ids, func(i, j int) bool { return b.ids[i] < b.ids[j] })
		groups = append(groups, directory.FieldGroup{Values: b.values, IDs: b.ids})
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].IDs) != len(groups[j].IDs) {
			return len(groups[i].IDs) > len(groups[j].IDs)
		}
		return strings.Join(groups[i].Values, "\x00") < strings.Join(groups[j].Values, "\x00")
	})
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}
	return groups, nil
}

// fieldValues extracts the grouping values for a record, reporting false
// when the record cannot participate (empty title, no location row).
func fieldValues(record *directory.Record, field directory.Field) ([]string, bool) {
	if record.Title == "" {
		return nil, false
	}
	switch field {
	case directory.FieldTitle:
		return []string{record.Title}, true
	case directory.FieldTitleCity:
		if record.Location == nil || record.Location.City == "" {
			return nil, false
		}
		return []string{record.Title, record.Location.City}, true
	case directory.FieldTitleAddress:
		if record.Location == nil || record.Location.Address == "" {
			return nil, false
		}
		return []string{record.Title, record.Location.Address}, true
	default:
		return nil, false
	}
}

// Save persists the full state of a record.
func (s *Store) Save(_ context.Context, record *directory.Record) error {
	if record == nil || record.ID == 0 {
		return errors.NewValidationError("record", record, "must have an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record.Clone()
	return nil
}

// Delete permanently removes a record.
func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return errors.NewNotFoundError("record", id)
	}
	delete(s.records, id)
	return nil
}

// TableExists reports whether an optional data source is available.
func (s *Store) TableExists(_ context.Context, name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.missing[name]
}

// Len returns the number of records in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
