package memory

import (
	"context"
	"math"
	"sort"

	"github.com/localindex/dedupe/pkg/directory"
)

// AddReview inserts or replaces a review.
func (s *Store) AddReview(review *directory.Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *review
	s.reviews[review.ID] = &clone
}

// Reassign moves every review attached to one of fromIDs onto toID and
// returns the number moved.
func (s *Store) Reassign(_ context.Context, fromIDs []int64, toID int64) (int, error) {
	from := idSet(fromIDs)

	s.mu.Lock()
	defer s.mu.Unlock()

	moved := 0
	for _, review := range s.reviews {
		if from[review.RecordID] {
			review.RecordID = toID
			moved++
		}
	}
	return moved, nil
}

// Count returns the number of reviews attached to any of the given records.
func (s *Store) Count(_ context.Context, ids []int64) (int, error) {
	want := idSet(ids)

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, review := range s.reviews {
		if want[review.RecordID] {
			count++
		}
	}
	return count, nil
}

// Stats computes approved-review counts and average ratings per record.
// Records with no approved reviews get a zero entry.
func (s *Store) Stats(_ context.Context, ids []int64) (map[int64]directory.ReviewStats, error) {
	want := idSet(ids)

	s.mu.RLock()
	defer s.mu.RUnlock()

	sums := make(map[int64]float64, len(ids))
	counts := make(map[int64]int, len(ids))
	for _, review := range s.reviews {
		if !want[review.RecordID] || review.Status != directory.ReviewApproved {
			continue
		}
		sums[review.RecordID] += float64(review.Rating)
		counts[review.RecordID]++
	}

	stats := make(map[int64]directory.ReviewStats, len(ids))
	for _, id := range ids {
		entry := directory.ReviewStats{Count: counts[id]}
		if entry.Count > 0 {
			entry.AvgRating = math.Round(sums[id]/float64(entry.Count)*10) / 10
		}
		stats[id] = entry
	}
	return stats, nil
}

// DeleteByRecord removes every review attached to the given record.
func (s *Store) DeleteByRecord(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for reviewID, review := range s.reviews {
		if review.RecordID == id {
			delete(s.reviews, reviewID)
		}
	}
	return nil
}

// DefineTerm registers a term name so detail views can resolve it.
func (s *Store) DefineTerm(taxonomy directory.Taxonomy, termID int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.termNames[taxonomy] == nil {
		s.termNames[taxonomy] = make(map[int64]string)
	}
	s.termNames[taxonomy][termID] = name
}

// AssignTerms replaces a record's term set for one taxonomy.
func (s *Store) AssignTerms(recordID int64, taxonomy directory.Taxonomy, termIDs []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terms[taxonomy] == nil {
		s.terms[taxonomy] = make(map[int64][]int64)
	}
	s.terms[taxonomy][recordID] = append([]int64(nil), termIDs...)
}

// Terms returns the term ids assigned to a record for one taxonomy.
func (s *Store) Terms(_ context.Context, recordID int64, taxonomy directory.Taxonomy) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]int64(nil), s.terms[taxonomy][recordID]...), nil
}

// TermsMany returns the term ids for each of the given records.
func (s *Store) TermsMany(_ context.Context, recordIDs []int64, taxonomy directory.Taxonomy) (map[int64][]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := make(map[int64][]int64, len(recordIDs))
	for _, id := range recordIDs {
		if assigned := s.terms[taxonomy][id]; len(assigned) > 0 {
			terms[id] = append([]int64(nil), assigned...)
		}
	}
	return terms, nil
}

// UnionAssign adds the given terms to a record's set, keeping existing
// assignments, and returns how many were newly added.
func (s *Store) UnionAssign(_ context.Context, recordID int64, taxonomy directory.Taxonomy, termIDs []int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terms[taxonomy] == nil {
		s.terms[taxonomy] = make(map[int64][]int64)
	}
	have := make(map[int64]bool)
	for _, term := range s.terms[taxonomy][recordID] {
		have[term] = true
	}

	added := 0
	for _, term := range termIDs {
		if !have[term] {
			have[term] = true
			s.terms[taxonomy][recordID] = append(s.terms[taxonomy][recordID], term)
			added++
		}
	}
	sort.Slice(s.terms[taxonomy][recordID], func(i, j int) bool {
		return s.terms[taxonomy][recordID][i] < s.terms[taxonomy][recordID][j]
	})
	return added, nil
}

// Names resolves term ids to display names. Unknown ids are omitted.
func (s *Store) Names(_ context.Context, taxonomy directory.Taxonomy, termIDs []int64) (map[int64]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make(map[int64]string, len(termIDs))
	for _, term := range termIDs {
		if name, ok := s.termNames[taxonomy][term]; ok {
			names[term] = name
		}
	}
	return names, nil
}

// SetClaim records ownership of a record.
func (s *Store) SetClaim(recordID int64, claim *directory.Claim) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if claim == nil {
		delete(s.claims, recordID)
		return
	}
	clone := *claim
	s.claims[recordID] = &clone
}

// Get returns the claim on a record, or nil when unclaimed.
func (s *Store) Get(_ context.Context, recordID int64) (*directory.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	claim, ok := s.claims[recordID]
	if !ok {
		return nil, nil
	}
	clone := *claim
	return &clone, nil
}

// GetMany returns the claims on the given records, omitting unclaimed ones.
func (s *Store) GetMany(_ context.Context, recordIDs []int64) (map[int64]*directory.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	claims := make(map[int64]*directory.Claim, len(recordIDs))
	for _, id := range recordIDs {
		if claim, ok := s.claims[id]; ok {
			clone := *claim
			claims[id] = &clone
		}
	}
	return claims, nil
}

// Transfer moves the claim on fromID to toID. A no-op when fromID is
// unclaimed.
func (s *Store) Transfer(_ context.Context, fromID, toID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	claim, ok := s.claims[fromID]
	if !ok {
		return nil
	}
	delete(s.claims, fromID)
	s.claims[toID] = claim
	return nil
}

// Clear removes the claim on a record.
func (s *Store) Clear(_ context.Context, recordID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, recordID)
	return nil
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
