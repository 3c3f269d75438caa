package memory

import (
	"github.com/localindex/dedupe/internal/seed"
	"github.com/localindex/dedupe/pkg/directory"
)

// LoadSeed populates a new store from a YAML seed file.
func LoadSeed(path string, opts ...Option) (*Store, error) {
	file, err := seed.Load(path)
	if err != nil {
		return nil, err
	}
	return FromSeed(file, opts...), nil
}

// FromSeed populates a new store from a parsed seed dataset.
func FromSeed(file *seed.File, opts ...Option) *Store {
	store := New(opts...)
	for _, record := range file.Records {
		store.AddRecord(record)
	}
	for _, review := range file.Reviews {
		store.AddReview(review)
	}
	for _, claim := range file.Claims {
		store.SetClaim(claim.RecordID, &directory.Claim{OwnerID: claim.OwnerID})
	}
	for _, term := range file.Terms {
		store.DefineTerm(term.Taxonomy, term.ID, term.Name)
		for _, recordID := range term.Records {
			store.appendTerm(recordID, term.Taxonomy, term.ID)
		}
	}
	return store
}

// appendTerm adds a single term assignment, keeping prior assignments.
func (s *Store) appendTerm(recordID int64, taxonomy directory.Taxonomy, termID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terms[taxonomy] == nil {
		s.terms[taxonomy] = make(map[int64][]int64)
	}
	for _, existing := range s.terms[taxonomy][recordID] {
		if existing == termID {
			return
		}
	}
	s.terms[taxonomy][recordID] = append(s.terms[taxonomy][recordID], termID)
}
