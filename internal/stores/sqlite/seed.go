package sqlite

import (
	"context"
	"fmt"

	"github.com/agentstation/utc"

	"github.com/localindex/dedupe/internal/seed"
	"github.com/localindex/dedupe/pkg/directory"
)

// Import loads a parsed seed dataset into the database.
func (s *Store) Import(ctx context.Context, file *seed.File) error {
	for _, record := range file.Records {
		if err := s.Save(ctx, record); err != nil {
			return err
		}
	}
	for _, review := range file.Reviews {
		if err := s.AddReview(ctx, review); err != nil {
			return err
		}
	}
	for _, claim := range file.Claims {
		err := s.SetClaim(ctx, claim.RecordID, &directory.Claim{
			OwnerID:   claim.OwnerID,
			ClaimedAt: utc.Now(),
		})
		if err != nil {
			return err
		}
	}
	for _, term := range file.Terms {
		if err := s.DefineTerm(ctx, term.Taxonomy, term.ID, term.Name); err != nil {
			return err
		}
		for _, recordID := range term.Records {
			if _, err := s.UnionAssign(ctx, recordID, term.Taxonomy, []int64{term.ID}); err != nil {
				return fmt.Errorf("assigning term %d to record %d: %w", term.ID, recordID, err)
			}
		}
	}
	return nil
}
