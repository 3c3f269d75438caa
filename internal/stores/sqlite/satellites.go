package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/agentstation/utc"

	"github.com/localindex/dedupe/pkg/directory"
)

// AddReview inserts a review, used by seeding and tests.
func (s *Store) AddReview(ctx context.Context, review *directory.Review) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, record_id, rating, content, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			record_id = excluded.record_id,
			rating = excluded.rating,
			content = excluded.content,
			status = excluded.status,
			created_at = excluded.created_at`,
		review.ID, review.RecordID, review.Rating, review.Content,
		string(review.Status), review.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving review %d: %w", review.ID, err)
	}
	return nil
}

// Reassign moves every review attached to one of fromIDs onto toID.
func (s *Store) Reassign(ctx context.Context, fromIDs []int64, toID int64) (int, error) {
	if len(fromIDs) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(
		`UPDATE reviews SET record_id = ? WHERE record_id IN (%s)`,
		placeholders(len(fromIDs)),
	)
	args := append([]any{toID}, int64Args(fromIDs)...)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("reassigning reviews: %w", err)
	}
	moved, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reassigning reviews: %w", err)
	}
	return int(moved), nil
}

// Count returns the number of reviews attached to any of the given records.
func (s *Store) Count(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(
		`SELECT COUNT(*) FROM reviews WHERE record_id IN (%s)`,
		placeholders(len(ids)),
	)
	var count int
	if err := s.db.QueryRowContext(ctx, query, int64Args(ids)...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting reviews: %w", err)
	}
	return count, nil
}

// Stats computes approved-review counts and average ratings per record.
// Records with no approved reviews get a zero entry.
func (s *Store) Stats(ctx context.Context, ids []int64) (map[int64]directory.ReviewStats, error) {
	stats := make(map[int64]directory.ReviewStats, len(ids))
	for _, id := range ids {
		stats[id] = directory.ReviewStats{}
	}
	if len(ids) == 0 {
		return stats, nil
	}

	query := fmt.Sprintf(`
		SELECT record_id, COUNT(*), AVG(rating)
		FROM reviews
		WHERE status = 'approved' AND record_id IN (%s)
		GROUP BY record_id`,
		placeholders(len(ids)),
	)
	rows, err := s.db.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("computing review stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recordID int64
		var count int
		var avg float64
		if err := rows.Scan(&recordID, &count, &avg); err != nil {
			return nil, fmt.Errorf("scanning review stats: %w", err)
		}
		stats[recordID] = directory.ReviewStats{
			Count:     count,
			AvgRating: math.Round(avg*10) / 10,
		}
	}
	return stats, rows.Err()
}

// DeleteByRecord removes every review attached to the given record.
func (s *Store) DeleteByRecord(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE record_id = ?`, id); err != nil {
		return fmt.Errorf("deleting reviews for record %d: %w", id, err)
	}
	return nil
}

// DefineTerm registers a term name so detail views can resolve it.
func (s *Store) DefineTerm(ctx context.Context, taxonomy directory.Taxonomy, termID int64, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO terms (taxonomy, term_id, name)
		VALUES (?, ?, ?)
		ON CONFLICT(taxonomy, term_id) DO UPDATE SET name = excluded.name`,
		string(taxonomy), termID, name,
	)
	if err != nil {
		return fmt.Errorf("defining term %d: %w", termID, err)
	}
	return nil
}

// Terms returns the term ids assigned to a record for one taxonomy.
func (s *Store) Terms(ctx context.Context, recordID int64, taxonomy directory.Taxonomy) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT term_id FROM term_assignments
		WHERE taxonomy = ? AND record_id = ?
		ORDER BY term_id`,
		string(taxonomy), recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying terms: %w", err)
	}
	defer rows.Close()

	var terms []int64
	for rows.Next() {
		var term int64
		if err := rows.Scan(&term); err != nil {
			return nil, fmt.Errorf("scanning term: %w", err)
		}
		terms = append(terms, term)
	}
	return terms, rows.Err()
}

// TermsMany returns the term ids for each of the given records.
func (s *Store) TermsMany(ctx context.Context, recordIDs []int64, taxonomy directory.Taxonomy) (map[int64][]int64, error) {
	terms := make(map[int64][]int64, len(recordIDs))
	if len(recordIDs) == 0 {
		return terms, nil
	}

	query := fmt.Sprintf(`
		SELECT record_id, term_id FROM term_assignments
		WHERE taxonomy = ? AND record_id IN (%s)
		ORDER BY record_id, term_id`,
		placeholders(len(recordIDs)),
	)
	args := append([]any{string(taxonomy)}, int64Args(recordIDs)...)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying terms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recordID, term int64
		if err := rows.Scan(&recordID, &term); err != nil {
			return nil, fmt.Errorf("scanning term: %w", err)
		}
		terms[recordID] = append(terms[recordID], term)
	}
	return terms, rows.Err()
}

// UnionAssign adds the given terms to a record's set, keeping existing
// assignments, and returns how many were newly added.
func (s *Store) UnionAssign(ctx context.Context, recordID int64, taxonomy directory.Taxonomy, termIDs []int64) (int, error) {
	if len(termIDs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning term assignment: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, term := range termIDs {
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO term_assignments (taxonomy, term_id, record_id)
			VALUES (?, ?, ?)`,
			string(taxonomy), term, recordID,
		)
		if err != nil {
			return 0, fmt.Errorf("assigning term %d: %w", term, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("assigning term %d: %w", term, err)
		}
		added += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing term assignment: %w", err)
	}
	return added, nil
}

// Names resolves term ids to display names. Unknown ids are omitted.
func (s *Store) Names(ctx context.Context, taxonomy directory.Taxonomy, termIDs []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(termIDs))
	if len(termIDs) == 0 {
		return names, nil
	}

	query := fmt.Sprintf(`
		SELECT term_id, name FROM terms
		WHERE taxonomy = ? AND term_id IN (%s)`,
		placeholders(len(termIDs)),
	)
	args := append([]any{string(taxonomy)}, int64Args(termIDs)...)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying term names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var term int64
		var name string
		if err := rows.Scan(&term, &name); err != nil {
			return nil, fmt.Errorf("scanning term name: %w", err)
		}
		names[term] = name
	}
	return names, rows.Err()
}

// SetClaim records ownership of a record, used by seeding and tests.
func (s *Store) SetClaim(ctx context.Context, recordID int64, claim *directory.Claim) error {
	if claim == nil {
		return s.Clear(ctx, recordID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO claims (record_id, owner_id, claimed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(record_id) DO UPDATE SET
			owner_id = excluded.owner_id,
			claimed_at = excluded.claimed_at`,
		recordID, claim.OwnerID, claim.ClaimedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving claim for record %d: %w", recordID, err)
	}
	return nil
}

// Get returns the claim on a record, or nil when unclaimed.
func (s *Store) Get(ctx context.Context, recordID int64) (*directory.Claim, error) {
	claims, err := s.GetMany(ctx, []int64{recordID})
	if err != nil {
		return nil, err
	}
	return claims[recordID], nil
}

// GetMany returns the claims on the given records, omitting unclaimed ones.
func (s *Store) GetMany(ctx context.Context, recordIDs []int64) (map[int64]*directory.Claim, error) {
	claims := make(map[int64]*directory.Claim, len(recordIDs))
	if len(recordIDs) == 0 {
		return claims, nil
	}

	query := fmt.Sprintf(
		`SELECT record_id, owner_id, claimed_at FROM claims WHERE record_id IN (%s)`,
		placeholders(len(recordIDs)),
	)
	rows, err := s.db.QueryContext(ctx, query, int64Args(recordIDs)...)
	if err != nil {
		return nil, fmt.Errorf("querying claims: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recordID, ownerID int64
		var claimedAt string
		if err := rows.Scan(&recordID, &ownerID, &claimedAt); err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		claim := &directory.Claim{OwnerID: ownerID}
		if claimedAt != "" {
			parsed, err := time.Parse(time.RFC3339Nano, claimedAt)
			if err != nil {
				return nil, fmt.Errorf("parsing claim timestamp %q: %w", claimedAt, err)
			}
			claim.ClaimedAt = utc.Time{Time: parsed}
		}
		claims[recordID] = claim
	}
	return claims, rows.Err()
}

// Transfer moves the claim on fromID to toID. A no-op when fromID is
// unclaimed.
func (s *Store) Transfer(ctx context.Context, fromID, toID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning claim transfer: %w", err)
	}
	defer tx.Rollback()

	var ownerID int64
	var claimedAt string
	err = tx.QueryRowContext(ctx,
		`SELECT owner_id, claimed_at FROM claims WHERE record_id = ?`, fromID,
	).Scan(&ownerID, &claimedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return fmt.Errorf("reading claim on record %d: %w", fromID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM claims WHERE record_id = ?`, fromID); err != nil {
		return fmt.Errorf("clearing claim on record %d: %w", fromID, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO claims (record_id, owner_id, claimed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(record_id) DO UPDATE SET
			owner_id = excluded.owner_id,
			claimed_at = excluded.claimed_at`,
		toID, ownerID, claimedAt,
	)
	if err != nil {
		return fmt.Errorf("moving claim to record %d: %w", toID, err)
	}

	return tx.Commit()
}

// Clear removes the claim on a record.
func (s *Store) Clear(ctx context.Context, recordID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM claims WHERE record_id = ?`, recordID); err != nil {
		return fmt.Errorf("clearing claim on record %d: %w", recordID, err)
	}
	return nil
}
