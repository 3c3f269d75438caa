package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/localindex/dedupe/pkg/directory"
	"github.com/localindex/dedupe/pkg/errors"
)

const visibleStatuses = `('published', 'draft', 'pending')`

// GetByIDs returns the records for the given ids, skipping unknown ids.
// Results come back in ascending id order.
func (s *Store) GetByIDs(ctx context.Context, ids []int64) ([]*directory.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		`SELECT data FROM records WHERE id IN (%s) ORDER BY id`,
		placeholders(len(ids)),
	)
	rows, err := s.db.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Scan returns up to limit visible records, ordered by id.
func (s *Store) Scan(ctx context.Context, limit int) ([]*directory.Record, error) {
	query := `SELECT data FROM records WHERE status IN ` + visibleStatuses + ` ORDER BY id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scanning records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]*directory.Record, error) {
	var records []*directory.Record
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning record row: %w", err)
		}
		record := &directory.Record{}
		if err := json.Unmarshal(data, record); err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// GroupByField buckets visible records by the given field in SQL,
// returning only buckets with at least two members, largest first.
func (s *Store) GroupByField(ctx context.Context, field directory.Field, limit int) ([]directory.FieldGroup, error) {
	var query string
	switch field {
	case directory.FieldTitle:
		query = `
			SELECT title, '', group_concat(id)
			FROM records
			WHERE status IN ` + visibleStatuses + ` AND title != ''
			GROUP BY title
			HAVING COUNT(*) > 1
			ORDER BY COUNT(*) DESC, title`
	case directory.FieldTitleCity:
		if !s.TableExists(ctx, directory.TableLocations) {
			return nil, nil
		}
		query = `
			SELECT r.title, l.city, group_concat(r.id)
			FROM records r
			JOIN locations l ON l.record_id = r.id
			WHERE r.status IN ` + visibleStatuses + ` AND r.title != '' AND l.city != ''
			GROUP BY r.title, l.city
			HAVING COUNT(*) > 1
			ORDER BY COUNT(*) DESC, r.title, l.city`
	case directory.FieldTitleAddress:
		if !s.TableExists(ctx, directory.TableLocations) {
			return nil, nil
		}
		query = `
			SELECT r.title, l.address, group_concat(r.id)
			FROM records r
			JOIN locations l ON l.record_id = r.id
			WHERE r.status IN ` + visibleStatuses + ` AND r.title != '' AND l.address != ''
			GROUP BY r.title, l.address
			HAVING COUNT(*) > 1
			ORDER BY COUNT(*) DESC, r.title, l.address`
	default:
		return nil, errors.NewValidationError("field", field, "not groupable")
	}

	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("grouping records by %s: %w", field, err)
	}
	defer rows.Close()

	var groups []directory.FieldGroup
	for rows.Next() {
		var first, second, concat string
		if err := rows.Scan(&first, &second, &concat); err != nil {
			return nil, fmt.Errorf("scanning group row: %w", err)
		}
		ids, err := parseIDList(concat)
		if err != nil {
			return nil, err
		}
		values := []string{first}
		if field != directory.FieldTitle {
			values = append(values, second)
		}
		groups = append(groups, directory.FieldGroup{Values: values, IDs: ids})
	}
	return groups, rows.Err()
}

func parseIDList(concat string) ([]int64, error) {
	parts := strings.Split(concat, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing grouped id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	// group_concat order is unspecified; keep group membership stable.
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Save persists the full state of a record, upserting both the document
// and the denormalized location row.
func (s *Store) Save(ctx context.Context, record *directory.Record) error {
	if record == nil || record.ID == 0 {
		return errors.NewValidationError("record", record, "must have an id")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding record %d: %w", record.ID, err)
	}

	// Resolve before BeginTx: the pool holds a single connection, so a
	// query on s.db inside the transaction would wait on itself.
	hasLocations := s.TableExists(ctx, directory.TableLocations)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (id, title, status, created_at, modified_at, data)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			status = excluded.status,
			created_at = excluded.created_at,
			modified_at = excluded.modified_at,
			data = excluded.data`,
		record.ID, record.Title, string(record.Status),
		record.CreatedAt.Format(time.RFC3339Nano),
		record.ModifiedAt.Format(time.RFC3339Nano),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("saving record %d: %w", record.ID, err)
	}

	if hasLocations {
		if _, err := tx.ExecContext(ctx, `DELETE FROM locations WHERE record_id = ?`, record.ID); err != nil {
			return fmt.Errorf("clearing location for record %d: %w", record.ID, err)
		}
		if record.Location != nil {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO locations (record_id, address, city, state, zip)
				VALUES (?, ?, ?, ?, ?)`,
				record.ID, record.Location.Address, record.Location.City,
				record.Location.State, record.Location.Zip,
			)
			if err != nil {
				return fmt.Errorf("saving location for record %d: %w", record.ID, err)
			}
		}
	}

	return tx.Commit()
}

// Delete permanently removes a record along with its location, taxonomy
// assignments, and claim. Reviews are left to the review store.
func (s *Store) Delete(ctx context.Context, id int64) error {
	hasLocations := s.TableExists(ctx, directory.TableLocations)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting record %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting record %d: %w", id, err)
	}
	if affected == 0 {
		return errors.NewNotFoundError("record", id)
	}

	if hasLocations {
		if _, err := tx.ExecContext(ctx, `DELETE FROM locations WHERE record_id = ?`, id); err != nil {
			return fmt.Errorf("deleting location for record %d: %w", id, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM term_assignments WHERE record_id = ?`, id); err != nil {
		return fmt.Errorf("deleting assignments for record %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM claims WHERE record_id = ?`, id); err != nil {
		return fmt.Errorf("deleting claim for record %d: %w", id, err)
	}

	return tx.Commit()
}
