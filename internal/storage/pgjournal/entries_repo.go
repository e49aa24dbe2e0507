package pgjournal

import (
	"context"
	"time"

	"github.com/BearBump/PickupBox/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

type ListFilter struct {
	OwnerKey    string
	ContainerID string
	Limit       int
	Offset      int
}

type Stats struct {
	Entries      int64
	LastOccurred *time.Time
}

// InsertEntries stores entries in one transaction. Entries whose event id is
// already stored are skipped; the number of new rows is returned.
func (s *Storage) InsertEntries(ctx context.Context, entries []*models.JournalEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inserted := 0
	for _, e := range entries {
		tag, err := tx.Exec(ctx, `
INSERT INTO journal_entries (
  event_id, event_type, owner_key, point_id, container_id,
  pickup_id, day, cadence, detail, occurred_at, created_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10, now())
ON CONFLICT (event_id) DO NOTHING
`, e.EventID, e.EventType, e.OwnerKey, e.PointID, e.ContainerID,
			e.PickupID, e.Day, e.Cadence, e.Detail, e.OccurredAt.UTC())
		if err != nil {
			return 0, errors.Wrap(err, "insert journal entry")
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, errors.Wrap(err, "commit tx")
	}
	return inserted, nil
}

func (s *Storage) ListEntries(ctx context.Context, f ListFilter) ([]*models.JournalEntry, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	rows, err := s.db.Query(ctx, `
SELECT
  id, event_id, event_type, owner_key, point_id, container_id,
  pickup_id, day, cadence, detail, occurred_at, created_at
FROM journal_entries
WHERE ($1 = '' OR owner_key = $1)
  AND ($2 = '' OR container_id = $2)
ORDER BY occurred_at DESC, id DESC
LIMIT $3 OFFSET $4
`, f.OwnerKey, f.ContainerID, f.Limit, f.Offset)
	if err != nil {
		return nil, errors.Wrap(err, "select journal entries")
	}
	defer rows.Close()

	var out []*models.JournalEntry
	for rows.Next() {
		var e models.JournalEntry
		if err := rows.Scan(
			&e.ID, &e.EventID, &e.EventType, &e.OwnerKey, &e.PointID, &e.ContainerID,
			&e.PickupID, &e.Day, &e.Cadence, &e.Detail, &e.OccurredAt, &e.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan journal entry")
		}
		if e.Day != nil {
			d := e.Day.UTC()
			e.Day = &d
		}
		out = append(out, &e)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// PurgeBefore deletes entries that occurred before cutoff.
func (s *Storage) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM journal_entries WHERE occurred_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "purge journal")
	}
	return tag.RowsAffected(), nil
}

func (s *Storage) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRow(ctx, `SELECT count(*), max(occurred_at) FROM journal_entries`).Scan(&st.Entries, &st.LastOccurred)
	if err != nil {
		return Stats{}, errors.Wrap(err, "journal stats")
	}
	return st, nil
}
