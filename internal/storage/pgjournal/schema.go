package pgjournal

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS journal_entries (
  id BIGSERIAL PRIMARY KEY,
  event_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  owner_key TEXT NOT NULL,
  point_id TEXT NOT NULL DEFAULT '',
  container_id TEXT NOT NULL DEFAULT '',
  pickup_id TEXT NULL,
  day DATE NULL,
  cadence TEXT NOT NULL DEFAULT '',
  detail TEXT NOT NULL DEFAULT '',
  occurred_at TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		// Kafka delivers at least once.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_journal_entries_event_id ON journal_entries(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_entries_owner_occurred ON journal_entries(owner_key, occurred_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_entries_occurred ON journal_entries(occurred_at)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
