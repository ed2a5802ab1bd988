package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"honeytrap/internal/infrastructure/database"
	"honeytrap/internal/intel"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS intel_indicators (
	session_id TEXT        NOT NULL,
	category   TEXT        NOT NULL,
	value      TEXT        NOT NULL,
	first_seen TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_seen  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (session_id, category, value)
);
CREATE INDEX IF NOT EXISTS intel_indicators_value_idx ON intel_indicators (category, value);
`

const upsertIndicatorSQL = `
INSERT INTO intel_indicators (session_id, category, value, first_seen, last_seen)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (session_id, category, value) DO UPDATE SET last_seen = EXCLUDED.last_seen`

const listBySessionSQL = `
SELECT category, value FROM intel_indicators
WHERE session_id = $1
ORDER BY category, value`

// Indicator is one archived identifier row
type Indicator struct {
	SessionID string
	Category  intel.Category
	Value     string
}

// IntelligenceRepository archives session aggregates in PostgreSQL
type IntelligenceRepository struct {
	db  *database.PostgresDB
	now func() time.Time
}

// NewIntelligenceRepository creates a new intelligence repository
func NewIntelligenceRepository(db *database.PostgresDB) *IntelligenceRepository {
	return &IntelligenceRepository{db: db, now: time.Now}
}

// EnsureSchema creates the indicator table if it does not exist
func (r *IntelligenceRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Pool().Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create intel schema: %w", err)
	}
	return nil
}

// Archive upserts every value of the aggregate in one transaction.
// Re-archiving a value only moves its last_seen forward.
func (r *IntelligenceRepository) Archive(ctx context.Context, sessionID string, rec intel.Record) error {
	rows := indicatorRows(sessionID, rec)
	if len(rows) == 0 {
		return nil
	}
	seen := r.now().UTC()

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		return upsertIndicators(ctx, tx, rows, seen)
	})
}

// ListBySession returns everything archived for a session as a record
func (r *IntelligenceRepository) ListBySession(ctx context.Context, sessionID string) (intel.Record, error) {
	rows, err := r.db.Pool().Query(ctx, listBySessionSQL, sessionID)
	if err != nil {
		return intel.Record{}, fmt.Errorf("failed to query indicators: %w", err)
	}
	defer rows.Close()

	values := make(map[intel.Category][]string)
	for rows.Next() {
		var category, value string
		if err := rows.Scan(&category, &value); err != nil {
			return intel.Record{}, fmt.Errorf("failed to scan indicator: %w", err)
		}
		c, err := intel.ParseCategory(category)
		if err != nil {
			// rows written by a newer build
			continue
		}
		values[c] = append(values[c], value)
	}
	if err := rows.Err(); err != nil {
		return intel.Record{}, fmt.Errorf("failed to read indicators: %w", err)
	}

	return intel.NewRecord(values)
}

func upsertIndicators(ctx context.Context, q database.DBTX, rows []Indicator, seen time.Time) error {
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(upsertIndicatorSQL, row.SessionID, string(row.Category), row.Value, seen)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for _, row := range rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert %s %q: %w", row.Category, row.Value, err)
		}
	}
	return nil
}

// indicatorRows flattens a record in canonical category order
func indicatorRows(sessionID string, rec intel.Record) []Indicator {
	var rows []Indicator
	for _, c := range rec.NonEmpty() {
		for _, v := range rec.Get(c) {
			rows = append(rows, Indicator{SessionID: sessionID, Category: c, Value: v})
		}
	}
	return rows
}
