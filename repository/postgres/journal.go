package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fastygo/bizdesk/domain"
)

// DB is the subset of *pgxpool.Pool the journal needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// JournalEntry is one stored event.
type JournalEntry struct {
	ID          string                 `json:"id"`
	AggregateID string                 `json:"aggregateId"`
	Type        string                 `json:"type"`
	Attributes  map[string]interface{} `json:"attributes"`
	Metadata    domain.Metadata        `json:"metadata"`
	OccurredOn  time.Time              `json:"occurredOn"`
	RecordedAt  time.Time              `json:"recordedAt"`
}

// Journal appends events to an append-only table so the projection service can replay them.
type Journal struct {
	db    DB
	table string
}

// NewJournal returns a journal writing to table (see assets/migrations).
func NewJournal(db DB, table string) *Journal {
	if table == "" {
		table = "domain_events"
	}
	return &Journal{db: db, table: pgx.Identifier{table}.Sanitize()}
}

// Append stores evt. Appending the same event id twice is a no-op so relays may retry.
func (j *Journal) Append(ctx context.Context, evt *domain.Event) error {
	if evt == nil {
		return domain.ErrInvalidPayload
	}
	attrs, err := marshalJSON(evt.Data.Attributes)
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}
	metadata, err := marshalJSON(evt.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	query := `
	INSERT INTO ` + j.table + ` (id, aggregate_id, type, attributes, metadata, occurred_on)
	VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
	ON CONFLICT (id) DO NOTHING
	`
	_, err = j.db.Exec(ctx, query,
		evt.Data.ID,
		evt.AggregateID(),
		evt.Type(),
		attrs,
		metadata,
		nullTime(evt.Data.OccurredOn),
	)
	return err
}

// ListByAggregate returns the events of one aggregate in recording order, at
// most limit of them (1000 when limit is out of range).
func (j *Journal) ListByAggregate(ctx context.Context, aggregateID string, limit int) ([]JournalEntry, error) {
	query := `
	SELECT id, aggregate_id, type, attributes, metadata, occurred_on, recorded_at
	FROM ` + j.table + `
	WHERE aggregate_id = $1
	ORDER BY seq ASC
	LIMIT $2
	`
	rows, err := j.db.Query(ctx, query, aggregateID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func scanEntry(row interface {
	Scan(dest ...interface{}) error
}) (*JournalEntry, error) {
	var (
		entry    JournalEntry
		attrs    []byte
		metadata []byte
	)
	if err := row.Scan(
		&entry.ID,
		&entry.AggregateID,
		&entry.Type,
		&attrs,
		&metadata,
		&entry.OccurredOn,
		&entry.RecordedAt,
	); err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &entry.Attributes); err != nil {
			return nil, fmt.Errorf("decode attributes of %s: %w", entry.ID, err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of %s: %w", entry.ID, err)
		}
	}
	return &entry, nil
}
