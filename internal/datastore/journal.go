package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aleister1102/monsterwatch/internal/common"
	"github.com/aleister1102/monsterwatch/internal/models"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// DefaultRecentLimit is used by RecentEvents when limit is not positive
const DefaultRecentLimit = 50

// MaxRecentLimit caps a single RecentEvents query
const MaxRecentLimit = 1000

// Journal stores delivered events and heartbeat snapshots in SQLite.
type Journal struct {
	db     *sql.DB
	logger zerolog.Logger
}

// EventRecord is one row of the events table
type EventRecord struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	URL        string    `json:"url,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Reason     *string   `json:"reason,omitempty"`
	Status     *int      `json:"status,omitempty"`
	Body       *string   `json:"body,omitempty"`
	OldLen     *int      `json:"old_len,omitempty"`
	NewLen     *int      `json:"new_len,omitempty"`
}

// OpenJournal opens (creating if needed) the journal database at path.
func OpenJournal(path string, logger zerolog.Logger) (*Journal, error) {
	logger = logger.With().Str("component", "Journal").Logger()
	logger.Info().Str("db_path", path).Msg("Initializing journal database connection")

	dbDir := filepath.Dir(path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal database directory %s: %w", dbDir, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed for %s: %w", path, err)
	}
	// one writer keeps SQLite from reporting SQLITE_BUSY
	db.SetMaxOpenConns(1)

	j := &Journal{db: db, logger: logger}
	if err := j.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	logger.Info().Str("path", path).Msg("Journal initialized and schema verified")
	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

func (j *Journal) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		url TEXT,
		occurred_at INTEGER NOT NULL,
		reason TEXT,
		status INTEGER,
		body TEXT,
		old_len INTEGER,
		new_len INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_events_occurred_at ON events (occurred_at);
	CREATE TABLE IF NOT EXISTS heartbeats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		taken_at INTEGER NOT NULL,
		payload TEXT NOT NULL
	);
	`
	if _, err := j.db.Exec(query); err != nil {
		j.logger.Error().Err(err).Msg("Failed to initialize schema")
		return err
	}
	return nil
}

// RecordEvent inserts ev. NoChanges events are not journaled.
func (j *Journal) RecordEvent(ctx context.Context, ev models.Event) error {
	var (
		reason         sql.NullString
		status         sql.NullInt64
		body           sql.NullString
		oldLen, newLen sql.NullInt64
	)

	switch e := ev.(type) {
	case models.StartupEvent:
		urls, err := json.Marshal(e.URLs)
		if err != nil {
			return common.WrapError(err, "encoding startup urls")
		}
		body = sql.NullString{String: string(urls), Valid: true}
	case models.ChangedEvent:
		oldLen = sql.NullInt64{Int64: int64(len(e.Old)), Valid: true}
		newLen = sql.NullInt64{Int64: int64(len(e.New)), Valid: true}
	case models.FailedEvent:
		reason = sql.NullString{String: e.Reason, Valid: true}
		if e.Status != nil {
			status = sql.NullInt64{Int64: int64(*e.Status), Valid: true}
		}
		if e.Body != nil {
			body = sql.NullString{String: *e.Body, Valid: true}
		}
	default:
		return nil
	}

	meta := ev.Meta()
	query := `INSERT INTO events (id, kind, url, occurred_at, reason, status, body, old_len, new_len) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := j.db.ExecContext(ctx, query,
		meta.ID, string(ev.Kind()), ev.TargetURL(), meta.OccurredAt.UnixNano(),
		reason, status, body, oldLen, newLen)
	if err != nil {
		return fmt.Errorf("failed to insert %s event %s: %w", ev.Kind(), meta.ID, err)
	}

	j.logger.Debug().Str("event_id", meta.ID).Str("kind", string(ev.Kind())).Msg("Recorded event")
	return nil
}

// RecordHeartbeat stores a snapshot as JSON.
func (j *Journal) RecordHeartbeat(ctx context.Context, hb models.Heartbeat, takenAt time.Time) error {
	payload, err := json.Marshal(hb)
	if err != nil {
		return common.WrapError(err, "encoding heartbeat")
	}

	_, err = j.db.ExecContext(ctx, `INSERT INTO heartbeats (taken_at, payload) VALUES (?, ?)`, takenAt.UnixNano(), string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert heartbeat: %w", err)
	}
	return nil
}

// RecentEvents returns up to limit events, newest first.
func (j *Journal) RecentEvents(ctx context.Context, limit int) ([]EventRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	query := `SELECT id, kind, url, occurred_at, reason, status, body, old_len, new_len FROM events ORDER BY occurred_at DESC, rowid DESC LIMIT ?`
	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	records := make([]EventRecord, 0, limit)
	for rows.Next() {
		var (
			rec            EventRecord
			url            sql.NullString
			occurredAt     int64
			reason, body   sql.NullString
			status         sql.NullInt64
			oldLen, newLen sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &rec.Kind, &url, &occurredAt, &reason, &status, &body, &oldLen, &newLen); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		rec.URL = url.String
		rec.OccurredAt = time.Unix(0, occurredAt).UTC()
		rec.Reason = nullString(reason)
		rec.Body = nullString(body)
		rec.Status = nullInt(status)
		rec.OldLen = nullInt(oldLen)
		rec.NewLen = nullInt(newLen)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event rows: %w", err)
	}
	return records, nil
}

// LatestHeartbeat returns the most recent snapshot. ok is false when none was stored.
func (j *Journal) LatestHeartbeat(ctx context.Context) (hb models.Heartbeat, takenAt time.Time, ok bool, err error) {
	var (
		takenAtNano int64
		payload     string
	)
	err = j.db.QueryRowContext(ctx, `SELECT taken_at, payload FROM heartbeats ORDER BY id DESC LIMIT 1`).Scan(&takenAtNano, &payload)
	if err == sql.ErrNoRows {
		return models.Heartbeat{}, time.Time{}, false, nil
	}
	if err != nil {
		return models.Heartbeat{}, time.Time{}, false, fmt.Errorf("failed to query latest heartbeat: %w", err)
	}

	if err := json.Unmarshal([]byte(payload), &hb); err != nil {
		return models.Heartbeat{}, time.Time{}, false, common.WrapError(err, "decoding heartbeat")
	}
	return hb, time.Unix(0, takenAtNano).UTC(), true, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
