package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const defaultAuditPath = "audit/audit.sqlite"

// Event types written by the CLI.
const (
	IngestStarted  = "ingest_started"
	IngestFinished = "ingest_finished"
	PlanStarted    = "plan_started"
	PlanFinished   = "plan_finished"
)

// Logger writes audit events to a specific SQLite DB path. Every event from
// one Logger shares its RunID.
type Logger struct {
	DBPath string
	RunID  string
}

// Event is one stored audit record.
type Event struct {
	ID          int64
	RunID       string
	Timestamp   time.Time
	Actor       string
	Type        string
	PayloadJSON string
}

// NewLogger returns a Logger bound to the provided DB path with a fresh run id.
func NewLogger(dbPath string) *Logger {
	return &Logger{DBPath: dbPath, RunID: uuid.NewString()}
}

// LogEvent writes an audit event to the configured SQLite-backed log.
func (l *Logger) LogEvent(ctx context.Context, actor string, eventType string, payload any) error {
	if l == nil {
		return fmt.Errorf("audit logger is nil")
	}
	resolved, err := resolveDBPath(l.DBPath)
	if err != nil {
		return err
	}
	return writeEvent(ctx, resolved, l.RunID, actor, eventType, payload)
}

// Events returns stored events in insertion order. An empty eventType
// matches every event.
func (l *Logger) Events(ctx context.Context, eventType string) ([]Event, error) {
	resolved, err := resolveDBPath(l.DBPath)
	if err != nil {
		return nil, err
	}
	return ReadEvents(ctx, resolved, eventType)
}

// ReadEvents reads events from the audit DB at dbPath.
func ReadEvents(ctx context.Context, dbPath string, eventType string) ([]Event, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := ensureSchema(ctx, db); err != nil {
		return nil, err
	}

	query := "SELECT id, run_id, ts, actor, type, payload_json FROM events"
	var args []any
	if eventType != "" {
		query += " WHERE type = ?"
		args = append(args, eventType)
	}
	query += " ORDER BY id ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var ts string
		if err := rows.Scan(&e.ID, &e.RunID, &ts, &e.Actor, &e.Type, &e.PayloadJSON); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			ts TEXT NOT NULL,
			actor TEXT NOT NULL,
			type TEXT NOT NULL,
			payload_json TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

func resolveDBPath(dbPath string) (string, error) {
	if dbPath == "" {
		dbPath = os.Getenv("PRODPLAN_AUDIT_DB")
	}
	if dbPath == "" {
		dbPath = defaultAuditPath
	}
	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return "", fmt.Errorf("resolve audit db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", fmt.Errorf("ensure audit db dir: %w", err)
	}
	return absPath, nil
}

func writeEvent(ctx context.Context, dbPath, runID, actor, eventType string, payload any) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open audit db: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := ensureSchema(ctx, db); err != nil {
		return err
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = db.ExecContext(ctx,
		"INSERT INTO events (run_id, ts, actor, type, payload_json) VALUES (?, ?, ?, ?, ?)",
		runID,
		time.Now().UTC().Format(time.RFC3339Nano),
		actor,
		eventType,
		string(payloadJSON),
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	return nil
}
