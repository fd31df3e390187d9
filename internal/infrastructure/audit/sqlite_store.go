package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/macdiet-go/internal/domain"
	"github.com/doeshing/macdiet-go/internal/pkg/cmdline"
	"github.com/doeshing/macdiet-go/internal/ports"
)

// SQLiteStore keeps audit events in a SQLite database so they can be listed
// and searched.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteStore creates (or opens) the history database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.PrivateDirectoryPermissions); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history db: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS audit_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id TEXT UNIQUE,
		timestamp TEXT,
		command TEXT,
		status TEXT,
		action_id TEXT,
		risk_level TEXT,
		summary TEXT,
		payload TEXT
	);`)
	return err
}

// Emit implements ports.AuditSink.
func (s *SQLiteStore) Emit(ctx context.Context, event domain.AuditEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `INSERT INTO audit_events
		(event_id, timestamp, command, status, action_id, risk_level, summary, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.EventID,
		event.FinishedAt.UTC().Format(time.RFC3339Nano),
		event.Command,
		event.Status,
		event.ActionID,
		eventRisk(event),
		Summarize(event),
		string(payload),
	)
	return err
}

// Records returns the most recent events first (limit/search optional).
func (s *SQLiteStore) Records(limit int, search string) ([]domain.AuditRecord, error) {
	builder := strings.Builder{}
	builder.WriteString("SELECT event_id, timestamp, command, status, action_id, risk_level, summary, payload FROM audit_events")
	var args []interface{}
	if search != "" {
		builder.WriteString(" WHERE action_id LIKE ? OR summary LIKE ? OR status LIKE ?")
		like := "%" + search + "%"
		args = append(args, like, like, like)
	}
	builder.WriteString(" ORDER BY id DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	rows, err := s.db.Query(builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.AuditRecord
	for rows.Next() {
		var rec domain.AuditRecord
		var ts string
		if err := rows.Scan(&rec.EventID, &ts, &rec.Command, &rec.Status, &rec.ActionID, &rec.RiskLevel, &rec.Summary, &rec.Payload); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			rec.Timestamp = t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ExportJSONL writes every stored event payload to dest, oldest first.
func (s *SQLiteStore) ExportJSONL(dest string) error {
	records, err := s.Records(0, "")
	if err != nil {
		return err
	}
	file, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, domain.SecureFilePermissions)
	if err != nil {
		return err
	}
	defer file.Close()
	for i := len(records) - 1; i >= 0; i-- {
		if _, err := file.WriteString(records[i].Payload + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Clear deletes all stored events.
func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM audit_events")
	return err
}

// Path returns the sqlite database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close implements ports.AuditSink.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Summarize renders a one-line description of event.
func Summarize(event domain.AuditEvent) string {
	switch {
	case event.Outcome != nil:
		return fmt.Sprintf("moved=%d skipped_missing=%d errors=%d",
			len(event.Outcome.Moved), len(event.Outcome.SkippedMissing), len(event.Outcome.Errors))
	case event.Attempt != nil:
		line := cmdline.Format(event.Attempt.Cmd, event.Attempt.Args)
		if event.Attempt.ExitCode != nil {
			return fmt.Sprintf("%s (exit_code=%d)", line, *event.Attempt.ExitCode)
		}
		if event.Attempt.Error != "" {
			return fmt.Sprintf("%s (%s)", line, event.Attempt.Error)
		}
		return line
	}
	return event.Command
}

func eventRisk(event domain.AuditEvent) string {
	if event.RiskLevel != "" {
		return event.RiskLevel
	}
	return event.MaxRisk
}

var (
	_ ports.AuditSink       = (*SQLiteStore)(nil)
	_ ports.AuditRepository = (*SQLiteStore)(nil)
)
