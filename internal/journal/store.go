// Package journal keeps a local SQLite record of this agent's submitted
// actions and their observed outcomes. It mirrors the backend's history
// for offline review — it is never read back into approval decisions.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/synauth/synauth-go/synauth"
)

const schema = `
CREATE TABLE IF NOT EXISTS action_journal (
	id TEXT PRIMARY KEY,
	request_id TEXT NOT NULL UNIQUE,
	action_type TEXT NOT NULL,
	title TEXT NOT NULL,
	risk_level TEXT NOT NULL,
	amount REAL,
	currency TEXT,
	recipient TEXT,
	status TEXT NOT NULL,
	verified_by TEXT,
	deny_reason TEXT,
	content_hash TEXT,
	submitted_at TEXT NOT NULL,
	resolved_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_journal_status ON action_journal(status);
CREATE INDEX IF NOT EXISTS idx_journal_type ON action_journal(action_type);
`

// Store manages the SQLite action journal.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ synauth.Recorder = (*Store)(nil)

// NewStore opens (or creates) the journal database.
func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("setting WAL mode: %w (also: close: %v)", err, cerr)
		}
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("creating schema: %w (also: close: %v)", err, cerr)
		}
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Record upserts a snapshot keyed by request ID. Repeated snapshots for
// the same request update the status columns; resolved_at is set the
// first time a terminal status is observed. Implements synauth.Recorder.
func (s *Store) Record(ctx context.Context, a *synauth.Action) error {
	now := time.Now().UTC().Format(time.RFC3339)
	var resolvedAt any
	if a.Status.Terminal() {
		resolvedAt = now
	}

	var amount any
	if a.Amount != nil {
		amount = *a.Amount
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO action_journal (
			id, request_id, action_type, title, risk_level, amount, currency,
			recipient, status, verified_by, deny_reason, content_hash,
			submitted_at, resolved_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(request_id) DO UPDATE SET
			status = excluded.status,
			verified_by = excluded.verified_by,
			deny_reason = excluded.deny_reason,
			resolved_at = COALESCE(action_journal.resolved_at, excluded.resolved_at)`,
		uuid.New().String(), a.ID, string(a.ActionType), a.Title,
		string(a.RiskLevel), amount, a.Currency, a.Recipient,
		string(a.Status), a.VerifiedBy, a.DenyReason, a.ContentHash,
		now, resolvedAt,
	)
	if err != nil {
		return fmt.Errorf("recording action %s: %w", a.ID, err)
	}
	s.logger.Debug("journal updated", "request_id", a.ID, "status", a.Status)
	return nil
}

// Entry is one journaled action.
type Entry struct {
	ID          string
	RequestID   string
	ActionType  string
	Title       string
	RiskLevel   string
	Amount      *float64
	Currency    string
	Recipient   string
	Status      string
	VerifiedBy  string
	DenyReason  string
	ContentHash string
	SubmittedAt string
	ResolvedAt  string
}

// QueryOpts filters journal queries. Zero values mean no filter.
type QueryOpts struct {
	Status     string
	ActionType string
	Limit      int
}

// Query returns journal entries, newest first.
func (s *Store) Query(opts QueryOpts) ([]Entry, error) {
	query := `SELECT id, request_id, action_type, title, risk_level, amount,
		currency, recipient, status, verified_by, deny_reason, content_hash,
		submitted_at, resolved_at
		FROM action_journal WHERE 1=1`
	var args []any

	if opts.Status != "" {
		query += " AND status = ?"
		args = append(args, opts.Status)
	}
	if opts.ActionType != "" {
		query += " AND action_type = ?"
		args = append(args, opts.ActionType)
	}
	query += " ORDER BY submitted_at DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var amount sql.NullFloat64
		var currency, recipient, verifiedBy, denyReason, contentHash, resolvedAt sql.NullString
		if err := rows.Scan(
			&e.ID, &e.RequestID, &e.ActionType, &e.Title, &e.RiskLevel,
			&amount, &currency, &recipient, &e.Status, &verifiedBy,
			&denyReason, &contentHash, &e.SubmittedAt, &resolvedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		if amount.Valid {
			e.Amount = &amount.Float64
		}
		e.Currency = currency.String
		e.Recipient = recipient.String
		e.VerifiedBy = verifiedBy.String
		e.DenyReason = denyReason.String
		e.ContentHash = contentHash.String
		e.ResolvedAt = resolvedAt.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
