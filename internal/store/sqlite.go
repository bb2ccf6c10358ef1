package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/carlitos-finanzas/carlitos/internal/ledger"
	"github.com/carlitos-finanzas/carlitos/internal/progress"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	profileKey = "profile"
	lessonsKey = "lessons"
)

// SQLiteStore keeps state in a single sqlite file.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// OpenSQLite opens or creates the database at path and applies the schema.
func OpenSQLite(logger *zap.Logger, path string) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps pragmas and writes consistent.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path, logger: logger}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Debug("opened local store",
		zap.String("op", "store.OpenSQLite"),
		zap.String("path", path),
	)
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	PRAGMA journal_mode = WAL;
	PRAGMA busy_timeout = 5000;

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		date DATETIME NOT NULL,
		category TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);

	CREATE TABLE IF NOT EXISTS goals (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		kind TEXT NOT NULL,
		target TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS documents (
		key TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) SaveTransaction(ctx context.Context, tx ledger.Transaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, kind, amount, date, category, note)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			amount = excluded.amount,
			date = excluded.date,
			category = excluded.category,
			note = excluded.note`,
		tx.ID.String(), string(tx.Kind), tx.Amount.String(), tx.Date.UTC().Format(time.RFC3339Nano), tx.Category, tx.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to save transaction %s: %w", tx.ID, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, "transactions", "transaction", id)
}

func (s *SQLiteStore) ListTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, kind, amount, date, category, note FROM transactions ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		var (
			id, kind, amount, date string
			tx                     ledger.Transaction
		)
		if err := rows.Scan(&id, &kind, &amount, &date, &tx.Category, &tx.Note); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if tx.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid transaction id %q: %w", id, err)
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("invalid amount for transaction %s: %w", id, err)
		}
		if tx.Date, err = time.Parse(time.RFC3339Nano, date); err != nil {
			return nil, fmt.Errorf("invalid date for transaction %s: %w", id, err)
		}
		tx.Kind = ledger.Kind(kind)
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveGoal(ctx context.Context, goal ledger.Goal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (id, title, kind, target, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			kind = excluded.kind,
			target = excluded.target`,
		goal.ID.String(), goal.Title, string(goal.Kind), goal.Target.String(), goal.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save goal %s: %w", goal.ID, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteGoal(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, "goals", "goal", id)
}

func (s *SQLiteStore) ListGoals(ctx context.Context) ([]ledger.Goal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, kind, target, created_at FROM goals ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var out []ledger.Goal
	for rows.Next() {
		var (
			id, kind, target, created string
			goal                      ledger.Goal
		)
		if err := rows.Scan(&id, &goal.Title, &kind, &target, &created); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		if goal.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid goal id %q: %w", id, err)
		}
		if goal.Target, err = decimal.NewFromString(target); err != nil {
			return nil, fmt.Errorf("invalid target for goal %s: %w", id, err)
		}
		if goal.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("invalid creation date for goal %s: %w", id, err)
		}
		goal.Kind = ledger.GoalKind(kind)
		out = append(out, goal)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) LoadProfile(ctx context.Context) (progress.Profile, bool, error) {
	var profile progress.Profile
	ok, err := s.loadDocument(ctx, profileKey, &profile)
	return profile, ok, err
}

func (s *SQLiteStore) SaveProfile(ctx context.Context, profile progress.Profile) error {
	return s.saveDocument(ctx, profileKey, profile)
}

func (s *SQLiteStore) LoadLessons(ctx context.Context) (map[string]progress.LessonState, error) {
	var lessons map[string]progress.LessonState
	if _, err := s.loadDocument(ctx, lessonsKey, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

func (s *SQLiteStore) SaveLessons(ctx context.Context, lessons map[string]progress.LessonState) error {
	return s.saveDocument(ctx, lessonsKey, lessons)
}

func (s *SQLiteStore) deleteByID(ctx context.Context, table, what string, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", what, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", what, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ledger.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) loadDocument(ctx context.Context, key string, v interface{}) (bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (s *SQLiteStore) saveDocument(ctx context.Context, key string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (key, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		key, string(body), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

var _ ledger.Repository = (*SQLiteStore)(nil)
