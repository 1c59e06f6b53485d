package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/hypergopher/markblog"
)

// timeLayout is fixed width so that created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore keeps newsletter subscribers in a SQLite table.
type SQLiteStore struct {
	db        *sql.DB
	tableName string
}

func New(db *sql.DB, tableName string) *SQLiteStore {
	if tableName == "" {
		tableName = "subscribers"
	}
	return &SQLiteStore{db: db, tableName: tableName}
}

// Init initializes the SQLiteStore, creating the necessary tables or indexes if they do not exist.
func (s *SQLiteStore) Init() error {
	query := `
		-- Table for holding subscribers
		CREATE TABLE IF NOT EXISTS ` + s.tableName + ` (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL UNIQUE,
			interests TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL
		);

		-- Index on created_at
		CREATE INDEX IF NOT EXISTS ` + s.tableName + `_created_at_idx ON ` + s.tableName + `(created_at);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create subscribers table: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Add(ctx context.Context, sub *markblog.Subscriber) error {
	interests, err := json.Marshal(nonNil(sub.Interests))
	if err != nil {
		return fmt.Errorf("failed to serialize interests: %w", err)
	}

	query := `INSERT INTO ` + s.tableName + ` (id, name, email, interests, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		sub.ID,
		sub.Name,
		markblog.NormalizeEmail(sub.Email),
		string(interests),
		sub.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("failed to add subscriber %s: %w", sub.Email, markblog.ErrSubscriberExists)
		}
		return fmt.Errorf("failed to add subscriber %s: %w", sub.Email, err)
	}

	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, email string) (*markblog.Subscriber, error) {
	query := `SELECT id, name, email, interests, created_at FROM ` + s.tableName + ` WHERE email = ?`
	row := s.db.QueryRowContext(ctx, query, markblog.NormalizeEmail(email))

	sub, err := scanSubscriber(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("error getting subscriber %s: %w", email, markblog.ErrSubscriberNotFound)
		}
		return nil, fmt.Errorf("error getting subscriber %s: %w", email, err)
	}

	return sub, nil
}

// List returns all subscribers, oldest first.
func (s *SQLiteStore) List(ctx context.Context) ([]*markblog.Subscriber, error) {
	query := `SELECT id, name, email, interests, created_at FROM ` + s.tableName + ` ORDER BY created_at ASC, rowid ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	subs := make([]*markblog.Subscriber, 0)
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}

	return subs, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, email string) error {
	query := `DELETE FROM ` + s.tableName + ` WHERE email = ?`
	result, err := s.db.ExecContext(ctx, query, markblog.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to delete subscriber %s: %w", email, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete subscriber %s: %w", email, err)
	}

	if n == 0 {
		return fmt.Errorf("failed to delete subscriber %s: %w", email, markblog.ErrSubscriberNotFound)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubscriber(row scanner) (*markblog.Subscriber, error) {
	var (
		sub       markblog.Subscriber
		interests string
		createdAt string
	)

	if err := row.Scan(&sub.ID, &sub.Name, &sub.Email, &interests, &createdAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(interests), &sub.Interests); err != nil {
		return nil, fmt.Errorf("failed to parse interests: %w", err)
	}

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	sub.CreatedAt = t

	return &sub, nil
}

func isConstraintViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
