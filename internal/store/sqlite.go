package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/eldtechnologies/intake/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS submissions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at);
CREATE INDEX IF NOT EXISTS idx_submissions_email ON submissions(email);
`

// SQLiteStore handles SQLite database operations.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/intake.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/intake.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w: %v", ErrUnavailable, err)
	}

	db, err := sqlx.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open: %w: %v", ErrUnavailable, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w: %v", ErrUnavailable, err)
	}

	store := &SQLiteStore{db: db}

	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// EnsureSchema creates the submissions table and its indexes if they are
// missing.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return s.wrap("ensure schema", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w: %v", ErrUnavailable, err)
	}
	return nil
}

// CreateSubmission inserts one submission and reads the row back so the
// caller sees the id and created_at the database assigned.
func (s *SQLiteStore) CreateSubmission(ctx context.Context, name, email, message string) (*models.Submission, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (name, email, message)
		VALUES (?, ?, ?)
	`, name, email, message)
	if err != nil {
		return nil, s.wrap("create submission", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, s.wrap("create submission", err)
	}

	var sub models.Submission
	err = s.db.GetContext(ctx, &sub, `
		SELECT id, name, email, COALESCE(message, '') AS message, created_at
		FROM submissions WHERE id = ?
	`, id)
	if err != nil {
		return nil, s.wrap("create submission", err)
	}
	return &sub, nil
}

// ListSubmissions retrieves submissions newest first, with pagination.
func (s *SQLiteStore) ListSubmissions(ctx context.Context, limit, offset int) ([]models.Submission, error) {
	var subs []models.Submission
	err := s.db.SelectContext(ctx, &subs, `
		SELECT id, name, email, COALESCE(message, '') AS message, created_at
		FROM submissions
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, s.wrap("list submissions", err)
	}
	return subs, nil
}

// CountSubmissions returns the total number of stored submissions.
func (s *SQLiteStore) CountSubmissions(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM submissions`)
	if err != nil {
		return 0, s.wrap("count submissions", err)
	}
	return total, nil
}

// Describe reports the submissions table layout via PRAGMA table_info.
func (s *SQLiteStore) Describe(ctx context.Context) ([]Column, error) {
	var rows []struct {
		CID     int            `db:"cid"`
		Name    string         `db:"name"`
		Type    string         `db:"type"`
		NotNull int            `db:"notnull"`
		Default sql.NullString `db:"dflt_value"`
		PK      int            `db:"pk"`
	}
	if err := s.db.SelectContext(ctx, &rows, `PRAGMA table_info(submissions)`); err != nil {
		return nil, s.wrap("describe", err)
	}

	cols := make([]Column, 0, len(rows))
	for _, row := range rows {
		cols = append(cols, Column{
			Name:     row.Name,
			Type:     row.Type,
			Nullable: row.NotNull == 0,
			Default:  row.Default.String,
		})
	}
	return cols, nil
}

// wrap tags connection-class failures with ErrUnavailable; everything else
// passes through as a plain persistence error.
func (s *SQLiteStore) wrap(op string, err error) error {
	if isSQLiteConnErr(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isSQLiteConnErr(err error) bool {
	return errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		isNetworkErr(err)
}
