package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eldtechnologies/intake/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS submissions (
	id BIGSERIAL PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	email VARCHAR(100) NOT NULL,
	message TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions (created_at);
CREATE INDEX IF NOT EXISTS idx_submissions_email ON submissions (email);
`

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w: %v", ErrUnavailable, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w: %v", ErrUnavailable, err)
	}

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the submissions table and its indexes if they are
// missing. Safe to run on every startup.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return s.wrap("ensure schema", err)
	}
	return nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w: %v", ErrUnavailable, err)
	}
	return nil
}

// CreateSubmission inserts one submission and returns it with the id and
// created_at assigned by the database.
func (s *PostgresStore) CreateSubmission(ctx context.Context, name, email, message string) (*models.Submission, error) {
	sub := &models.Submission{Name: name, Email: email, Message: message}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO submissions (name, email, message)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, name, email, message).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return nil, s.wrap("create submission", err)
	}
	return sub, nil
}

// ListSubmissions retrieves submissions newest first, with pagination.
func (s *PostgresStore) ListSubmissions(ctx context.Context, limit, offset int) ([]models.Submission, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, email, COALESCE(message, '') AS message, created_at
		FROM submissions
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, s.wrap("list submissions", err)
	}
	defer rows.Close()

	var subs []models.Submission
	for rows.Next() {
		var sub models.Submission
		err := rows.Scan(
			&sub.ID,
			&sub.Name,
			&sub.Email,
			&sub.Message,
			&sub.CreatedAt,
		)
		if err != nil {
			return nil, s.wrap("list submissions", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("list submissions", err)
	}

	return subs, nil
}

// CountSubmissions returns the total number of stored submissions.
func (s *PostgresStore) CountSubmissions(ctx context.Context) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM submissions`).Scan(&total)
	if err != nil {
		return 0, s.wrap("count submissions", err)
	}
	return total, nil
}

// Describe reports the submissions table layout from the catalog.
func (s *PostgresStore) Describe(ctx context.Context) ([]Column, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable, COALESCE(column_default, '')
		FROM information_schema.columns
		WHERE table_name = 'submissions'
		ORDER BY ordinal_position
	`)
	if err != nil {
		return nil, s.wrap("describe", err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var col Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Default); err != nil {
			return nil, s.wrap("describe", err)
		}
		col.Nullable = nullable == "YES"
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("describe", err)
	}

	return cols, nil
}

// wrap tags connection-class failures with ErrUnavailable so the manager
// knows to drop the handle; everything else passes through as a plain
// persistence error.
func (s *PostgresStore) wrap(op string, err error) error {
	if isPostgresConnErr(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isPostgresConnErr(err error) bool {
	if pgconn.SafeToRetry(err) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	return isNetworkErr(err)
}
