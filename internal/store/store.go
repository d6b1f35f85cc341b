package store

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/eldtechnologies/intake/internal/models"
)

// ErrUnavailable marks failures where the store could not be reached at all:
// dial errors, dropped connections, exhausted startup retries. Every other
// store error means the operation itself was rejected by a reachable store.
var ErrUnavailable = errors.New("store unavailable")

// Store defines the persistence interface for intake submissions.
// PostgresStore, SQLiteStore and Manager all implement it.
type Store interface {
	// CreateSubmission inserts exactly one row and returns it with the
	// store-assigned id and created_at.
	CreateSubmission(ctx context.Context, name, email, message string) (*models.Submission, error)

	// ListSubmissions returns up to limit submissions, newest first.
	ListSubmissions(ctx context.Context, limit, offset int) ([]models.Submission, error)

	// CountSubmissions returns the total number of stored submissions.
	CountSubmissions(ctx context.Context) (int64, error)

	// Describe reports the layout of the submissions table.
	Describe(ctx context.Context) ([]Column, error)

	// Ping checks connectivity without touching any rows.
	Ping(ctx context.Context) error

	Close()
}

// Column describes one column of the submissions table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Default  string
}

// NewOpenFunc builds the dial function for the configured backend:
// Postgres when databaseURL is set, otherwise the SQLite file at
// sqlitePath. The Postgres dialer bootstraps the schema on every dial so
// a reconnect against a freshly provisioned database still works.
func NewOpenFunc(databaseURL, sqlitePath string) OpenFunc {
	if databaseURL != "" {
		return func(ctx context.Context) (Store, error) {
			pg, err := NewPostgresStore(ctx, databaseURL)
			if err != nil {
				return nil, err
			}
			if err := pg.EnsureSchema(ctx); err != nil {
				pg.Close()
				return nil, err
			}
			return pg, nil
		}
	}
	return func(ctx context.Context) (Store, error) {
		return NewSQLiteStore(ctx, sqlitePath)
	}
}

// isNetworkErr reports whether err looks like a transport-level failure,
// independent of the backend driver.
func isNetworkErr(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}
