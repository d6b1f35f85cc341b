package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "intake.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestSQLiteCreateAssignsIDAndTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// CURRENT_TIMESTAMP has second precision, so compare against a
	// truncated lower bound.
	before := time.Now().UTC().Truncate(time.Second)

	first, err := s.CreateSubmission(ctx, "Ana", "ana@example.com", "hello")
	require.NoError(t, err)
	require.Equal(t, int64(1), first.ID)
	require.Equal(t, "Ana", first.Name)
	require.Equal(t, "ana@example.com", first.Email)
	require.Equal(t, "hello", first.Message)
	require.False(t, first.CreatedAt.Before(before), "created_at %v earlier than %v", first.CreatedAt, before)

	second, err := s.CreateSubmission(ctx, "Ben", "ben@example.com", "")
	require.NoError(t, err)
	require.Equal(t, int64(2), second.ID)
	require.False(t, second.CreatedAt.Before(first.CreatedAt))
}

func TestSQLiteListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		_, err := s.CreateSubmission(ctx, name, name+"@example.com", "")
		require.NoError(t, err)
	}

	all, err := s.ListSubmissions(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "third", all[0].Name)
	require.Equal(t, "second", all[1].Name)
	require.Equal(t, "first", all[2].Name)

	page, err := s.ListSubmissions(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, int64(3), page[0].ID)
	require.Equal(t, int64(2), page[1].ID)

	rest, err := s.ListSubmissions(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Equal(t, int64(1), rest[0].ID)

	past, err := s.ListSubmissions(ctx, 10, 5)
	require.NoError(t, err)
	require.Empty(t, past)
}

func TestSQLiteEmptyMessageStored(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sub, err := s.CreateSubmission(ctx, "Ana", "ana@example.com", "")
	require.NoError(t, err)
	require.Equal(t, "", sub.Message)

	listed, err := s.ListSubmissions(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "", listed[0].Message)
}

func TestSQLiteCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	total, err := s.CountSubmissions(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), total)

	for i := 0; i < 2; i++ {
		_, err := s.CreateSubmission(ctx, "Ana", "ana@example.com", "")
		require.NoError(t, err)
	}

	total, err = s.CountSubmissions(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
}

func TestSQLiteDescribe(t *testing.T) {
	s := newTestStore(t)

	cols, err := s.Describe(context.Background())
	require.NoError(t, err)
	require.Len(t, cols, 5)

	names := make([]string, 0, len(cols))
	byName := make(map[string]Column, len(cols))
	for _, col := range cols {
		names = append(names, col.Name)
		byName[col.Name] = col
	}
	require.Equal(t, []string{"id", "name", "email", "message", "created_at"}, names)

	require.False(t, byName["name"].Nullable)
	require.False(t, byName["email"].Nullable)
	require.True(t, byName["message"].Nullable)
	require.Equal(t, "CURRENT_TIMESTAMP", byName["created_at"].Default)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "intake.db")

	s, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	_, err = s.CreateSubmission(ctx, "Ana", "ana@example.com", "keep me")
	require.NoError(t, err)
	s.Close()

	reopened, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	total, err := reopened.CountSubmissions(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
}
