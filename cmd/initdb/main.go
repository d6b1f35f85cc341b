package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/intake/internal/config"
	"github.com/eldtechnologies/intake/internal/store"
)

// initdb creates the submissions table (waiting for the database to come
// up first) and prints the resulting layout. Meant to run as a one-shot
// container before the server starts.
func main() {
	retries := flag.Int("retries", 10, "connection attempts before giving up")
	delay := flag.Duration("delay", 30*time.Second, "wait between attempts")
	flag.Parse()

	cfg := config.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger()

	backend := "sqlite"
	if cfg.UsePostgres() {
		backend = "postgres"
	}

	manager := store.NewManager(store.NewOpenFunc(cfg.DatabaseURL, cfg.SQLitePath), store.Options{
		Attempts: *retries,
		Backoff:  *delay,
	}, logger)
	defer manager.Close()

	ctx := context.Background()
	logger.Info().
		Str("backend", backend).
		Int("retries", *retries).
		Dur("delay", *delay).
		Msg("initializing database")

	if err := manager.Connect(ctx); err != nil {
		logger.Error().Err(err).Msg("database initialization failed")
		os.Exit(1)
	}

	cols, err := manager.Describe(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("could not describe submissions table")
		os.Exit(1)
	}

	total, err := manager.CountSubmissions(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("could not count submissions")
		os.Exit(1)
	}

	fmt.Printf("Table submissions (%s backend, %d rows):\n", backend, total)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Column", "Type", "Nullable", "Default"})
	for _, col := range cols {
		nullable := "NO"
		if col.Nullable {
			nullable = "YES"
		}
		table.Append([]string{col.Name, col.Type, nullable, col.Default})
	}
	table.Render()
}
