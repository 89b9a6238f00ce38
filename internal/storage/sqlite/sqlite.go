// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/hppanpaliya/FairShare-AI/internal/models"
	"github.com/hppanpaliya/FairShare-AI/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)
var _ storage.PersonRemover = (*SQLiteStore)(nil)

// pragmas are applied to every pooled connection through the DSN.
const pragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath+pragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveEvent inserts or updates an event.
func (s *SQLiteStore) SaveEvent(ctx context.Context, event *models.Event) error {
	// Generate ID if not set
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt == 0 {
		event.CreatedAt = time.Now().Unix()
	}

	var billImage interface{} = nil
	if event.BillImage != "" {
		billImage = event.BillImage
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, name, created_at, tax, tip, tax_split_mode, tip_split_mode, bill_image, bill_parsed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   tax = excluded.tax,
		   tip = excluded.tip,
		   tax_split_mode = excluded.tax_split_mode,
		   tip_split_mode = excluded.tip_split_mode,
		   bill_image = excluded.bill_image,
		   bill_parsed = excluded.bill_parsed`,
		event.ID, event.Name, event.CreatedAt, event.Tax, event.Tip,
		string(event.TaxSplitMode), string(event.TipSplitMode), billImage, event.BillParsed,
	)
	if err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

// GetEvent retrieves an event by ID.
func (s *SQLiteStore) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event := &models.Event{}
	var taxMode, tipMode string
	var billImage sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, tax, tip, tax_split_mode, tip_split_mode, bill_image, bill_parsed
		 FROM events WHERE id = ?`,
		eventID,
	).Scan(&event.ID, &event.Name, &event.CreatedAt, &event.Tax, &event.Tip,
		&taxMode, &tipMode, &billImage, &event.BillParsed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", eventID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	event.TaxSplitMode = models.SplitMode(taxMode)
	event.TipSplitMode = models.SplitMode(tipMode)
	if billImage.Valid {
		event.BillImage = billImage.String
	}
	return event, nil
}
