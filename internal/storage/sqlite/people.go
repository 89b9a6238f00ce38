package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hppanpaliya/FairShare-AI/internal/models"
	"github.com/hppanpaliya/FairShare-AI/internal/storage"
)

// SavePerson inserts or updates a person.
func (s *SQLiteStore) SavePerson(ctx context.Context, person *models.Person) error {
	if person.ID == "" {
		person.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO people (id, event_id, name) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		person.ID, person.EventID, person.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to save person: %w", err)
	}
	return nil
}

// GetPerson retrieves a person by ID.
func (s *SQLiteStore) GetPerson(ctx context.Context, personID string) (*models.Person, error) {
	person := &models.Person{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, event_id, name FROM people WHERE id = ?",
		personID,
	).Scan(&person.ID, &person.EventID, &person.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("person %s: %w", personID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return person, nil
}

// ListPeople retrieves all people of an event in the order they were added.
func (s *SQLiteStore) ListPeople(ctx context.Context, eventID string) ([]models.Person, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, event_id, name FROM people WHERE event_id = ? ORDER BY rowid",
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	defer rows.Close()

	people := []models.Person{}
	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.ID, &p.EventID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate people: %w", err)
	}
	return people, nil
}

// DeletePerson removes a person. Claims must be swept separately.
func (s *SQLiteStore) DeletePerson(ctx context.Context, personID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM people WHERE id = ?", personID)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("person %s: %w", personID, storage.ErrNotFound)
	}
	return nil
}

// RemovePersonWithClaims sweeps the person's claims from every item of the
// event and deletes the person in one transaction. Nothing changes when the
// person does not exist.
func (s *SQLiteStore) RemovePersonWithClaims(ctx context.Context, eventID, personID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteClaimsForPersonSQL, personID, eventID); err != nil {
		return fmt.Errorf("failed to delete claims for person: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM people WHERE id = ? AND event_id = ?", personID, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("person %s: %w", personID, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const deleteClaimsForPersonSQL = `DELETE FROM item_claims
	 WHERE person_id = ? AND item_id IN (SELECT id FROM items WHERE event_id = ?)`

// DeleteClaimsForPerson removes the person's claims from every item of the event.
func (s *SQLiteStore) DeleteClaimsForPerson(ctx context.Context, eventID, personID string) error {
	_, err := s.db.ExecContext(ctx, deleteClaimsForPersonSQL, personID, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete claims for person: %w", err)
	}
	return nil
}
