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

// SaveItem inserts or updates an item and replaces its claims in one transaction.
func (s *SQLiteStore) SaveItem(ctx context.Context, item *models.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO items (id, event_id, name, quantity, unit_price, total_price)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   quantity = excluded.quantity,
		   unit_price = excluded.unit_price,
		   total_price = excluded.total_price`,
		item.ID, item.EventID, item.Name, item.Quantity, item.UnitPrice, item.TotalPrice,
	)
	if err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM item_claims WHERE item_id = ?", item.ID); err != nil {
		return fmt.Errorf("failed to clear item claims: %w", err)
	}
	for _, c := range item.Claims {
		if !c.Quantity.IsPositive() {
			continue
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO item_claims (item_id, person_id, quantity) VALUES (?, ?, ?)",
			item.ID, c.PersonID, c.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to insert claim: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetItem retrieves an item with its claims.
func (s *SQLiteStore) GetItem(ctx context.Context, itemID string) (*models.Item, error) {
	item := &models.Item{Claims: []models.Claim{}}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, event_id, name, quantity, unit_price, total_price FROM items WHERE id = ?",
		itemID,
	).Scan(&item.ID, &item.EventID, &item.Name, &item.Quantity, &item.UnitPrice, &item.TotalPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", itemID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT person_id, quantity FROM item_claims WHERE item_id = ? ORDER BY rowid",
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get item claims: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Claim
		if err := rows.Scan(&c.PersonID, &c.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		item.Claims = append(item.Claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claims: %w", err)
	}
	return item, nil
}

// ListItems retrieves all items of an event with their claims.
func (s *SQLiteStore) ListItems(ctx context.Context, eventID string) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_id, name, quantity, unit_price, total_price
		 FROM items WHERE event_id = ? ORDER BY rowid`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	index := make(map[string]int)
	for rows.Next() {
		item := models.Item{Claims: []models.Claim{}}
		if err := rows.Scan(&item.ID, &item.EventID, &item.Name, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		index[item.ID] = len(items)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	claimRows, err := s.db.QueryContext(ctx,
		`SELECT c.item_id, c.person_id, c.quantity
		 FROM item_claims c JOIN items i ON i.id = c.item_id
		 WHERE i.event_id = ? ORDER BY c.rowid`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer claimRows.Close()

	for claimRows.Next() {
		var itemID string
		var c models.Claim
		if err := claimRows.Scan(&itemID, &c.PersonID, &c.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		if i, ok := index[itemID]; ok {
			items[i].Claims = append(items[i].Claims, c)
		}
	}
	if err := claimRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claims: %w", err)
	}
	return items, nil
}

// DeleteItem removes an item and its claims.
func (s *SQLiteStore) DeleteItem(ctx context.Context, itemID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM item_claims WHERE item_id = ?", itemID); err != nil {
		return fmt.Errorf("failed to delete item claims: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM items WHERE id = ?", itemID)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("item %s: %w", itemID, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
