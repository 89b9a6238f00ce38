// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/hppanpaliya/FairShare-AI/internal/models"
)

// ErrNotFound is returned (wrapped) when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for event, item and person persistence.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the billing layer.
//
// Claims are persisted as part of their item. Nothing in the store ties a
// claim to an existing person; callers sweep claims with
// DeleteClaimsForPerson before deleting a person.
type Store interface {
	// GetEvent retrieves an event by its ID.
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)

	// SaveEvent inserts or updates an event.
	SaveEvent(ctx context.Context, event *models.Event) error

	// ListItems returns every item of an event with its claims, in insertion order.
	ListItems(ctx context.Context, eventID string) ([]models.Item, error)

	// GetItem retrieves an item with its claims.
	GetItem(ctx context.Context, itemID string) (*models.Item, error)

	// SaveItem inserts or updates an item and replaces its claims.
	SaveItem(ctx context.Context, item *models.Item) error

	// DeleteItem removes an item and all of its claims.
	DeleteItem(ctx context.Context, itemID string) error

	// ListPeople returns every person of an event, in insertion order.
	ListPeople(ctx context.Context, eventID string) ([]models.Person, error)

	// GetPerson retrieves a person by ID.
	GetPerson(ctx context.Context, personID string) (*models.Person, error)

	// SavePerson inserts or updates a person.
	SavePerson(ctx context.Context, person *models.Person) error

	// DeletePerson removes a person. It does not touch claims.
	DeletePerson(ctx context.Context, personID string) error

	// DeleteClaimsForPerson removes the person's claims from every item of the event.
	DeleteClaimsForPerson(ctx context.Context, eventID, personID string) error

	// Close releases any resources held by the store.
	Close() error
}

// PersonRemover is implemented by stores that can sweep a person's claims
// and delete the person in one transaction. Billing prefers it over
// DeleteClaimsForPerson followed by DeletePerson.
type PersonRemover interface {
	RemovePersonWithClaims(ctx context.Context, eventID, personID string) error
}
