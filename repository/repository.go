package repository

import (
	"context"
	"errors"
)

var (
	// ErrNoDocument is returned when a lookup matches nothing.
	ErrNoDocument = errors.New("repository: no document")
	// ErrDuplicateID is returned by Create when the id is already taken.
	ErrDuplicateID = errors.New("repository: duplicate id")
)

// Document is implemented by every persisted entity.
type Document interface {
	EntityID() string
	SetEntityID(id string)
}

// Repository is the per-collection CRUD and predicate-query facade over the document store.
// Entities are never hard-deleted; soft deletion is an Update of an "active" flag.
type Repository[T Document] interface {
	FindByID(ctx context.Context, id string) (T, error)
	// Create stores entity, assigning an id when it has none, and returns the stored value.
	Create(ctx context.Context, entity T) (T, error)
	// Update replaces the whole stored document. There is no concurrency token:
	// the last writer wins.
	Update(ctx context.Context, entity T) (T, error)
	Find(ctx context.Context, query Query) ([]T, error)
	FindOne(ctx context.Context, query Query) (T, error)
}

// Collection names in the document store.
const (
	CollectionLeads        = "leads"
	CollectionLeadContacts = "lead_contacts"
	CollectionBookings     = "bookings"
	CollectionRoles        = "roles"
)

// ClampLimit bounds page sizes requested through the API.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}
