package repository

import (
	"context"

	"docvault/internal/model"
)

// FilterKind identifies which predicate shape a ListQuery maps to. The four
// shapes have different semantics and must not be collapsed into one ad hoc
// condition: when both search and tag are present the tag stops being a
// free-text target and becomes an exact-match constraint.
type FilterKind int

const (
	// FilterNone matches all documents of the owner.
	FilterNone FilterKind = iota
	// FilterSearchOnly substring-matches name, description and tag.
	FilterSearchOnly
	// FilterTagOnly exact-matches the tag.
	FilterTagOnly
	// FilterSearchAndTag exact-matches the tag and substring-matches
	// name and description only.
	FilterSearchAndTag
)

// ListQuery describes one page of an owner-scoped document listing.
// UserID is mandatory by construction: every implementation ANDs it with
// whatever else the query carries, so a listing can never cross tenants.
type ListQuery struct {
	UserID int64
	Search string
	Tag    string
	Limit  int
	Offset int
}

// Kind selects the predicate shape for the query's search/tag combination.
func (q ListQuery) Kind() FilterKind {
	switch {
	case q.Search != "" && q.Tag != "":
		return FilterSearchAndTag
	case q.Search != "":
		return FilterSearchOnly
	case q.Tag != "":
		return FilterTagOnly
	default:
		return FilterNone
	}
}

// DocumentUpdate carries a partial field merge: only non-nil fields are
// written. Blob attributes and the owner are not representable here on
// purpose; they are immutable after creation.
type DocumentUpdate struct {
	Name        *string
	Tag         *string
	Description *string
}

// IsZero reports whether the update would change nothing.
func (u DocumentUpdate) IsZero() bool {
	return u.Name == nil && u.Tag == nil && u.Description == nil
}

// PageResult is a generic pagination result wrapper.
// Total is the number of rows matching the filter before pagination.
type PageResult[T any] struct {
	Items []T
	Total int
}

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here — strictly persistence operations. Every read and
// write that refers to an existing row takes the owner's userID and scopes
// the statement by it.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row,
	// including values assigned by the database (id, timestamps).
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns the document with the given id owned by userID.
	// A missing row and a row owned by someone else are indistinguishable:
	// both surface as sql.ErrNoRows.
	FindByID(ctx context.Context, id, userID int64) (*model.Document, error)

	// List returns one page of documents matching the query plus the total
	// row count for the same filter.
	List(ctx context.Context, q ListQuery) (*PageResult[model.Document], error)

	// UpdateFields applies a partial merge to the row owned by userID and
	// refreshes updated_at. It returns sql.ErrNoRows if no row matched.
	UpdateFields(ctx context.Context, id, userID int64, upd DocumentUpdate) error

	// Delete removes the row owned by userID. It returns nil if the row was
	// deleted or did not exist.
	Delete(ctx context.Context, id, userID int64) error

	// DistinctTags returns the set of distinct, non-null, non-empty tag
	// values across the owner's documents.
	DistinctTags(ctx context.Context, userID int64) ([]string, error)
}
