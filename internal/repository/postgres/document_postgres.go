package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
//
// Substring matching uses ILIKE, so "contains" is case-insensitive. Listings
// are ordered by id ascending so pagination is reproducible across calls.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = "id, user_id, name, tag, description, filename, filepath, mimetype, filesize, created_at, updated_at"

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Name,
		&d.Tag,
		&d.Description,
		&d.Filename,
		&d.Filepath,
		&d.Mimetype,
		&d.Filesize,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (user_id, name, tag, description, filename, filepath, mimetype, filesize)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.UserID,
		doc.Name,
		doc.Tag,
		doc.Description,
		doc.Filename,
		doc.Filepath,
		doc.Mimetype,
		doc.Filesize,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by primary key and owner. A row owned
// by a different user yields sql.ErrNoRows, same as a nonexistent id.
func (r *DocumentPostgres) FindByID(ctx context.Context, id, userID int64) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1 AND user_id = $2
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, id, userID))
}

// listPredicate builds the WHERE clause for the query's filter shape.
// The ownership predicate always comes first and is ANDed with the rest.
func listPredicate(q repository.ListQuery) (string, []any) {
	where := "user_id = $1"
	args := []any{q.UserID}

	switch q.Kind() {
	case repository.FilterSearchAndTag:
		where += " AND tag = $2 AND (name ILIKE $3 OR description ILIKE $3)"
		args = append(args, q.Tag, "%"+q.Search+"%")
	case repository.FilterSearchOnly:
		where += " AND (name ILIKE $2 OR description ILIKE $2 OR tag ILIKE $2)"
		args = append(args, "%"+q.Search+"%")
	case repository.FilterTagOnly:
		where += " AND tag = $2"
		args = append(args, q.Tag)
	}

	return where, args
}

// List returns one page of documents plus the pre-pagination total for the
// same filter.
func (r *DocumentPostgres) List(ctx context.Context, q repository.ListQuery) (*repository.PageResult[model.Document], error) {
	where, args := listPredicate(q)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE "+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	listQuery := fmt.Sprintf(
		"SELECT %s FROM documents WHERE %s ORDER BY id ASC LIMIT $%d OFFSET $%d",
		documentColumns, where, len(args)+1, len(args)+2,
	)
	rows, err := r.db.QueryContext(ctx, listQuery, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// UpdateFields applies a partial merge. Only non-nil fields are written;
// updated_at is always refreshed. Returns sql.ErrNoRows if the row does not
// exist or is owned by someone else.
func (r *DocumentPostgres) UpdateFields(ctx context.Context, id, userID int64, upd repository.DocumentUpdate) error {
	sets := []string{}
	args := []any{}

	add := func(col string, v *string) {
		if v != nil {
			args = append(args, *v)
			sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
		}
	}
	add("name", upd.Name)
	add("tag", upd.Tag)
	add("description", upd.Description)
	sets = append(sets, "updated_at = now()")

	args = append(args, id, userID)
	q := fmt.Sprintf(
		"UPDATE documents SET %s WHERE id = $%d AND user_id = $%d",
		strings.Join(sets, ", "), len(args)-1, len(args),
	)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a document owned by userID. It does not return an error if
// the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id, userID int64) error {
	const q = `DELETE FROM documents WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// DistinctTags returns the owner's distinct non-empty tag values.
func (r *DocumentPostgres) DistinctTags(ctx context.Context, userID int64) ([]string, error) {
	const q = `
		SELECT DISTINCT tag
		FROM documents
		WHERE user_id = $1 AND tag IS NOT NULL AND tag <> ''
		ORDER BY tag ASC
	`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}
