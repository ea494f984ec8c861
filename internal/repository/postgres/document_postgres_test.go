package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"docvault/internal/model"
	"docvault/internal/repository"
)

var docColumns = []string{"id", "user_id", "name", "tag", "description", "filename", "filepath", "mimetype", "filesize", "created_at", "updated_at"}

func docRow(id, userID int64) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(docColumns).
		AddRow(id, userID, "report", "work", "quarterly report", "report.pdf", "documents/abc.pdf", "application/pdf", int64(1024), now, now)
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	doc := &model.Document{
		UserID:      7,
		Name:        "report",
		Tag:         "work",
		Description: "quarterly report",
		Filename:    "report.pdf",
		Filepath:    "documents/abc.pdf",
		Mimetype:    "application/pdf",
		Filesize:    1024,
	}

	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(doc.UserID, doc.Name, doc.Tag, doc.Description, doc.Filename, doc.Filepath, doc.Mimetype, doc.Filesize).
		WillReturnRows(docRow(1, 7))

	result, err := repo.Create(ctx, doc)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, int64(1), result.ID)
	assert.Equal(t, int64(7), result.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = \\$1 AND user_id = \\$2").
			WithArgs(int64(1), int64(7)).
			WillReturnRows(docRow(1, 7))

		doc, err := repo.FindByID(ctx, 1, 7)

		assert.NoError(t, err)
		assert.NotNil(t, doc)
		assert.Equal(t, int64(1), doc.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = \\$1 AND user_id = \\$2").
			WithArgs(int64(99), int64(7)).
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FindByID(ctx, 99, 7)

		assert.Error(t, err)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, doc)
	})

	t.Run("owned by someone else", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = \\$1 AND user_id = \\$2").
			WithArgs(int64(1), int64(8)).
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FindByID(ctx, 1, 8)

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, doc)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPredicate(t *testing.T) {
	tests := []struct {
		name      string
		query     repository.ListQuery
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "no filter",
			query:     repository.ListQuery{UserID: 7},
			wantWhere: "user_id = $1",
			wantArgs:  []any{int64(7)},
		},
		{
			name:      "search only",
			query:     repository.ListQuery{UserID: 7, Search: "rep"},
			wantWhere: "user_id = $1 AND (name ILIKE $2 OR description ILIKE $2 OR tag ILIKE $2)",
			wantArgs:  []any{int64(7), "%rep%"},
		},
		{
			name:      "tag only",
			query:     repository.ListQuery{UserID: 7, Tag: "work"},
			wantWhere: "user_id = $1 AND tag = $2",
			wantArgs:  []any{int64(7), "work"},
		},
		{
			name:      "search and tag",
			query:     repository.ListQuery{UserID: 7, Search: "rep", Tag: "work"},
			wantWhere: "user_id = $1 AND tag = $2 AND (name ILIKE $3 OR description ILIKE $3)",
			wantArgs:  []any{int64(7), "work", "%rep%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := listPredicate(tt.query)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestDocumentPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("no filter", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents WHERE user_id = \\$1").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

		mock.ExpectQuery("SELECT (.+) FROM documents WHERE user_id = \\$1 ORDER BY id ASC LIMIT \\$2 OFFSET \\$3").
			WithArgs(int64(7), 10, 0).
			WillReturnRows(docRow(1, 7))

		res, err := repo.List(ctx, repository.ListQuery{UserID: 7, Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 12, res.Total)
		assert.Len(t, res.Items, 1)
	})

	t.Run("search and tag", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents WHERE user_id = \\$1 AND tag = \\$2 AND \\(name ILIKE \\$3 OR description ILIKE \\$3\\)").
			WithArgs(int64(7), "work", "%rep%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		mock.ExpectQuery("SELECT (.+) FROM documents WHERE user_id = \\$1 AND tag = \\$2 AND \\(name ILIKE \\$3 OR description ILIKE \\$3\\) ORDER BY id ASC LIMIT \\$4 OFFSET \\$5").
			WithArgs(int64(7), "work", "%rep%", 10, 20).
			WillReturnRows(docRow(1, 7))

		res, err := repo.List(ctx, repository.ListQuery{UserID: 7, Search: "rep", Tag: "work", Limit: 10, Offset: 20})

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Len(t, res.Items, 1)
	})

	t.Run("empty page", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		mock.ExpectQuery("SELECT (.+) FROM documents WHERE user_id = \\$1 ORDER BY id ASC").
			WithArgs(int64(7), 10, 0).
			WillReturnRows(sqlmock.NewRows(docColumns))

		res, err := repo.List(ctx, repository.ListQuery{UserID: 7, Limit: 10})

		assert.NoError(t, err)
		assert.Equal(t, 0, res.Total)
		assert.NotNil(t, res.Items)
		assert.Empty(t, res.Items)
	})

	t.Run("count error", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
			WithArgs(int64(7)).
			WillReturnError(errors.New("db down"))

		res, err := repo.List(ctx, repository.ListQuery{UserID: 7, Limit: 10})

		assert.Error(t, err)
		assert.Nil(t, res)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_UpdateFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	name := "renamed"
	tag := "personal"

	t.Run("partial update", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET name = \\$1, updated_at = now\\(\\) WHERE id = \\$2 AND user_id = \\$3").
			WithArgs(name, int64(1), int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateFields(ctx, 1, 7, repository.DocumentUpdate{Name: &name})

		assert.NoError(t, err)
	})

	t.Run("two fields", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET name = \\$1, tag = \\$2, updated_at = now\\(\\) WHERE id = \\$3 AND user_id = \\$4").
			WithArgs(name, tag, int64(1), int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateFields(ctx, 1, 7, repository.DocumentUpdate{Name: &name, Tag: &tag})

		assert.NoError(t, err)
	})

	t.Run("no rows", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET").
			WithArgs(name, int64(99), int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateFields(ctx, 99, 7, repository.DocumentUpdate{Name: &name})

		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("deleted", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM documents WHERE id = \\$1 AND user_id = \\$2").
			WithArgs(int64(1), int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, 1, 7))
	})

	t.Run("missing row is not an error", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM documents WHERE id = \\$1 AND user_id = \\$2").
			WithArgs(int64(99), int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.Delete(ctx, 99, 7))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_DistinctTags(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"tag"}).AddRow("personal").AddRow("work")
	mock.ExpectQuery("SELECT DISTINCT tag").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	tags, err := repo.DistinctTags(ctx, 7)

	assert.NoError(t, err)
	assert.Equal(t, []string{"personal", "work"}, tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}
