package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docvault/internal/cache"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/storage"
)

var (
	// ErrNotFound covers every case the caller may not distinguish: the id
	// does not exist, the document belongs to another user, or the metadata
	// row points at a missing blob.
	ErrNotFound  = errors.New("document not found")
	ErrReaderNil = errors.New("reader is nil")
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

// CreateDocumentInput carries the metadata fields of a new document plus the
// attributes of the uploaded file. The owner is never part of the input; it
// comes from the authenticated identity.
type CreateDocumentInput struct {
	Name        string
	Tag         string
	Description string
	Filename    string
	ContentType string
	Size        int64
}

// UpdateDocumentInput is a partial field merge: nil fields stay untouched.
// Blob attributes are not updatable after creation.
type UpdateDocumentInput struct {
	Name        *string
	Tag         *string
	Description *string
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Data  []model.Document `json:"data"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// DocumentService defines the use cases for handling documents. Every
// operation takes the authenticated owner's userID and never returns or
// touches another user's rows.
type DocumentService interface {
	// Upload stores the blob, then persists the metadata row; a failed
	// insert rolls the blob back.
	Upload(ctx context.Context, userID int64, in CreateDocumentInput, r io.Reader) (*model.Document, error)

	// List returns one page of the owner's documents. page is 1-indexed;
	// search and tag are optional filters with the precedence described on
	// repository.FilterKind.
	List(ctx context.Context, userID int64, page, limit int, search, tag string) (*DocumentListResult, error)

	// ListTags returns the owner's distinct non-empty tags.
	ListTags(ctx context.Context, userID int64) ([]string, error)

	// Get returns a single document by id and owner.
	Get(ctx context.Context, id, userID int64) (*model.Document, error)

	// Update applies a partial metadata merge and returns the re-fetched row.
	Update(ctx context.Context, id, userID int64, in UpdateDocumentInput) (*model.Document, error)

	// Delete removes blob then metadata row.
	Delete(ctx context.Context, id, userID int64) error

	// Download streams the blob with its metadata.
	Download(ctx context.Context, id, userID int64) (io.ReadCloser, *model.Document, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store storage.Storage
	repo  repository.DocumentRepository
	cache cache.DocumentCache // nil when caching is disabled
	log   *zap.Logger
}

// NewDocumentService constructs a new DocumentService. docCache may be nil.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, docCache cache.DocumentCache, log *zap.Logger) DocumentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &documentService{store: store, repo: repo, cache: docCache, log: log}
}

func (s *documentService) Upload(ctx context.Context, userID int64, in CreateDocumentInput, r io.Reader) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	// Blob key is UUID + original extension; the original filename survives
	// only in metadata.
	ext := filepath.Ext(in.Filename)
	key := filepath.ToSlash(filepath.Join("documents", uuid.New().String()+ext))

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: in.ContentType,
		Metadata: map[string]string{
			"original-filename": in.Filename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	doc := &model.Document{
		UserID:      userID,
		Name:        in.Name,
		Tag:         in.Tag,
		Description: in.Description,
		Filename:    in.Filename,
		Filepath:    objInfo.Key,
		Mimetype:    in.ContentType,
		Filesize:    objInfo.Size,
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Rollback: delete the blob so storage and metadata stay consistent.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	s.cacheSet(ctx, stored)
	return stored, nil
}

// List normalizes pagination and maps the request onto an owner-scoped
// repository query. The pre-pagination total is returned alongside the page.
func (s *documentService) List(ctx context.Context, userID int64, page, limit int, search, tag string) (*DocumentListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	res, err := s.repo.List(ctx, repository.ListQuery{
		UserID: userID,
		Search: search,
		Tag:    tag,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Data: res.Items, Total: res.Total, Page: page, Limit: limit}, nil
}

func (s *documentService) ListTags(ctx context.Context, userID int64) ([]string, error) {
	return s.repo.DistinctTags(ctx, userID)
}

// Get serves from the metadata cache when possible, falling back to the
// repository. The cache key includes the owner, so a hit is always
// tenant-correct.
func (s *documentService) Get(ctx context.Context, id, userID int64) (*model.Document, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id, userID)
		if err != nil {
			s.log.Warn("document cache read failed", zap.Int64("id", id), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	doc, err := s.repo.FindByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.cacheSet(ctx, doc)
	return doc, nil
}

// Update re-validates ownership, merges only the provided fields and
// returns the row re-fetched from the repository. The check-then-write pair
// is not atomic end to end; a concurrent delete surfaces as sql.ErrNoRows
// from the update statement.
func (s *documentService) Update(ctx context.Context, id, userID int64, in UpdateDocumentInput) (*model.Document, error) {
	current, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	upd := repository.DocumentUpdate{Name: in.Name, Tag: in.Tag, Description: in.Description}
	if upd.IsZero() {
		return current, nil
	}

	if err := s.repo.UpdateFields(ctx, id, userID, upd); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// Read-after-write: return what the database holds, not what we merged
	// in memory.
	updated, err := s.repo.FindByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.cacheSet(ctx, updated)
	return updated, nil
}

// Delete removes the blob before the metadata row. If the blob deletion
// fails the row stays, so the document remains discoverable and the delete
// can be retried. The opposite window (blob gone, row delete fails) is the
// accepted failure mode.
func (s *documentService) Delete(ctx context.Context, id, userID int64) error {
	doc, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}

	if doc.Filepath != "" {
		exists, err := s.store.Exists(ctx, doc.Filepath)
		if err != nil {
			return fmt.Errorf("check blob: %w", err)
		}
		if exists {
			if err := s.store.Delete(ctx, doc.Filepath); err != nil {
				return fmt.Errorf("delete storage: %w", err)
			}
		}
	}

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.cacheDelete(ctx, id, userID)
	return nil
}

// Download streams the blob. A metadata row whose blob is missing is a
// consistency violation and surfaces as ErrNotFound, never as an empty
// stream.
func (s *documentService) Download(ctx context.Context, id, userID int64) (io.ReadCloser, *model.Document, error) {
	doc, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, nil, err
	}

	rc, _, err := s.store.Get(ctx, doc.Filepath)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("open blob: %w", err)
	}
	return rc, doc, nil
}

func (s *documentService) cacheSet(ctx context.Context, doc *model.Document) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, doc); err != nil {
		s.log.Warn("document cache write failed", zap.Int64("id", doc.ID), zap.Error(err))
	}
}

func (s *documentService) cacheDelete(ctx context.Context, id, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id, userID); err != nil {
		s.log.Warn("document cache invalidation failed", zap.Int64("id", id), zap.Error(err))
	}
}
