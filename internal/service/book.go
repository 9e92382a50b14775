package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/bookhive/bookhive/internal/metrics"
	"github.com/bookhive/bookhive/internal/model"
	"github.com/bookhive/bookhive/internal/repository"
)

// Book service errors.
var (
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrInvalidImage  = errors.New("image must be base64-encoded content")
	ErrBlobUpload    = errors.New("image upload failed")
	ErrBookNotFound  = errors.New("book not found")
	ErrNotOwner      = errors.New("caller does not own this book")
)

// Default pagination window. Values above the defaults are accepted
// unclamped.
const (
	DefaultPage  = 1
	DefaultLimit = 5
)

// BookStore is the metadata store the book service depends on.
type BookStore interface {
	CreateBook(ctx context.Context, book *model.Book) error
	GetBookByID(ctx context.Context, id string) (*model.Book, error)
	ListBooks(ctx context.Context, offset, limit int) ([]*model.BookWithOwner, int64, error)
	ListBooksByOwner(ctx context.Context, ownerID string) ([]*model.Book, error)
	DeleteBook(ctx context.Context, id string) error
}

// BlobStore is the external image store the book service depends on.
type BlobStore interface {
	Upload(ctx context.Context, content []byte, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

// BookService orchestrates the book lifecycle: upload-then-persist on
// create, ownership-checked best-effort-cleanup delete.
type BookService struct {
	store   BookStore
	blobs   BlobStore
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewBookService creates a new BookService.
func NewBookService(store BookStore, blobs BlobStore, logger *slog.Logger, recorder metrics.Recorder) *BookService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &BookService{
		store:   store,
		blobs:   blobs,
		logger:  logger,
		metrics: recorder,
	}
}

// CreateBookInput defines input for creating a book. Image carries the
// base64-encoded content, optionally with a data-URI prefix.
type CreateBookInput struct {
	Title   string
	Caption string
	Rating  int
	Image   string
}

// Create uploads the image first and persists the record only on upload
// success, so no book ever exists without a reachable image.
func (s *BookService) Create(ctx context.Context, caller *model.Identity, input CreateBookInput) (*model.Book, error) {
	if input.Title == "" || input.Caption == "" || input.Image == "" || input.Rating == 0 {
		return nil, ErrMissingFields
	}
	if !model.ValidRating(input.Rating) {
		return nil, ErrInvalidRating
	}

	content, contentType, err := decodeImage(input.Image)
	if err != nil {
		return nil, ErrInvalidImage
	}

	imageURL, err := s.blobs.Upload(ctx, content, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBlobUpload, err)
	}

	now := time.Now().UTC()
	book := &model.Book{
		ID:        ulid.Make().String(),
		Title:     input.Title,
		Caption:   input.Caption,
		Rating:    input.Rating,
		Image:     imageURL,
		OwnerID:   caller.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.metrics.IncBookCreated()

	return book, nil
}

// ListBooksOutput is one page of books with pagination metadata.
type ListBooksOutput struct {
	Books       []*model.BookWithOwner
	CurrentPage int
	TotalBooks  int64
	TotalPages  int64
}

// List returns one window of all books, newest first, each enriched with
// its owner's public fields. Page and limit default to 1 and 5; larger
// values are accepted as-is.
func (s *BookService) List(ctx context.Context, page, limit int) (*ListBooksOutput, error) {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	offset := (page - 1) * limit

	books, total, err := s.store.ListBooks(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	return &ListBooksOutput{
		Books:       books,
		CurrentPage: page,
		TotalBooks:  total,
		TotalPages:  (total + int64(limit) - 1) / int64(limit),
	}, nil
}

// ListByOwner returns every book of the caller, newest first.
func (s *BookService) ListByOwner(ctx context.Context, caller *model.Identity) ([]*model.Book, error) {
	books, err := s.store.ListBooksByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("list books by owner: %w", err)
	}
	return books, nil
}

// Delete removes a book. Ownership is checked strictly before any
// destructive step. Blob cleanup is best-effort: its failure is logged and
// counted but never surfaced, because the metadata record is the source of
// truth and an orphaned blob beats a stuck delete. The record deletion is
// the authoritative operation.
func (s *BookService) Delete(ctx context.Context, caller *model.Identity, bookID string) error {
	book, err := s.store.GetBookByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return ErrBookNotFound
		}
		return fmt.Errorf("fetch book: %w", err)
	}

	if book.OwnerID != caller.UserID {
		return ErrNotOwner
	}

	if err := s.blobs.Delete(ctx, book.Image); err != nil {
		s.logger.Warn("blob deletion failed, orphaning object",
			slog.String("book_id", book.ID),
			slog.String("image", book.Image),
			slog.String("error", err.Error()),
		)
		s.metrics.IncBlobOrphaned()
	}

	if err := s.store.DeleteBook(ctx, bookID); err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return ErrBookNotFound
		}
		return fmt.Errorf("delete book: %w", err)
	}

	s.metrics.IncBookDeleted()

	return nil
}

// decodeImage decodes base64 image content. A data-URI prefix
// (data:image/png;base64,...) is allowed and stripped; the content type is
// sniffed from the decoded bytes.
func decodeImage(encoded string) ([]byte, string, error) {
	if strings.HasPrefix(encoded, "data:") {
		idx := strings.Index(encoded, ",")
		if idx < 0 {
			return nil, "", errors.New("malformed data URI")
		}
		encoded = encoded[idx+1:]
	}

	content, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("decode base64: %w", err)
	}
	if len(content) == 0 {
		return nil, "", errors.New("empty image content")
	}

	return content, http.DetectContentType(content), nil
}
