package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bookhive/bookhive/internal/model"
)

// ErrBookNotFound is returned when a book id does not resolve.
var ErrBookNotFound = errors.New("book not found")

// CreateBook inserts a new book record.
func (r *Repository) CreateBook(ctx context.Context, book *model.Book) error {
	query := `
		INSERT INTO books (id, title, caption, rating, image, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		book.ID,
		book.Title,
		book.Caption,
		book.Rating,
		book.Image,
		book.OwnerID,
		book.CreatedAt,
		book.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}

	return nil
}

// GetBookByID retrieves a book by its id.
func (r *Repository) GetBookByID(ctx context.Context, id string) (*model.Book, error) {
	query := `
		SELECT id, title, caption, rating, image, owner_id, created_at, updated_at
		FROM books
		WHERE id = $1
	`

	var b model.Book
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.Title,
		&b.Caption,
		&b.Rating,
		&b.Image,
		&b.OwnerID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book by ID: %w", err)
	}

	return &b, nil
}

// ListBooks returns one window of books ordered by creation time descending,
// each joined with the owner's public fields, plus the total record count.
func (r *Repository) ListBooks(ctx context.Context, offset, limit int) ([]*model.BookWithOwner, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM books`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	query := `
		SELECT b.id, b.title, b.caption, b.rating, b.image, b.owner_id, b.created_at, b.updated_at,
		       u.username, u.profile_image
		FROM books b
		JOIN users u ON u.id = b.owner_id
		ORDER BY b.created_at DESC, b.id DESC
		OFFSET $1 LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	var books []*model.BookWithOwner
	for rows.Next() {
		var b model.BookWithOwner
		if err := rows.Scan(
			&b.ID,
			&b.Title,
			&b.Caption,
			&b.Rating,
			&b.Image,
			&b.OwnerID,
			&b.CreatedAt,
			&b.UpdatedAt,
			&b.Owner.Username,
			&b.Owner.ProfileImage,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan book row: %w", err)
		}
		books = append(books, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate book rows: %w", err)
	}

	return books, total, nil
}

// ListBooksByOwner returns every book owned by ownerID, newest first.
func (r *Repository) ListBooksByOwner(ctx context.Context, ownerID string) ([]*model.Book, error) {
	query := `
		SELECT id, title, caption, rating, image, owner_id, created_at, updated_at
		FROM books
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list books by owner: %w", err)
	}
	defer rows.Close()

	var books []*model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(
			&b.ID,
			&b.Title,
			&b.Caption,
			&b.Rating,
			&b.Image,
			&b.OwnerID,
			&b.CreatedAt,
			&b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan book row: %w", err)
		}
		books = append(books, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate book rows: %w", err)
	}

	return books, nil
}

// DeleteBook removes a book record. Returns ErrBookNotFound if no row
// matched, so a concurrent double delete surfaces cleanly.
func (r *Repository) DeleteBook(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookNotFound
	}
	return nil
}
