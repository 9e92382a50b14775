package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bookhive/bookhive/internal/auth"
	"github.com/bookhive/bookhive/internal/handler/dto"
	"github.com/bookhive/bookhive/internal/model"
	"github.com/bookhive/bookhive/internal/service"
)

// BookHandler handles HTTP requests for book operations.
// All routes sit behind the auth middleware.
type BookHandler struct {
	svc    *service.BookService
	logger *slog.Logger
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(svc *service.BookService, logger *slog.Logger) *BookHandler {
	return &BookHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/books.
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := auth.MustIdentityFromContext(r.Context())

	var req dto.CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	book, err := h.svc.Create(r.Context(), caller, service.CreateBookInput{
		Title:   req.Title,
		Caption: req.Caption,
		Rating:  req.Rating,
		Image:   req.Image,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("book_created",
		"book_id", book.ID,
		"owner_id", book.OwnerID,
	)

	writeJSON(w, http.StatusCreated, book)
}

// List handles GET /api/v1/books with optional page/limit query parameters.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := parsePositiveInt(query.Get("page"), service.DefaultPage)
	limit := parsePositiveInt(query.Get("limit"), service.DefaultLimit)

	out, err := h.svc.List(r.Context(), page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	books := out.Books
	if books == nil {
		books = []*model.BookWithOwner{}
	}

	writeJSON(w, http.StatusOK, dto.BookListResponse{
		Books:       books,
		CurrentPage: out.CurrentPage,
		TotalBooks:  out.TotalBooks,
		TotalPages:  out.TotalPages,
	})
}

// Mine handles GET /api/v1/books/mine: all books of the caller.
func (h *BookHandler) Mine(w http.ResponseWriter, r *http.Request) {
	caller := auth.MustIdentityFromContext(r.Context())

	books, err := h.svc.ListByOwner(r.Context(), caller)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	if books == nil {
		books = []*model.Book{}
	}

	writeJSON(w, http.StatusOK, books)
}

// Delete handles DELETE /api/v1/books/{id}.
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := auth.MustIdentityFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Book ID is required")
		return
	}

	if err := h.svc.Delete(r.Context(), caller, id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("book_deleted", "book_id", id, "owner_id", caller.UserID)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Book deleted successfully"})
}

// handleServiceError maps book service errors to HTTP responses.
// Dependency failures are logged with detail and reported generically.
func (h *BookHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Please provide all fields")
	case errors.Is(err, service.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Rating must be between 1 and 5")
	case errors.Is(err, service.ErrInvalidImage):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Image must be base64-encoded content")
	case errors.Is(err, service.ErrBookNotFound):
		writeError(w, http.StatusNotFound, "BOOK_NOT_FOUND", "Book not found")
	case errors.Is(err, service.ErrNotOwner):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// parsePositiveInt parses a query value, falling back to def for absent,
// malformed, or non-positive input. No upper bound is applied.
func parsePositiveInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
