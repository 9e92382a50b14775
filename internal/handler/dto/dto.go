// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import "github.com/bookhive/bookhive/internal/model"

// RegisterRequest represents the request body for account registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the shared success shape of register and login.
// The password hash is never part of it.
type AuthResponse struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

// CreateBookRequest represents the request body for creating a book.
// Image carries base64-encoded content, optionally as a data URI.
type CreateBookRequest struct {
	Title   string `json:"title"`
	Caption string `json:"caption"`
	Rating  int    `json:"rating"`
	Image   string `json:"image"`
}

// BookListResponse is one page of books with pagination metadata.
type BookListResponse struct {
	Books       []*model.BookWithOwner `json:"books"`
	CurrentPage int                    `json:"currentPage"`
	TotalBooks  int64                  `json:"totalBooks"`
	TotalPages  int64                  `json:"totalPages"`
}

// MessageResponse is a plain success message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
