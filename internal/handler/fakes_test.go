package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/bookhive/bookhive/internal/auth"
	"github.com/bookhive/bookhive/internal/model"
	"github.com/bookhive/bookhive/internal/repository"
	"github.com/bookhive/bookhive/internal/service"
)

// In-memory stores backing the real services, so handler tests exercise
// the full decode-dispatch-encode path.

type memUserStore struct {
	users map[string]*model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*model.User)}
}

func (s *memUserStore) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
		if u.Username == user.Username {
			return repository.ErrUsernameExists
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *memUserStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *memUserStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

type memBookStore struct {
	books  map[string]*model.Book
	owners map[string]model.BookOwner
	err    error
}

func newMemBookStore() *memBookStore {
	return &memBookStore{
		books:  make(map[string]*model.Book),
		owners: make(map[string]model.BookOwner),
	}
}

func (s *memBookStore) CreateBook(_ context.Context, book *model.Book) error {
	s.books[book.ID] = book
	return nil
}

func (s *memBookStore) GetBookByID(_ context.Context, id string) (*model.Book, error) {
	b, ok := s.books[id]
	if !ok {
		return nil, repository.ErrBookNotFound
	}
	return b, nil
}

func (s *memBookStore) sortedDesc() []*model.Book {
	out := make([]*model.Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *memBookStore) ListBooks(_ context.Context, offset, limit int) ([]*model.BookWithOwner, int64, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	all := s.sortedDesc()
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	out := make([]*model.BookWithOwner, 0, end-offset)
	for _, b := range all[offset:end] {
		out = append(out, &model.BookWithOwner{Book: *b, Owner: s.owners[b.OwnerID]})
	}
	return out, total, nil
}

func (s *memBookStore) ListBooksByOwner(_ context.Context, ownerID string) ([]*model.Book, error) {
	var out []*model.Book
	for _, b := range s.sortedDesc() {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memBookStore) DeleteBook(_ context.Context, id string) error {
	if _, ok := s.books[id]; !ok {
		return repository.ErrBookNotFound
	}
	delete(s.books, id)
	return nil
}

type memBlobStore struct {
	n int
}

func (s *memBlobStore) Upload(_ context.Context, _ []byte, _ string) (string, error) {
	s.n++
	return fmt.Sprintf("http://localhost:9000/bookhive-images/images/test/%d", s.n), nil
}

func (s *memBlobStore) Delete(_ context.Context, _ string) error {
	return nil
}

// Shared wiring for handler tests.

type testEnv struct {
	users    *memUserStore
	books    *memBookStore
	userSvc  *service.UserService
	bookSvc  *service.BookService
	tokens   *auth.TokenService
	identity *model.Identity
}

func newTestEnv() *testEnv {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenService("handler-test-secret", time.Hour)
	users := newMemUserStore()
	books := newMemBookStore()
	return &testEnv{
		users:   users,
		books:   books,
		userSvc: service.NewUserService(users, tokens, nil),
		bookSvc: service.NewBookService(books, &memBlobStore{}, logger, nil),
		tokens:  tokens,
		identity: &model.Identity{
			UserID:       "caller-1",
			Username:     "caller",
			ProfileImage: model.DefaultProfileImage("caller"),
		},
	}
}

func (e *testEnv) seedBook(id, ownerID string, createdAt time.Time) *model.Book {
	book := &model.Book{
		ID:        id,
		Title:     "Title " + id,
		Caption:   "Caption " + id,
		Rating:    3,
		Image:     "http://localhost:9000/bookhive-images/images/test/" + id,
		OwnerID:   ownerID,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	e.books.books[id] = book
	return book
}

var errForced = errors.New("forced store failure")
