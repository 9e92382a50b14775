package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bookhive/bookhive/internal/model"
	"github.com/bookhive/bookhive/internal/repository"
)

// fakeUserStore is an in-memory UserStore enforcing the same uniqueness
// rules as the real schema.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User // by id
	err   error                  // forced error for dependency-failure tests
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*model.User)}
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
		if u.Username == user.Username {
			return repository.ErrUsernameExists
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// fakeBookStore is an in-memory BookStore keeping creation order.
type fakeBookStore struct {
	mu     sync.Mutex
	books  []*model.Book
	owners map[string]model.BookOwner // owner_id -> public fields for joins
	err    error
}

func newFakeBookStore() *fakeBookStore {
	return &fakeBookStore{owners: make(map[string]model.BookOwner)}
}

func (f *fakeBookStore) CreateBook(_ context.Context, book *model.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := *book
	f.books = append(f.books, &cp)
	return nil
}

func (f *fakeBookStore) GetBookByID(_ context.Context, id string) (*model.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.books {
		if b.ID == id {
			cp := *b
			return &cp, nil
		}
	}
	return nil, repository.ErrBookNotFound
}

func (f *fakeBookStore) sortedDesc() []*model.Book {
	out := make([]*model.Book, len(f.books))
	copy(out, f.books)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (f *fakeBookStore) ListBooks(_ context.Context, offset, limit int) ([]*model.BookWithOwner, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}

	all := f.sortedDesc()
	total := int64(len(all))

	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}

	var out []*model.BookWithOwner
	for _, b := range all[offset:end] {
		out = append(out, &model.BookWithOwner{Book: *b, Owner: f.owners[b.OwnerID]})
	}
	return out, total, nil
}

func (f *fakeBookStore) ListBooksByOwner(_ context.Context, ownerID string) ([]*model.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Book
	for _, b := range f.sortedDesc() {
		if b.OwnerID == ownerID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeBookStore) DeleteBook(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, b := range f.books {
		if b.ID == id {
			f.books = append(f.books[:i], f.books[i+1:]...)
			return nil
		}
	}
	return repository.ErrBookNotFound
}

// fakeBlobStore records uploads and deletions and can be told to fail either.
type fakeBlobStore struct {
	mu         sync.Mutex
	uploads    int
	objects    map[string]bool // url -> exists
	failUpload bool
	failDelete bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string]bool)}
}

func (f *fakeBlobStore) Upload(_ context.Context, _ []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpload {
		return "", errors.New("blob service unavailable")
	}
	f.uploads++
	url := fmt.Sprintf("http://blob.test/bookhive-images/images/%d", f.uploads)
	f.objects[url] = true
	return url, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete {
		return errors.New("blob service unavailable")
	}
	delete(f.objects, url)
	return nil
}

func (f *fakeBlobStore) has(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[url]
}
