package model

import "time"

// Rating bounds for book reviews.
const (
	MinRating = 1
	MaxRating = 5
)

// Book represents a book recommendation owned by a single user.
// OwnerID is immutable after creation; books are never updated in place.
type Book struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Caption   string    `json:"caption"`
	Rating    int       `json:"rating"`
	Image     string    `json:"image"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidRating reports whether r is inside the allowed rating range.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// BookWithOwner is a book enriched with the public fields of its owner,
// as returned by the paginated listing.
type BookWithOwner struct {
	Book
	Owner BookOwner `json:"user"`
}

// BookOwner is the minimal owner projection embedded in list responses.
type BookOwner struct {
	Username     string `json:"username"`
	ProfileImage string `json:"profile_image"`
}
