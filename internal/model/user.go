// Package model defines domain entities for the application.
package model

import (
	"fmt"
	"net/url"
	"time"
)

// User represents a registered account.
// PasswordHash never crosses the JSON boundary.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	ProfileImage string    `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Public returns the fields of the user that are safe to expose to clients.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		ProfileImage: u.ProfileImage,
	}
}

// PublicUser is the client-facing projection of a User.
type PublicUser struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	ProfileImage string `json:"profile_image"`
}

// Identity is the authenticated caller attached to a request context.
// It carries no credential material.
type Identity struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	ProfileImage string `json:"profile_image"`
}

// avatarBaseURL is the generated-avatar service used for default profile images.
const avatarBaseURL = "https://api.dicebear.com/7.x/avataaars/svg"

// DefaultProfileImage returns the deterministic avatar URL for a username.
// Equal usernames always map to the same URL.
func DefaultProfileImage(username string) string {
	return fmt.Sprintf("%s?seed=%s", avatarBaseURL, url.QueryEscape(username))
}
