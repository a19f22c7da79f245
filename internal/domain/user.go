package domain

import "time"

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleProducer UserRole = "producer"
	RoleReviewer UserRole = "reviewer"
	RoleWriter   UserRole = "writer"
)

type User struct {
	ID           int64    `json:"id"`
	Email        string   `json:"email" validate:"required,email"`
	PasswordHash string   `json:"-"`
	Role         UserRole `json:"role"`
	Name         string   `json:"name"`
	Phone        string   `json:"phone,omitempty"`
	// PhotoURL is a locator into file storage. There is no FK between a
	// locator column and the blob it names; the integrity package
	// reconciles the two.
	PhotoURL         string    `json:"photo_url,omitempty"`
	ProfileCompleted bool      `json:"profile_completed"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
