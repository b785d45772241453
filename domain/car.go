package domain

import "time"

// MaxCarImages caps the number of image URLs attached to a single car.
const MaxCarImages = 10

// Car represents a user-owned vehicle record.
type Car struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Images      []string  `json:"images,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Car) OwnedBy(userID string) bool {
	return c != nil && userID != "" && c.UserID == userID
}
