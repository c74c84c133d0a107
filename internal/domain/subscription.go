package domain

import (
	"time"
)

// Subscription is a notify-me request: the email is told when a dress in one
// of the categories becomes available in one of the sizes.
type Subscription struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Categories []string  `json:"categories"`
	Sizes      []string  `json:"sizes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Matches reports whether d is available, in a subscribed category and offered
// in at least one subscribed size.
func (s *Subscription) Matches(d Dress) bool {
	if !d.Available {
		return false
	}
	inCategory := false
	for _, c := range s.Categories {
		if c == d.Category {
			inCategory = true
			break
		}
	}
	if !inCategory {
		return false
	}
	for _, size := range s.Sizes {
		if d.HasSize(size) {
			return true
		}
	}
	return false
}
