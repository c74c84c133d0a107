package domain

import (
	"time"
)

// Rental statuses.
const (
	RentalStatusPending   = "pending"
	RentalStatusConfirmed = "confirmed"
	RentalStatusCancelled = "cancelled"
)

// Rental is a checked-out cart line. Days and TotalPrice are computed by the
// server with the same pricing rules the cart uses.
type Rental struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	DressID    int64     `json:"dress_id"`
	Color      string    `json:"color"`
	Size       string    `json:"size"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Days       int       `json:"days"`
	TotalPrice int64     `json:"total_price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

var rentalTransitions = map[string][]string{
	RentalStatusPending:   {RentalStatusConfirmed, RentalStatusCancelled},
	RentalStatusConfirmed: {RentalStatusCancelled},
}

func IsValidRentalStatus(s string) bool {
	return s == RentalStatusPending || s == RentalStatusConfirmed || s == RentalStatusCancelled
}

// CanTransition reports whether a rental in status from may move to to.
func CanTransition(from, to string) bool {
	for _, next := range rentalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
