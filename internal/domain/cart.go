package domain

import (
	"time"
)

const day = 24 * time.Hour

// CartLineItem is one dress reserved for a date range. It only lives in the
// client's cart until checkout.
type CartLineItem struct {
	ID         string    `json:"id"`
	Dress      Dress     `json:"dress"`
	Color      string    `json:"color"`
	Size       string    `json:"size"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Days       int       `json:"days"`
	TotalPrice int64     `json:"total_price"`
}

// NewCartLineItem prices a line for the given range.
func NewCartLineItem(id string, d Dress, color, size string, start, end time.Time) CartLineItem {
	return CartLineItem{
		ID:         id,
		Dress:      d,
		Color:      color,
		Size:       size,
		StartDate:  start,
		EndDate:    end,
		Days:       RentalDays(start, end),
		TotalPrice: LineTotal(d, start, end),
	}
}

// RentalDays counts whole calendar days from start to end. Same-day and
// inverted ranges count as one day.
func RentalDays(start, end time.Time) int {
	days := int(calendarDate(end).Sub(calendarDate(start)) / day)
	if days < 1 {
		return 1
	}
	return days
}

// UnitPrice is the per-day price: the sale price when set, else the base price.
func UnitPrice(d Dress) int64 {
	if d.SalePrice != nil {
		return *d.SalePrice
	}
	return d.Price
}

func LineTotal(d Dress, start, end time.Time) int64 {
	return UnitPrice(d) * int64(RentalDays(start, end))
}

// AdjustRange returns the range that starts at newStart and keeps end,
// unless newStart falls after end, in which case end moves to the day after
// newStart.
func AdjustRange(newStart, end time.Time) (time.Time, time.Time) {
	if calendarDate(newStart).After(calendarDate(end)) {
		return newStart, newStart.Add(day)
	}
	return newStart, end
}

// calendarDate drops the clock so that ranges count days, not 24h periods.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
