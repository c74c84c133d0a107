package domain

import (
	"slices"
	"strconv"
	"time"
)

// Dress categories offered by the storefront.
const (
	CategoryEvening  = "Evening"
	CategoryCocktail = "Cocktail"
	CategoryCasual   = "Casual"
	CategoryBusiness = "Business"
)

// Size range stocked, in even steps.
const (
	MinSize = 14
	MaxSize = 26
)

// Dress is a rentable catalogue item. Prices are in cents.
type Dress struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	SalePrice   *int64    `json:"sale_price,omitempty"`
	Sizes       []string  `json:"sizes"`
	Colors      []string  `json:"colors"`
	Images      []string  `json:"images"`
	Category    string    `json:"category"`
	Featured    bool      `json:"featured"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (d *Dress) HasSize(size string) bool {
	return slices.Contains(d.Sizes, size)
}

func (d *Dress) HasColor(color string) bool {
	return slices.Contains(d.Colors, color)
}

// OnSale reports whether a sale price below the base price is set.
func (d *Dress) OnSale() bool {
	return d.SalePrice != nil && *d.SalePrice < d.Price
}

func ValidCategories() []string {
	return []string{CategoryEvening, CategoryCocktail, CategoryCasual, CategoryBusiness}
}

func IsValidCategory(c string) bool {
	return slices.Contains(ValidCategories(), c)
}

// ValidSizes returns "14", "16", ... "26".
func ValidSizes() []string {
	sizes := make([]string, 0, (MaxSize-MinSize)/2+1)
	for s := MinSize; s <= MaxSize; s += 2 {
		sizes = append(sizes, strconv.Itoa(s))
	}
	return sizes
}

func IsValidSize(s string) bool {
	return slices.Contains(ValidSizes(), s)
}
