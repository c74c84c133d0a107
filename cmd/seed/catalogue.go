package main

import (
	"strconv"

	"github.com/utafrali/dressrental/internal/service"
)

func dollars(n int64) int64 { return n * 100 }

func salePrice(n int64) *int64 {
	cents := dollars(n)
	return &cents
}

func sizes(from, to int) []string {
	out := make([]string, 0, (to-from)/2+1)
	for s := from; s <= to; s += 2 {
		out = append(out, strconv.Itoa(s))
	}
	return out
}

func images(n int, views ...string) []string {
	base := "/images/dress" + strconv.Itoa(n)
	out := []string{base + ".jpg"}
	for _, v := range views {
		out = append(out, base+"-"+v+".jpg")
	}
	return out
}

// launchCatalogue is the dress line-up the storefront opened with.
func launchCatalogue() []service.DressInput {
	return []service.DressInput{
		{
			Name:        "Aurora Evening Gown",
			Description: "A stunning evening gown with delicate beading and a flowing silhouette. Perfect for formal events and galas.",
			Price:       dollars(85),
			Images:      images(1, "alt", "back"),
			Colors:      []string{"Emerald", "Navy", "Burgundy"},
			Sizes:       sizes(14, 22),
			Featured:    true,
			Available:   true,
			Category:    "Evening",
		},
		{
			Name:        "Bella Cocktail Dress",
			Description: "A sophisticated cocktail dress with a flattering A-line cut and subtle shimmering details.",
			Price:       dollars(65),
			Images:      images(2, "alt"),
			Colors:      []string{"Black", "Champagne", "Blush"},
			Sizes:       sizes(14, 24),
			Featured:    true,
			Available:   true,
			Category:    "Cocktail",
		},
		{
			Name:        "Celine Wrap Dress",
			Description: "A versatile wrap dress that flatters every curve. Elegant draping and adjustable fit for maximum comfort.",
			Price:       dollars(55),
			SalePrice:   salePrice(45),
			Images:      images(3, "alt"),
			Colors:      []string{"Ruby", "Sapphire", "Emerald", "Onyx"},
			Sizes:       sizes(14, 26),
			Featured:    true,
			Available:   true,
			Category:    "Casual",
		},
		{
			Name:        "Diana Maxi Dress",
			Description: "A flowing maxi dress with elegant draping and a flattering neckline. Perfect for summer events.",
			Price:       dollars(70),
			Images:      images(4, "alt"),
			Colors:      []string{"Coral", "Teal", "Lavender"},
			Sizes:       sizes(14, 22),
			Available:   true,
			Category:    "Casual",
		},
		{
			Name:        "Eliza Formal Gown",
			Description: "A glamorous formal gown with intricate lace detailing and a dramatic silhouette.",
			Price:       dollars(95),
			Images:      images(5, "alt"),
			Colors:      []string{"Wine", "Midnight", "Emerald"},
			Sizes:       sizes(16, 24),
			Available:   true,
			Category:    "Evening",
		},
		{
			Name:        "Florence Party Dress",
			Description: "A fun and flirty party dress with gorgeous detailing and a playful hemline.",
			Price:       dollars(60),
			Images:      images(6, "alt"),
			Colors:      []string{"Silver", "Gold", "Black"},
			Sizes:       sizes(14, 20),
			Available:   true,
			Category:    "Cocktail",
		},
		{
			Name:        "Grace Sheath Dress",
			Description: "A tailored sheath dress that celebrates your curves with sophisticated style.",
			Price:       dollars(75),
			Images:      images(7, "alt"),
			Colors:      []string{"Navy", "Plum", "Forest"},
			Sizes:       sizes(14, 24),
			Available:   false,
			Category:    "Business",
		},
		{
			Name:        "Helena Ballgown",
			Description: "A showstopping ballgown with a structured bodice and voluminous skirt.",
			Price:       dollars(110),
			Images:      images(8, "alt"),
			Colors:      []string{"Rose Gold", "Sapphire", "Emerald"},
			Sizes:       sizes(16, 22),
			Available:   true,
			Category:    "Evening",
		},
		{
			Name:        "Iris Midi Dress",
			Description: "A chic midi dress with modern details and a timeless silhouette.",
			Price:       dollars(65),
			SalePrice:   salePrice(55),
			Images:      images(9, "alt"),
			Colors:      []string{"Dusty Rose", "Sage", "Slate"},
			Sizes:       sizes(14, 26),
			Available:   true,
			Category:    "Casual",
		},
	}
}
