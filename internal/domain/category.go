package domain

import "strings"

// Category is the intent class a user query is routed to.
// The set is closed: the classifier normalization and the dispatch
// transition table both derive from Categories, so they cannot drift.
type Category string

const (
	// CategoryScheme covers government schemes, loans, subsidies, eligibility.
	CategoryScheme Category = "scheme"
	// CategoryMarket covers market research, competitors, industry trends.
	CategoryMarket Category = "market"
	// CategoryBrand covers branding, business names, taglines.
	CategoryBrand Category = "brand"
	// CategoryFinance covers financial advice, pricing, calculations.
	CategoryFinance Category = "finance"
	// CategoryMarketing covers marketing strategies and promotion.
	CategoryMarketing Category = "marketing"
	// CategoryGeneral covers greetings and everything unclassifiable.
	CategoryGeneral Category = "general"
)

// Categories lists every valid category in a stable order.
func Categories() []Category {
	return []Category{
		CategoryScheme,
		CategoryMarket,
		CategoryBrand,
		CategoryFinance,
		CategoryMarketing,
		CategoryGeneral,
	}
}

// ParseCategory normalizes raw classifier output into a Category.
// The input is trimmed and lower-cased; anything outside the closed set
// yields (CategoryGeneral, false) so dispatch always has a legal target.
func ParseCategory(raw string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	for _, valid := range Categories() {
		if c == valid {
			return c, true
		}
	}
	return CategoryGeneral, false
}

// String implements fmt.Stringer.
func (c Category) String() string { return string(c) }
