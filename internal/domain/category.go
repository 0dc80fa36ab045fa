package domain

import "strings"

// Category is the closed set of transaction categories. The set is fixed;
// anything outside it is folded into CategoryOther at the boundary so the
// monthly series never grows unbounded keys.
type Category string

const (
	CategoryHousing       Category = "housing"
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryHealth        Category = "health"
	CategoryLeisure       Category = "leisure"
	CategoryShopping      Category = "shopping"
	CategoryEducation     Category = "education"
	CategorySubscriptions Category = "subscriptions"
	CategorySalary        Category = "salary"
	CategoryFreelance     Category = "freelance"
	CategoryInvestment    Category = "investment"
	CategoryGift          Category = "gift"
	CategoryOther         Category = "other"
)

var validCategories = map[Category]bool{
	CategoryHousing:       true,
	CategoryFood:          true,
	CategoryTransport:     true,
	CategoryHealth:        true,
	CategoryLeisure:       true,
	CategoryShopping:      true,
	CategoryEducation:     true,
	CategorySubscriptions: true,
	CategorySalary:        true,
	CategoryFreelance:     true,
	CategoryInvestment:    true,
	CategoryGift:          true,
	CategoryOther:         true,
}

// IsValidCategory reports whether the identifier names a known category.
func IsValidCategory(s string) bool {
	return validCategories[Category(strings.ToLower(strings.TrimSpace(s)))]
}

// NormalizeCategory maps an arbitrary identifier into the closed category set.
// Unknown or empty identifiers become CategoryOther.
func NormalizeCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if validCategories[c] {
		return c
	}
	return CategoryOther
}
