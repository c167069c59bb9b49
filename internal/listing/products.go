package listing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
)

// AllCategories disables the category filter.
const AllCategories = "all"

// PriceRange is one of the fixed price buckets, in major currency units.
type PriceRange string

const (
	PriceAll     PriceRange = "all"
	PriceUnder25 PriceRange = "under-25"
	Price25To50  PriceRange = "25-50"
	Price50To100 PriceRange = "50-100"
	PriceOver100 PriceRange = "over-100"
)

var (
	twentyFive = decimal.NewFromInt(25)
	fifty      = decimal.NewFromInt(50)
	oneHundred = decimal.NewFromInt(100)
)

// ParsePriceRange validates a bucket name. The empty string means all.
func ParsePriceRange(s string) (PriceRange, error) {
	switch r := PriceRange(s); r {
	case "":
		return PriceAll, nil
	case PriceAll, PriceUnder25, Price25To50, Price50To100, PriceOver100:
		return r, nil
	default:
		return "", fmt.Errorf("unknown price range %q", s)
	}
}

// Contains reports whether a major-unit price falls in the bucket. Lower
// bounds are inclusive and upper bounds exclusive.
func (r PriceRange) Contains(major decimal.Decimal) bool {
	switch r {
	case PriceUnder25:
		return major.LessThan(twentyFive)
	case Price25To50:
		return major.GreaterThanOrEqual(twentyFive) && major.LessThan(fifty)
	case Price50To100:
		return major.GreaterThanOrEqual(fifty) && major.LessThan(oneHundred)
	case PriceOver100:
		return major.GreaterThanOrEqual(oneHundred)
	default:
		return true
	}
}

// ProductFilter narrows a product list. Zero values match everything.
type ProductFilter struct {
	Search     string
	Category   string
	PriceRange PriceRange
}

// Matches reports whether p passes every active criterion. The search term
// is matched as typed, surrounding whitespace included.
func (f ProductFilter) Matches(p *domain.Product) bool {
	if q := strings.ToLower(f.Search); q != "" {
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) &&
			!strings.Contains(strings.ToLower(p.Category), q) {
			return false
		}
	}
	if f.Category != "" && f.Category != AllCategories && p.Category != f.Category {
		return false
	}
	return f.PriceRange.Contains(p.MajorPrice())
}

// FilterProducts returns the products matching f in their original order.
func FilterProducts(products []domain.Product, f ProductFilter) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for i := range products {
		if f.Matches(&products[i]) {
			out = append(out, products[i])
		}
	}
	return out
}

// Categories returns the distinct categories of products, sorted.
func Categories(products []domain.Product) []string {
	seen := make(map[string]struct{}, len(products))
	out := make([]string, 0)
	for _, p := range products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out
}
