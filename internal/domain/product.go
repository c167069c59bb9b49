package domain

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Product is a catalog item as the backend reports it. Price is in minor
// currency units and every rating is scaled by 100. Amounts are unbounded
// integers and travel as decimal strings.
type Product struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Price       decimal.Decimal   `json:"price"`
	Stock       decimal.Decimal   `json:"stock"`
	Purchases   decimal.Decimal   `json:"purchases"`
	ReviewCount decimal.Decimal   `json:"review_count"`
	Ratings     []decimal.Decimal `json:"ratings"`
	Images      []string          `json:"images"`
}

// AverageRating returns the mean rating on the display scale, or 0 when the
// product has no ratings.
func (p *Product) AverageRating() float64 {
	if len(p.Ratings) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, r := range p.Ratings {
		sum = sum.Add(r)
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(p.Ratings)))).Div(hundred)
	f, _ := avg.Float64()
	return f
}

// InStock reports whether at least one unit is available.
func (p *Product) InStock() bool {
	return p.Stock.IsPositive()
}

// MajorPrice returns the price in major currency units.
func (p *Product) MajorPrice() decimal.Decimal {
	return p.Price.Div(hundred)
}

// IsWholeNonNegative reports whether d is an integer >= 0.
func IsWholeNonNegative(d decimal.Decimal) bool {
	return !d.IsNegative() && d.IsInteger()
}

// ToMinorUnits converts a major-unit amount to minor units, rounding half
// away from zero.
func ToMinorUnits(major decimal.Decimal) decimal.Decimal {
	return major.Mul(hundred).Round(0)
}
