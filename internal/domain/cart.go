package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CartLine is one product snapshot and the quantity wanted. The snapshot is
// taken when the product is first added and never refreshed.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int64   `json:"quantity"`
}

// Subtotal is unit price times quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(l.Quantity))
}

// Cart is a read-only view of a device cart.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// TotalItems returns the sum of line quantities.
func (c Cart) TotalItems() int64 {
	var n int64
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// TotalPrice returns the sum of line subtotals in minor units.
func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// MarshalJSON emits the lines together with totals derived at encode time.
func (c Cart) MarshalJSON() ([]byte, error) {
	lines := c.Lines
	if lines == nil {
		lines = []CartLine{}
	}
	return json.Marshal(struct {
		Lines      []CartLine      `json:"lines"`
		TotalItems int64           `json:"total_items"`
		TotalPrice decimal.Decimal `json:"total_price"`
	}{
		Lines:      lines,
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
	})
}
