package domain

import "github.com/shopspring/decimal"

// DefaultCurrency is the ISO currency code sent with every shopping item.
const DefaultCurrency = "usd"

// ShoppingItem is one line as the payment session expects it.
type ShoppingItem struct {
	ProductName        string          `json:"product_name"`
	ProductDescription string          `json:"product_description"`
	PriceInCents       decimal.Decimal `json:"price_in_cents"`
	Quantity           int64           `json:"quantity"`
	Currency           string          `json:"currency"`
}

// ShoppingItemsFromCart maps every cart line to a shopping item.
func ShoppingItemsFromCart(c Cart) []ShoppingItem {
	items := make([]ShoppingItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, ShoppingItem{
			ProductName:        l.Product.Name,
			ProductDescription: l.Product.Description,
			PriceInCents:       l.Product.Price,
			Quantity:           l.Quantity,
			Currency:           DefaultCurrency,
		})
	}
	return items
}

// CheckoutSession is the payment provider handle for one checkout attempt.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// SessionState is the outcome kind of a payment session.
type SessionState string

const (
	SessionCompleted SessionState = "completed"
	SessionFailed    SessionState = "failed"
)

// SessionStatus is the result of querying a payment session.
type SessionStatus struct {
	State         SessionState `json:"state"`
	UserPrincipal string       `json:"user_principal,omitempty"`
	Response      string       `json:"response,omitempty"`
	Error         string       `json:"error,omitempty"`
}

// Completed reports whether the payment went through.
func (s SessionStatus) Completed() bool {
	return s.State == SessionCompleted
}
