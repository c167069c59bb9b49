package listing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/pagination"
)

func prod(id, name, desc, category string, price int64) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        name,
		Description: desc,
		Category:    category,
		Price:       decimal.NewFromInt(price),
	}
}

func catalog() []domain.Product {
	return []domain.Product{
		prod("p1", "Blue Shirt", "cotton", "apparel", 2999),
		prod("p2", "Mug", "ceramic mug with a shirt print", "kitchen", 2500),
		prod("p3", "Red SHIRT", "silk", "apparel", 5000),
		prod("p4", "Hat", "wool", "shirts & hats", 4999),
		prod("p5", "Cheap shirt", "polyester", "apparel", 2499),
		prod("p6", "Lamp", "desk lamp", "home", 15000),
	}
}

func ids(products []domain.Product) []string {
	out := []string{}
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

// ============================================================================
// Products
// ============================================================================

func TestFilterProducts_SearchWithPriceBucket(t *testing.T) {
	got := FilterProducts(catalog(), ProductFilter{Search: "shirt", Category: AllCategories, PriceRange: Price25To50})
	assert.Equal(t, []string{"p1", "p2", "p4"}, ids(got))
}

func TestFilterProducts_SearchKeepsWhitespace(t *testing.T) {
	got := FilterProducts(catalog(), ProductFilter{Search: " shirt"})
	assert.Equal(t, []string{"p1", "p2", "p3", "p5"}, ids(got))
}

func TestFilterProducts_Category(t *testing.T) {
	got := FilterProducts(catalog(), ProductFilter{Category: "apparel"})
	assert.Equal(t, []string{"p1", "p3", "p5"}, ids(got))
}

func TestFilterProducts_NoCriteriaKeepsAll(t *testing.T) {
	got := FilterProducts(catalog(), ProductFilter{})
	assert.Equal(t, []string{"p1", "p2", "p3", "p4", "p5", "p6"}, ids(got))
}

func TestPriceRange_Boundaries(t *testing.T) {
	tests := []struct {
		r     PriceRange
		minor int64
		want  bool
	}{
		{PriceUnder25, 2499, true},
		{PriceUnder25, 2500, false},
		{Price25To50, 2500, true},
		{Price25To50, 4999, true},
		{Price25To50, 5000, false},
		{Price50To100, 5000, true},
		{Price50To100, 10000, false},
		{PriceOver100, 10000, true},
		{PriceOver100, 9999, false},
		{PriceAll, 1, true},
	}
	for _, tt := range tests {
		p := prod("x", "", "", "", tt.minor)
		assert.Equal(t, tt.want, tt.r.Contains(p.MajorPrice()), "%s with %d", tt.r, tt.minor)
	}
}

func TestParsePriceRange(t *testing.T) {
	r, err := ParsePriceRange("")
	require.NoError(t, err)
	assert.Equal(t, PriceAll, r)

	r, err = ParsePriceRange("50-100")
	require.NoError(t, err)
	assert.Equal(t, Price50To100, r)

	_, err = ParsePriceRange("cheap")
	assert.Error(t, err)
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []string{"apparel", "home", "kitchen", "shirts & hats"}, Categories(catalog()))
	assert.Equal(t, []string{}, Categories(nil))
}

// ============================================================================
// Users
// ============================================================================

func users() []domain.Profile {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Profile{
		{Principal: "aaa-111", FullName: "bob Builder", Email: "Bob@example.com", Phone: "555-0100", Registered: base},
		{Principal: "bbb-222", FullName: "Alice", Email: "alice@example.com", Phone: "555-0200", Registered: base.Add(48 * time.Hour)},
		{Principal: "ccc-333", FullName: "carol", Email: "carol@shop.io", Phone: "555-0300", Registered: base.Add(24 * time.Hour)},
	}
}

func principals(ps []domain.Profile) []string {
	out := []string{}
	for _, p := range ps {
		out = append(out, p.Principal)
	}
	return out
}

func TestFilterUsers_DefaultSortNewestFirst(t *testing.T) {
	got := FilterUsers(users(), UserQuery{Sort: DefaultSort()})
	assert.Equal(t, []string{"bbb-222", "ccc-333", "aaa-111"}, principals(got))
}

func TestFilterUsers_SortByStringKeysIgnoresCase(t *testing.T) {
	got := FilterUsers(users(), UserQuery{Sort: Sort{Key: SortName, Order: Asc}})
	assert.Equal(t, []string{"bbb-222", "aaa-111", "ccc-333"}, principals(got))

	got = FilterUsers(users(), UserQuery{Sort: Sort{Key: SortEmail, Order: Desc}})
	assert.Equal(t, []string{"ccc-333", "aaa-111", "bbb-222"}, principals(got))
}

func TestFilterUsers_Search(t *testing.T) {
	tests := []struct {
		term string
		want []string
	}{
		{"EXAMPLE.COM", []string{"bbb-222", "aaa-111"}},
		{"carol", []string{"ccc-333"}},
		{"0200", []string{"bbb-222"}},
		{"aaa-", []string{"aaa-111"}},
		{"nobody", []string{}},
		{" ", []string{"aaa-111"}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got := FilterUsers(users(), UserQuery{Search: tt.term, Sort: DefaultSort()})
			assert.Equal(t, tt.want, principals(got))
		})
	}
}

func TestSort_Toggle(t *testing.T) {
	s := DefaultSort()

	s = s.Toggle(SortRegistered)
	assert.Equal(t, Sort{Key: SortRegistered, Order: Asc}, s)

	s = s.Toggle(SortRegistered)
	assert.Equal(t, Sort{Key: SortRegistered, Order: Desc}, s)

	s = s.Toggle(SortEmail)
	assert.Equal(t, Sort{Key: SortEmail, Order: Desc}, s)

	s = s.Toggle(SortEmail)
	assert.Equal(t, Sort{Key: SortEmail, Order: Asc}, s)

	s = s.Toggle(SortName)
	assert.Equal(t, Sort{Key: SortName, Order: Desc}, s)
}

func TestParseSort(t *testing.T) {
	s, err := ParseSort("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultSort(), s)

	s, err = ParseSort("email", "asc")
	require.NoError(t, err)
	assert.Equal(t, Sort{Key: SortEmail, Order: Asc}, s)

	_, err = ParseSort("age", "")
	assert.Error(t, err)
	_, err = ParseSort("", "up")
	assert.Error(t, err)
}

func TestPaginate(t *testing.T) {
	page := Paginate(catalog(), pagination.Params{Page: 2, PerPage: 4})
	assert.Equal(t, []string{"p5", "p6"}, ids(page.Data))
	assert.Equal(t, 6, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrev)
}
