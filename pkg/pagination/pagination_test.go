package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest_Defaults(t *testing.T) {
	p := FromRequest(httptest.NewRequest(http.MethodGet, "/products", nil))

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PerPage)
	assert.Equal(t, 0, p.Offset())
}

func TestFromRequest_CustomValues(t *testing.T) {
	p := FromRequest(httptest.NewRequest(http.MethodGet, "/products?page=3&per_page=50", nil))

	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 50, p.PerPage)
	assert.Equal(t, 100, p.Offset())
}

func TestFromRequest_InvalidValuesFallBack(t *testing.T) {
	for _, q := range []string{"page=-1", "page=0", "page=abc", "per_page=200", "per_page=0"} {
		p := FromRequest(httptest.NewRequest(http.MethodGet, "/products?"+q, nil))
		assert.Equal(t, DefaultParams(), p, q)
	}
}

func TestApply_FirstPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	res := Apply(items, Params{Page: 1, PerPage: 2})

	assert.Equal(t, []int{1, 2}, res.Data)
	assert.Equal(t, 5, res.TotalCount)
	assert.Equal(t, 3, res.TotalPages)
	assert.True(t, res.HasNext)
	assert.False(t, res.HasPrev)
}

func TestApply_LastPartialPage(t *testing.T) {
	res := Apply([]string{"a", "b", "c"}, Params{Page: 2, PerPage: 2})

	assert.Equal(t, []string{"c"}, res.Data)
	assert.False(t, res.HasNext)
	assert.True(t, res.HasPrev)
}

func TestApply_PastTheEnd(t *testing.T) {
	res := Apply([]int{1}, Params{Page: 9, PerPage: 10})

	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
	assert.Equal(t, 1, res.TotalPages)
}

func TestApply_DoesNotAliasInput(t *testing.T) {
	items := []int{1, 2, 3}
	res := Apply(items, Params{Page: 1, PerPage: 3})
	res.Data[0] = 99

	assert.Equal(t, 1, items[0])
}
