package listing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
)

// SortKey is a sortable column of the user table.
type SortKey string

const (
	SortRegistered SortKey = "registered"
	SortEmail      SortKey = "email"
	SortName       SortKey = "name"
)

// SortOrder is a sort direction.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Sort is the active column and direction.
type Sort struct {
	Key   SortKey   `json:"key"`
	Order SortOrder `json:"order"`
}

// DefaultSort lists the newest users first.
func DefaultSort() Sort {
	return Sort{Key: SortRegistered, Order: Desc}
}

// ParseSort validates key and order. Empty values fall back to DefaultSort.
func ParseSort(key, order string) (Sort, error) {
	s := DefaultSort()
	switch k := SortKey(key); k {
	case "":
	case SortRegistered, SortEmail, SortName:
		s.Key = k
	default:
		return Sort{}, fmt.Errorf("unknown sort key %q", key)
	}
	switch o := SortOrder(order); o {
	case "":
	case Asc, Desc:
		s.Order = o
	default:
		return Sort{}, fmt.Errorf("unknown sort order %q", order)
	}
	return s, nil
}

// Toggle returns the sort after the user picks key: the same key flips the
// direction, a new key starts descending.
func (s Sort) Toggle(key SortKey) Sort {
	if s.Key == key {
		if s.Order == Asc {
			return Sort{Key: key, Order: Desc}
		}
		return Sort{Key: key, Order: Asc}
	}
	return Sort{Key: key, Order: Desc}
}

// UserQuery is a search term plus a sort.
type UserQuery struct {
	Search string
	Sort   Sort
}

// FilterUsers keeps the profiles whose email, name, phone or principal
// contains the search term, case-insensitively, and sorts them stably.
func FilterUsers(users []domain.Profile, q UserQuery) []domain.Profile {
	term := strings.ToLower(q.Search)

	out := make([]domain.Profile, 0, len(users))
	for _, u := range users {
		if term == "" ||
			strings.Contains(strings.ToLower(u.Email), term) ||
			strings.Contains(strings.ToLower(u.FullName), term) ||
			strings.Contains(strings.ToLower(u.Phone), term) ||
			strings.Contains(strings.ToLower(u.Principal), term) {
			out = append(out, u)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := compareUsers(&out[i], &out[j], q.Sort.Key)
		if q.Sort.Order == Asc {
			return c < 0
		}
		return c > 0
	})
	return out
}

func compareUsers(a, b *domain.Profile, key SortKey) int {
	switch key {
	case SortEmail:
		return strings.Compare(strings.ToLower(a.Email), strings.ToLower(b.Email))
	case SortName:
		return strings.Compare(strings.ToLower(a.FullName), strings.ToLower(b.FullName))
	default:
		return a.Registered.Compare(b.Registered)
	}
}
