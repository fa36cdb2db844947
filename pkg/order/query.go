package order

import (
	"cmp"
	"slices"
	"strings"
)

// Query selects orders by keyword and total range. Nil bounds are ignored.
type Query struct {
	Keyword   string
	MinAmount *float64
	MaxAmount *float64
}

// Matches reports whether o passes every filter of q.
func (q Query) Matches(o Order) bool {
	if q.Keyword != "" && !strings.Contains(o.ID, q.Keyword) && !strings.Contains(o.Customer, q.Keyword) {
		return false
	}
	total := o.Total()
	if q.MinAmount != nil && total < *q.MinAmount {
		return false
	}
	if q.MaxAmount != nil && total > *q.MaxAmount {
		return false
	}
	return true
}

// Apply filters orders by q and sorts the survivors ascending by total.
// Equal totals keep their input order. The input slice is not modified.
func Apply(orders []Order, q Query) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if q.Matches(o) {
			out = append(out, o)
		}
	}
	slices.SortStableFunc(out, func(a, b Order) int {
		return cmp.Compare(a.Total(), b.Total())
	})
	return out
}

// Amount is a convenience for building optional bounds.
func Amount(v float64) *float64 {
	return &v
}
