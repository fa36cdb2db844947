// Package order holds the order domain: orders with line items, the
// repository contract, the query engine and the service the surfaces call.
package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// LineItem is one product entry within an order.
type LineItem struct {
	ProductName string  `json:"product_name"`
	Amount      float64 `json:"amount"`
}

// Order represents a customer purchase order.
type Order struct {
	ID       string     `json:"id"`
	Customer string     `json:"customer"`
	Items    []LineItem `json:"items"`
}

// Total sums the amounts of all line items. It is computed on every call.
func (o Order) Total() float64 {
	var total float64
	for _, it := range o.Items {
		total += it.Amount
	}
	return total
}

// Clone returns a copy of o that shares no memory with it.
func (o Order) Clone() Order {
	c := o
	if o.Items != nil {
		c.Items = make([]LineItem, len(o.Items))
		copy(c.Items, o.Items)
	}
	return c
}

// String formats the order the way the console lists it.
func (o Order) String() string {
	return fmt.Sprintf("id: %s, customer: %s, total: %s", o.ID, o.Customer, FormatAmount(o.Total()))
}

// View is the read model handed to callers for display.
type View struct {
	ID       string     `json:"id"`
	Customer string     `json:"customer"`
	Total    float64    `json:"total"`
	Items    []LineItem `json:"items"`
}

// View snapshots the order together with its current total.
func (o Order) View() View {
	items := o.Clone().Items
	if items == nil {
		items = []LineItem{}
	}
	return View{ID: o.ID, Customer: o.Customer, Total: o.Total(), Items: items}
}

// Views converts a result list into views, preserving order.
func Views(orders []Order) []View {
	out := make([]View, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.View())
	}
	return out
}

// FormatAmount renders an amount in its shortest decimal form.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Repository defines behavior for storing orders.
//
// List returns orders in insertion order. Implementations return copies, so
// callers may modify results freely.
type Repository interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	List(ctx context.Context) ([]Order, error)
	UpdateCustomer(ctx context.Context, id, customer string) error
	Delete(ctx context.Context, id string) error
}

var (
	// ErrNotFound indicates the requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrDuplicateKey indicates an order with the same id already exists.
	ErrDuplicateKey = errors.New("order already exists")
	// ErrEmptyID is returned when an order is submitted without an id.
	ErrEmptyID = errors.New("order id must not be empty")
	// ErrInvalidAmount is returned for line item amounts that are NaN or infinite.
	ErrInvalidAmount = errors.New("line item amount must be a finite number")
)
