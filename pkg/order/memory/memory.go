// Package memory implements an in-memory order repository.
package memory

import (
	"context"
	"slices"
	"sync"

	"orderdesk/pkg/order"
)

var _ order.Repository = (*Repository)(nil)

// Repository provides an in-memory implementation of order.Repository.
// Orders are kept in insertion order; all access is serialised by mu.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]order.Order
	ids    []string
}

// New creates a new in-memory repository.
func New() *Repository {
	return &Repository{orders: make(map[string]order.Order)}
}

// Create stores a copy of the order unless its id is taken.
func (r *Repository) Create(_ context.Context, o order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return order.ErrDuplicateKey
	}
	r.orders[o.ID] = o.Clone()
	r.ids = append(r.ids, o.ID)
	return nil
}

// Get retrieves an order by ID.
func (r *Repository) Get(_ context.Context, id string) (order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return o.Clone(), nil
}

// List returns all orders in insertion order.
func (r *Repository) List(_ context.Context) ([]order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]order.Order, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.orders[id].Clone())
	}
	return out, nil
}

// UpdateCustomer replaces the customer of an existing order.
func (r *Repository) UpdateCustomer(_ context.Context, id, customer string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Customer = customer
	r.orders[id] = o
	return nil
}

// Delete removes an order by ID.
func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return order.ErrNotFound
	}
	delete(r.orders, id)
	if i := slices.Index(r.ids, id); i >= 0 {
		r.ids = slices.Delete(r.ids, i, i+1)
	}
	return nil
}

// Len reports how many orders are stored.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}
