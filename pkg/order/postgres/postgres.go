package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"orderdesk/pkg/order"
)

var _ order.Repository = (*Repository)(nil)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	seq      BIGSERIAL,
	id       TEXT PRIMARY KEY,
	customer TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS order_items (
	order_id     TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	position     INT NOT NULL,
	product_name TEXT NOT NULL,
	amount       DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (order_id, position)
);`

// Migrate creates the tables the repository needs.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate orders schema: %w", err)
	}
	return nil
}

// Repository persists orders in PostgreSQL.
type Repository struct {
	db *sql.DB
}

// New creates a PostgreSQL repository. The schema must already exist; see Migrate.
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new order and its line items in one transaction.
func (r *Repository) Create(ctx context.Context, o order.Order) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "INSERT INTO orders (id,customer) VALUES ($1,$2)", o.ID, o.Customer); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return order.ErrDuplicateKey
		}
		return fmt.Errorf("insert order: %w", err)
	}
	for i, it := range o.Items {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id,position,product_name,amount) VALUES ($1,$2,$3,$4)",
			o.ID, i, it.ProductName, it.Amount); err != nil {
			return fmt.Errorf("insert item %d: %w", i, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Get retrieves an order by ID.
func (r *Repository) Get(ctx context.Context, id string) (order.Order, error) {
	var o order.Order
	err := r.db.QueryRowContext(ctx, "SELECT id,customer FROM orders WHERE id=$1", id).Scan(&o.ID, &o.Customer)
	if err == sql.ErrNoRows {
		return order.Order{}, order.ErrNotFound
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("select order: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT product_name,amount FROM order_items WHERE order_id=$1 ORDER BY position", id)
	if err != nil {
		return order.Order{}, fmt.Errorf("select items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it order.LineItem
		if err := rows.Scan(&it.ProductName, &it.Amount); err != nil {
			return order.Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

// List fetches all orders in insertion order.
func (r *Repository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.customer, i.product_name, i.amount
		FROM orders o
		LEFT JOIN order_items i ON i.order_id = o.id
		ORDER BY o.seq, i.position`)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders := []order.Order{}
	for rows.Next() {
		var (
			id, customer string
			product      sql.NullString
			amount       sql.NullFloat64
		)
		if err := rows.Scan(&id, &customer, &product, &amount); err != nil {
			return nil, err
		}
		if n := len(orders); n == 0 || orders[n-1].ID != id {
			orders = append(orders, order.Order{ID: id, Customer: customer})
		}
		if product.Valid {
			last := &orders[len(orders)-1]
			last.Items = append(last.Items, order.LineItem{ProductName: product.String, Amount: amount.Float64})
		}
	}
	return orders, rows.Err()
}

// UpdateCustomer changes the customer of an existing order.
func (r *Repository) UpdateCustomer(ctx context.Context, id, customer string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE orders SET customer=$2 WHERE id=$1", id, customer)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Delete removes an order by ID. Its line items go with it.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM orders WHERE id=$1", id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return order.ErrNotFound
	}
	return nil
}
