package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"orderdesk/pkg/order"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := New()
	o := order.Order{ID: "1", Customer: "Alice", Items: []order.LineItem{{ProductName: "Widget", Amount: 2}}}
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.Get(ctx, "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Customer != "Alice" {
		t.Fatalf("expected Alice, got %s", got.Customer)
	}
	if err := repo.UpdateCustomer(ctx, "1", "Bob"); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v len=%d", err, len(list))
	}
	if list[0].Customer != "Bob" {
		t.Fatalf("expected Bob, got %s", list[0].Customer)
	}
	if err := repo.Delete(ctx, "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, "1"); err == nil {
		t.Fatal("expected error after delete")
	}
}

func TestCreateDuplicateKeepsOriginal(t *testing.T) {
	ctx := context.Background()
	repo := New()
	require.NoError(t, repo.Create(ctx, order.Order{ID: "A", Customer: "first"}))

	err := repo.Create(ctx, order.Order{ID: "A", Customer: "second"})
	require.ErrorIs(t, err, order.ErrDuplicateKey)

	got, err := repo.Get(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, "first", got.Customer)
	require.Equal(t, 1, repo.Len())
}

func TestMissingIDsDoNotMutate(t *testing.T) {
	ctx := context.Background()
	repo := New()
	require.NoError(t, repo.Create(ctx, order.Order{ID: "A", Customer: "a"}))

	require.ErrorIs(t, repo.Delete(ctx, "nope"), order.ErrNotFound)
	require.ErrorIs(t, repo.UpdateCustomer(ctx, "nope", "x"), order.ErrNotFound)
	_, err := repo.Get(ctx, "nope")
	require.ErrorIs(t, err, order.ErrNotFound)

	require.Equal(t, 1, repo.Len())
}

func TestListKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := New()
	for _, id := range []string{"c", "a", "b", "d"} {
		require.NoError(t, repo.Create(ctx, order.Order{ID: id}))
	}
	require.NoError(t, repo.Delete(ctx, "a"))
	require.NoError(t, repo.Create(ctx, order.Order{ID: "a"}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, o := range list {
		ids = append(ids, o.ID)
	}
	require.Equal(t, []string{"c", "b", "d", "a"}, ids)
}

func TestReturnedOrdersAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := New()
	items := []order.LineItem{{ProductName: "Pen", Amount: 3.5}}
	require.NoError(t, repo.Create(ctx, order.Order{ID: "O1", Customer: "Alice", Items: items}))

	items[0].Amount = 99

	got, err := repo.Get(ctx, "O1")
	require.NoError(t, err)
	require.Equal(t, 3.5, got.Total())

	got.Items[0].ProductName = "Changed"
	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, "Pen", list[0].Items[0].ProductName)
}
