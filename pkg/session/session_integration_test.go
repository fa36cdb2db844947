//go:build integration

package session

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestStoreLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	store := New(setupRedis(t), time.Minute)

	sid, err := store.Create(ctx, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, sid)

	user, err := store.Lookup(ctx, sid)
	require.NoError(t, err)
	require.Equal(t, "alice", user)

	require.NoError(t, store.Delete(ctx, sid))
	_, err = store.Lookup(ctx, sid)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	store := New(setupRedis(t), time.Second)

	sid, err := store.Create(ctx, "bob")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := store.Lookup(ctx, sid)
		return err == ErrNotFound
	}, 5*time.Second, 100*time.Millisecond)
}
