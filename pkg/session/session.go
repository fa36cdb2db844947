// Package session keeps login sessions in Redis.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

const keyPrefix = "session:"

// Store maps session ids to user names with a fixed TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns a Store on top of client.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// TTL is how long a new session stays valid.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create starts a session for user and returns its id.
func (s *Store) Create(ctx context.Context, user string) (string, error) {
	sid := uuid.NewString()
	if err := s.client.Set(ctx, keyPrefix+sid, user, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return sid, nil
}

// Lookup returns the user owning sid.
func (s *Store) Lookup(ctx context.Context, sid string) (string, error) {
	user, err := s.client.Get(ctx, keyPrefix+sid).Result()
	if errors.Is(err, redis.Nil) || (err == nil && user == "") {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	return user, nil
}

// Delete ends a session. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, keyPrefix+sid).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
