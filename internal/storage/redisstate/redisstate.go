// Package redisstate keeps pending OAuth PKCE states in Redis.
// Expiry is delegated to key TTLs, so the store never needs purging.
package redisstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/internal/storage"
)

const defaultKeyPrefix = "spolek:oauth:state:"

var _ storage.StateStore = (*Store)(nil)

// Store implements storage.StateStore using Redis.
type Store struct {
	client    *redis.Client
	keyPrefix string
}

// Config holds the Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

type stateValue struct {
	Verifier  string    `json:"verifier"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 1,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client, keyPrefix: defaultKeyPrefix}
}

// Client returns the underlying Redis client.
func (s *Store) Client() *redis.Client {
	return s.client
}

func (s *Store) key(state string) string {
	return s.keyPrefix + state
}

// PutOAuthState stores the verifier with a TTL matching its expiry.
func (s *Store) PutOAuthState(ctx context.Context, st *models.OAuthState) error {
	createdAt := st.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	ttl := time.Until(st.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("oauth state already expired at %s", st.ExpiresAt)
	}

	payload, err := json.Marshal(stateValue{Verifier: st.Verifier, CreatedAt: createdAt, ExpiresAt: st.ExpiresAt})
	if err != nil {
		return fmt.Errorf("failed to encode oauth state: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.key(st.State), payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store oauth state: %w", err)
	}
	if !ok {
		return fmt.Errorf("oauth state %s already exists", st.State)
	}
	return nil
}

// TakeOAuthState fetches and deletes the state with GETDEL.
func (s *Store) TakeOAuthState(ctx context.Context, state string, now time.Time) (*models.OAuthState, error) {
	raw, err := s.client.GetDel(ctx, s.key(state)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("oauth state: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take oauth state: %w", err)
	}

	var v stateValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to decode oauth state: %w", err)
	}
	if !now.Before(v.ExpiresAt) {
		return nil, fmt.Errorf("oauth state expired: %w", storage.ErrNotFound)
	}
	return &models.OAuthState{
		State:     state,
		Verifier:  v.Verifier,
		CreatedAt: v.CreatedAt,
		ExpiresAt: v.ExpiresAt,
	}, nil
}

// PurgeExpiredOAuthStates is a no-op: Redis evicts expired keys itself.
func (s *Store) PurgeExpiredOAuthStates(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
