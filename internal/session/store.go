package session

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store is the session-scoped key-value store the storefront depends on. The
// anonymous cart is a map from "{productID}-{variantID}" to a quantity; the
// customer binding links a session to a logged-in account. It is injected
// into the services rather than reached for as ambient state.
type Store interface {
	CartMap(ctx context.Context, sessionID string) (map[string]int, error)
	IncrCartEntry(ctx context.Context, sessionID, key string, delta int) error
	SetCartEntry(ctx context.Context, sessionID, key string, quantity int) error
	RemoveCartEntry(ctx context.Context, sessionID, key string) error
	ClearCart(ctx context.Context, sessionID string) error

	BindCustomer(ctx context.Context, sessionID string, customerID uuid.UUID) error
	CustomerID(ctx context.Context, sessionID string) (uuid.UUID, bool, error)
	Delete(ctx context.Context, sessionID string) error
}

const (
	cartKeyPrefix     = "session:cart:"
	customerKeyPrefix = "session:customer:"
)

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store. Keys expire after ttl;
// every cart write refreshes the expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *redisStore {
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) CartMap(ctx context.Context, sessionID string) (map[string]int, error) {
	raw, err := s.client.HGetAll(ctx, cartKeyPrefix+sessionID).Result()
	if err != nil {
		return nil, err
	}

	cart := make(map[string]int, len(raw))
	for key, val := range raw {
		qty, err := strconv.Atoi(val)
		if err != nil || qty <= 0 {
			continue
		}
		cart[key] = qty
	}

	return cart, nil
}

func (s *redisStore) IncrCartEntry(ctx context.Context, sessionID, key string, delta int) error {
	redisKey := cartKeyPrefix + sessionID
	if err := s.client.HIncrBy(ctx, redisKey, key, int64(delta)).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, redisKey, s.ttl).Err()
}

func (s *redisStore) SetCartEntry(ctx context.Context, sessionID, key string, quantity int) error {
	redisKey := cartKeyPrefix + sessionID
	if err := s.client.HSet(ctx, redisKey, key, quantity).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, redisKey, s.ttl).Err()
}

func (s *redisStore) RemoveCartEntry(ctx context.Context, sessionID, key string) error {
	return s.client.HDel(ctx, cartKeyPrefix+sessionID, key).Err()
}

func (s *redisStore) ClearCart(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, cartKeyPrefix+sessionID).Err()
}

func (s *redisStore) BindCustomer(ctx context.Context, sessionID string, customerID uuid.UUID) error {
	return s.client.Set(ctx, customerKeyPrefix+sessionID, customerID.String(), s.ttl).Err()
}

func (s *redisStore) CustomerID(ctx context.Context, sessionID string) (uuid.UUID, bool, error) {
	val, err := s.client.Get(ctx, customerKeyPrefix+sessionID).Result()
	if err == redis.Nil {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, nil
	}

	return id, true, nil
}

func (s *redisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, customerKeyPrefix+sessionID, cartKeyPrefix+sessionID).Err()
}
