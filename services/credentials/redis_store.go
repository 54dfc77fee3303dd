package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/upb/cognate/models"
)

// DefaultRedisKey is the hash that holds credentials, one field per provider
const DefaultRedisKey = "cognate:credentials"

// RedisStore keeps credentials in a Redis hash. Values are encrypted when a
// cipher is configured.
type RedisStore struct {
	client *redis.Client
	key    string
	cipher *Cipher
}

// NewRedisStore creates a store on the given hash key (DefaultRedisKey when empty)
func NewRedisStore(client *redis.Client, key string, cipher *Cipher) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key, cipher: cipher}
}

// Get implements Store
func (s *RedisStore) Get(ctx context.Context, providerID string) (string, bool, error) {
	raw, err := s.client.HGet(ctx, s.key, providerID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get credential %q: %w", providerID, err)
	}

	if s.cipher == nil {
		return raw, true, nil
	}
	plaintext, err := s.cipher.Decrypt(raw)
	if err != nil {
		return "", false, fmt.Errorf("credential %q: %w", providerID, err)
	}
	return string(plaintext), true, nil
}

// Set implements Store
func (s *RedisStore) Set(ctx context.Context, providerID, value string) error {
	if !models.IsKnownProvider(providerID) {
		return nil
	}

	stored := value
	if s.cipher != nil {
		encoded, err := s.cipher.Encrypt([]byte(value))
		if err != nil {
			return err
		}
		stored = encoded
	}

	if err := s.client.HSet(ctx, s.key, providerID, stored).Err(); err != nil {
		return fmt.Errorf("redis set credential %q: %w", providerID, err)
	}
	return nil
}

// Delete implements Store
func (s *RedisStore) Delete(ctx context.Context, providerID string) error {
	if !models.IsKnownProvider(providerID) {
		return nil
	}

	if err := s.client.HDel(ctx, s.key, providerID).Err(); err != nil {
		return fmt.Errorf("redis delete credential %q: %w", providerID, err)
	}
	return nil
}

// Ping checks connectivity to Redis
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
