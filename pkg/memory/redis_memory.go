package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/run-bigpig/riskguard/pkg/interfaces"
)

// RedisMemory implements a Redis-backed conversation store. It keeps chat
// history only; risk analysis results are never persisted here.
type RedisMemory struct {
	client       *redis.Client
	ttl          time.Duration
	keyPrefix    string
	retryOptions *RetryOptions
}

// RetryOptions configures retry behavior for Redis operations
type RetryOptions struct {
	MaxRetries    int
	RetryInterval time.Duration
	BackoffFactor float64
}

// RedisOption represents an option for configuring the Redis memory
type RedisOption func(*RedisMemory)

// WithTTL sets the TTL for conversation keys
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *RedisMemory) {
		r.ttl = ttl
	}
}

// WithKeyPrefix sets a custom prefix for conversation keys
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisMemory) {
		r.keyPrefix = prefix
	}
}

// WithRetryOptions configures retry behavior for Redis operations
func WithRetryOptions(options *RetryOptions) RedisOption {
	return func(r *RedisMemory) {
		r.retryOptions = options
	}
}

// RedisConfig contains connection configuration for Redis
type RedisConfig struct {
	// URL is the Redis address (e.g., "localhost:6379")
	URL string

	// Password is the Redis password
	Password string

	// DB is the Redis database number
	DB int
}

// NewRedisMemory creates a new Redis-backed conversation store
func NewRedisMemory(cfg RedisConfig, options ...RedisOption) (*RedisMemory, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	memory := &RedisMemory{
		client:    client,
		ttl:       24 * time.Hour,
		keyPrefix: "conversation",
	}

	for _, option := range options {
		option(memory)
	}

	return memory, nil
}

// AddMessage appends a message to the conversation list
func (r *RedisMemory) AddMessage(ctx context.Context, message interfaces.Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := r.key(ctx)
	return r.withRetry(func() error {
		if err := r.client.RPush(ctx, key, data).Err(); err != nil {
			return fmt.Errorf("failed to append message: %w", err)
		}
		if r.ttl > 0 {
			if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
				return fmt.Errorf("failed to set ttl: %w", err)
			}
		}
		return nil
	})
}

// GetMessages retrieves the conversation history
func (r *RedisMemory) GetMessages(ctx context.Context, options ...interfaces.GetMessagesOption) ([]interfaces.Message, error) {
	var raw []string
	err := r.withRetry(func() error {
		var err error
		raw, err = r.client.LRange(ctx, r.key(ctx), 0, -1).Result()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	messages := make([]interfaces.Message, 0, len(raw))
	for _, item := range raw {
		var msg interfaces.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		messages = append(messages, msg)
	}

	return filterMessages(messages, options...), nil
}

// Clear deletes the conversation history
func (r *RedisMemory) Clear(ctx context.Context) error {
	return r.withRetry(func() error {
		return r.client.Del(ctx, r.key(ctx)).Err()
	})
}

// Close closes the underlying Redis client
func (r *RedisMemory) Close() error {
	return r.client.Close()
}

func (r *RedisMemory) key(ctx context.Context) string {
	return fmt.Sprintf("%s:%s", r.keyPrefix, conversationID(ctx))
}

// withRetry retries an operation with exponential backoff when retry
// options are configured.
func (r *RedisMemory) withRetry(fn func() error) error {
	if r.retryOptions == nil {
		return fn()
	}

	var err error
	for attempt := 0; attempt <= r.retryOptions.MaxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt < r.retryOptions.MaxRetries {
			sleep := time.Duration(float64(r.retryOptions.RetryInterval) *
				math.Pow(r.retryOptions.BackoffFactor, float64(attempt)))
			time.Sleep(sleep)
		}
	}
	return err
}
