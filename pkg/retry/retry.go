// Package retry provides a small retry policy and executor built on
// exponential backoff, used by the LLM clients for transient failures.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy defines the retry policy configuration
type Policy struct {
	InitialInterval    time.Duration
	BackoffCoefficient float64
	MaximumInterval    time.Duration
	MaximumAttempts    uint64
}

// Option represents a retry policy option
type Option func(*Policy)

// WithInitialInterval sets the initial interval for retries
func WithInitialInterval(interval time.Duration) Option {
	return func(p *Policy) {
		p.InitialInterval = interval
	}
}

// WithBackoffCoefficient sets the backoff coefficient
func WithBackoffCoefficient(coefficient float64) Option {
	return func(p *Policy) {
		p.BackoffCoefficient = coefficient
	}
}

// WithMaximumInterval sets the maximum interval between retries
func WithMaximumInterval(interval time.Duration) Option {
	return func(p *Policy) {
		p.MaximumInterval = interval
	}
}

// WithMaxAttempts sets the maximum number of retry attempts
func WithMaxAttempts(attempts uint64) Option {
	return func(p *Policy) {
		p.MaximumAttempts = attempts
	}
}

// NewPolicy creates a new retry policy with default values
func NewPolicy(opts ...Option) *Policy {
	policy := &Policy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    30 * time.Second,
		MaximumAttempts:    3,
	}

	for _, opt := range opts {
		opt(policy)
	}

	return policy
}

// Executor runs operations under a retry policy.
type Executor struct {
	policy *Policy
}

// NewExecutor creates a new executor for the given policy.
func NewExecutor(policy *Policy) *Executor {
	if policy == nil {
		policy = NewPolicy()
	}
	return &Executor{policy: policy}
}

// Execute runs fn with exponential backoff until it succeeds, the policy's
// attempts are exhausted, or the context is cancelled.
func (e *Executor) Execute(ctx context.Context, fn func() error) error {
	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = e.policy.InitialInterval
	exponential.Multiplier = e.policy.BackoffCoefficient
	exponential.MaxInterval = e.policy.MaximumInterval

	attempts := e.policy.MaximumAttempts
	if attempts == 0 {
		attempts = 1
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(exponential, attempts-1),
		ctx,
	)
	return backoff.Retry(fn, b)
}
