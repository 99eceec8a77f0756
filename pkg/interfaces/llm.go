package interfaces

import (
	"context"
	"time"
)

// LLMResponse is the response returned by a generation provider.
type LLMResponse struct {
	// Text is the generated text
	Text string

	// Model is the model that produced the text
	Model string

	// Metadata contains provider-specific details (token counts, timings)
	Metadata map[string]interface{}

	// Timestamp is when the response was produced
	Timestamp time.Time
}

// LLM represents a large language model provider
type LLM interface {
	// HealthCheck reports whether the provider is reachable and ready
	HealthCheck(ctx context.Context) bool

	// Generate generates text based on the provided prompt
	Generate(ctx context.Context, prompt string, options ...GenerateOption) (*LLMResponse, error)

	// Chat generates text from an ordered message history
	Chat(ctx context.Context, messages []Message, options ...GenerateOption) (*LLMResponse, error)

	// Name returns the name of the LLM provider
	Name() string
}

// GenerateOption represents options for text generation
type GenerateOption func(options *GenerateOptions)

// GenerateOptions contains configuration for text generation
type GenerateOptions struct {
	SystemMessage string  // System message for chat models
	Temperature   float64 // Temperature for the generation
	MaxTokens     int     // Maximum tokens to generate, 0 for provider default
}

// WithSystemMessage sets the system message for the generation
func WithSystemMessage(message string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemMessage = message
	}
}

// WithTemperature sets the sampling temperature for the generation
func WithTemperature(temperature float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temperature
	}
}

// WithMaxTokens limits the number of generated tokens
func WithMaxTokens(maxTokens int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = maxTokens
	}
}
