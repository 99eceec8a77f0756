// Package ollama implements the LLM interface against a local Ollama
// server, speaking its OpenAI-compatible chat completion API.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/run-bigpig/riskguard/pkg/interfaces"
	"github.com/run-bigpig/riskguard/pkg/logging"
	"github.com/run-bigpig/riskguard/pkg/retry"
	"github.com/sashabaranov/go-openai"
)

// DefaultBaseURL is the default Ollama server address.
const DefaultBaseURL = "http://localhost:11434"

// healthCheckTimeout bounds the health probe independently of the
// generation timeout.
const healthCheckTimeout = 5 * time.Second

// Client implements the LLM interface for Ollama
type Client struct {
	API           *openai.Client
	Model         string
	baseURL       string
	httpClient    *http.Client
	logger        logging.Logger
	retryExecutor *retry.Executor
}

// Option represents an option for configuring the Ollama client
type Option func(*Client)

// WithModel sets the model for the Ollama client
func WithModel(model string) Option {
	return func(c *Client) {
		c.Model = model
	}
}

// WithLogger sets the logger for the Ollama client
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRetry configures retry policy for the client
func WithRetry(opts ...retry.Option) Option {
	return func(c *Client) {
		c.retryExecutor = retry.NewExecutor(retry.NewPolicy(opts...))
	}
}

// WithHTTPClient sets the HTTP client used for health checks
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new Ollama client. Ollama exposes an
// OpenAI-compatible API under /v1, which the generation calls use; the
// health check hits the native /api/tags endpoint.
func NewClient(baseURL string, options ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	config := openai.DefaultConfig("ollama") // Ollama ignores the API key
	config.BaseURL = baseURL + "/v1"

	client := &Client{
		API:        openai.NewClientWithConfig(config),
		Model:      "llama3.1",
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: healthCheckTimeout},
		logger:     logging.New(),
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// Name returns the name of the LLM provider
func (c *Client) Name() string {
	return "ollama"
}

// HealthCheck reports whether the Ollama server is reachable
func (c *Client) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "Ollama health check failed", map[string]interface{}{"error": err.Error()})
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// Generate generates text from a prompt
func (c *Client) Generate(ctx context.Context, prompt string, options ...interfaces.GenerateOption) (*interfaces.LLMResponse, error) {
	params := defaultOptions()
	for _, option := range options {
		option(params)
	}

	messages := []openai.ChatCompletionMessage{}
	if params.SystemMessage != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: params.SystemMessage,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	c.logger.Debug(ctx, "Generating response", map[string]interface{}{
		"model":         c.Model,
		"prompt_length": len(prompt),
	})

	return c.complete(ctx, messages, params)
}

// Chat generates text from an ordered message history
func (c *Client) Chat(ctx context.Context, history []interfaces.Message, options ...interfaces.GenerateOption) (*interfaces.LLMResponse, error) {
	params := defaultOptions()
	for _, option := range options {
		option(params)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	if params.SystemMessage != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: params.SystemMessage,
		})
	}
	for _, msg := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	c.logger.Debug(ctx, "Chat completion", map[string]interface{}{
		"model":         c.Model,
		"message_count": len(history),
	})

	return c.complete(ctx, messages, params)
}

func (c *Client) complete(ctx context.Context, messages []openai.ChatCompletionMessage, params *interfaces.GenerateOptions) (*interfaces.LLMResponse, error) {
	request := openai.ChatCompletionRequest{
		Model:       c.Model,
		Messages:    messages,
		Temperature: float32(params.Temperature),
	}
	if params.MaxTokens > 0 {
		request.MaxTokens = params.MaxTokens
	}

	var response openai.ChatCompletionResponse
	call := func() error {
		var err error
		response, err = c.API.CreateChatCompletion(ctx, request)
		return err
	}

	var err error
	if c.retryExecutor != nil {
		err = c.retryExecutor.Execute(ctx, call)
	} else {
		err = call()
	}
	if err != nil {
		c.logger.Error(ctx, "Generation failed", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("ollama generation failed: %w", err)
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("ollama returned no choices")
	}

	return &interfaces.LLMResponse{
		Text:  response.Choices[0].Message.Content,
		Model: c.Model,
		Metadata: map[string]interface{}{
			"prompt_tokens":     response.Usage.PromptTokens,
			"completion_tokens": response.Usage.CompletionTokens,
			"total_tokens":      response.Usage.TotalTokens,
		},
		Timestamp: time.Now(),
	}, nil
}

func defaultOptions() *interfaces.GenerateOptions {
	return &interfaces.GenerateOptions{
		Temperature: 0.7,
	}
}
