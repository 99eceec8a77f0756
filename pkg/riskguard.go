package riskguard

import (
	"github.com/run-bigpig/riskguard/pkg/agent"
	"github.com/run-bigpig/riskguard/pkg/config"
	"github.com/run-bigpig/riskguard/pkg/interfaces"
	"github.com/run-bigpig/riskguard/pkg/logging"
	"github.com/run-bigpig/riskguard/pkg/memory"
)

// NewAgent creates a new risk-aware agent with the given options
func NewAgent(options ...agent.Option) (*agent.Agent, error) {
	return agent.NewAgent(options...)
}

// WithLLM sets the LLM for the agent
func WithLLM(llm interfaces.LLM) agent.Option {
	return agent.WithLLM(llm)
}

// WithMemory sets the memory for the agent
func WithMemory(memory interfaces.Memory) agent.Option {
	return agent.WithMemory(memory)
}

// WithTracer sets the tracer for the agent
func WithTracer(tracer interfaces.Tracer) agent.Option {
	return agent.WithTracer(tracer)
}

// WithLogger sets the logger for the agent
func WithLogger(logger logging.Logger) agent.Option {
	return agent.WithLogger(logger)
}

// WithConfig sets the risk configuration for the agent
func WithConfig(cfg config.RiskConfig) agent.Option {
	return agent.WithConfig(cfg)
}

// DefaultConfig returns the default risk configuration
func DefaultConfig() config.RiskConfig {
	return config.Default()
}

// LoadConfig loads a risk configuration from a YAML file
func LoadConfig(path string) (config.RiskConfig, error) {
	return config.Load(path)
}

// NewConversationBuffer creates a new in-memory conversation buffer
func NewConversationBuffer(options ...memory.Option) *memory.ConversationBuffer {
	return memory.NewConversationBuffer(options...)
}

// NewRedisMemory creates a new Redis-backed conversation memory
func NewRedisMemory(cfg memory.RedisConfig, options ...memory.RedisOption) (*memory.RedisMemory, error) {
	return memory.NewRedisMemory(cfg, options...)
}
