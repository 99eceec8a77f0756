// Package memory provides conversation stores the agent can use to retain
// chat history across turns: a bounded in-memory buffer and a Redis-backed
// store. Conversations are keyed by the conversation identifier carried in
// the context.
package memory

import (
	"context"
	"sync"

	"github.com/run-bigpig/riskguard/pkg/interfaces"
	"github.com/run-bigpig/riskguard/pkg/logging"
)

// defaultConversationID is used when the context carries no conversation
// identifier.
const defaultConversationID = "default"

// ConversationBuffer implements a simple in-memory conversation buffer
type ConversationBuffer struct {
	messages map[string][]interfaces.Message
	maxSize  int
	mu       sync.RWMutex
}

// Option represents an option for configuring the conversation buffer
type Option func(*ConversationBuffer)

// WithMaxSize sets the maximum number of messages to store per conversation
func WithMaxSize(size int) Option {
	return func(c *ConversationBuffer) {
		c.maxSize = size
	}
}

// NewConversationBuffer creates a new conversation buffer
func NewConversationBuffer(options ...Option) *ConversationBuffer {
	buffer := &ConversationBuffer{
		messages: make(map[string][]interfaces.Message),
		maxSize:  100,
	}

	for _, option := range options {
		option(buffer)
	}

	return buffer
}

// AddMessage adds a message to the buffer
func (c *ConversationBuffer) AddMessage(ctx context.Context, message interfaces.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := conversationID(ctx)
	c.messages[id] = append(c.messages[id], message)

	if c.maxSize > 0 && len(c.messages[id]) > c.maxSize {
		c.messages[id] = c.messages[id][len(c.messages[id])-c.maxSize:]
	}

	return nil
}

// GetMessages retrieves messages from the buffer
func (c *ConversationBuffer) GetMessages(ctx context.Context, options ...interfaces.GetMessagesOption) ([]interfaces.Message, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	messages, ok := c.messages[conversationID(ctx)]
	if !ok {
		return []interfaces.Message{}, nil
	}

	return filterMessages(messages, options...), nil
}

// Clear clears the buffer for a conversation
func (c *ConversationBuffer) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.messages, conversationID(ctx))
	return nil
}

// conversationID resolves the conversation key from the context.
func conversationID(ctx context.Context) string {
	if id, ok := logging.ConversationID(ctx); ok && id != "" {
		return id
	}
	return defaultConversationID
}

// filterMessages applies role and limit options to a message slice.
func filterMessages(messages []interfaces.Message, options ...interfaces.GetMessagesOption) []interfaces.Message {
	opts := &interfaces.GetMessagesOptions{}
	for _, option := range options {
		option(opts)
	}

	if len(opts.Roles) > 0 {
		var filtered []interfaces.Message
		for _, msg := range messages {
			for _, role := range opts.Roles {
				if msg.Role == role {
					filtered = append(filtered, msg)
					break
				}
			}
		}
		messages = filtered
	}

	if opts.Limit > 0 && opts.Limit < len(messages) {
		messages = messages[len(messages)-opts.Limit:]
	}

	return messages
}
