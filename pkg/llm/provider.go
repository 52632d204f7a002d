package llm

import (
	"context"
)

// Standard roles shared by all providers
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Delta is one unit of a streamed model response. The stream channel is
// closed after the final delta; a delta carrying a non-nil Err is always
// the last one sent.
type Delta struct {
	Token string
	Err   error
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(maxTokens int) Option {
	return func(o *Options) {
		o.MaxTokens = maxTokens
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// Provider defines the contract for any LLM backend
type Provider interface {
	// Invoke sends a prompt to the model and returns the complete response
	Invoke(ctx context.Context, prompt []Message, options ...Option) (string, error)

	// Stream sends a prompt to the model and returns the response
	// incrementally as it is generated
	Stream(ctx context.Context, prompt []Message, options ...Option) (<-chan Delta, error)
}
