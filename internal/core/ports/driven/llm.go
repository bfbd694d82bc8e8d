package driven

import "context"

// LLMService provides text generation for grounded answering.
// The single Complete method keeps the port narrow so the generator
// core can be tested with deterministic stand-ins.
type LLMService interface {
	// Complete produces a completion for the given messages.
	// Implementations must pass the options through unchanged: the
	// generator relies on zero-temperature decoding for
	// reproducibility across repeated queries.
	Complete(ctx context.Context, messages []ChatMessage, opts CompleteOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// CompleteOptions configures decoding behaviour.
type CompleteOptions struct {
	// MaxTokens bounds the output length.
	MaxTokens int

	// Temperature controls randomness. The answer generator always
	// uses 0 to favour determinism over diversity.
	Temperature float64

	// TopP is the nucleus sampling parameter.
	TopP float64
}
