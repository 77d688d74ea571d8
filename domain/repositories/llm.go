package repositories

import "context"

// CompletionRequest carries the inputs of a single generation call.
type CompletionRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}

// LanguageModel abstracts any chat-completion provider.
type LanguageModel interface {
	// Complete sends one system+user exchange and returns the model's text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
