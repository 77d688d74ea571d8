package llm

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/danhartono/amara/server/domain/repositories"
)

const defaultOpenAIModel = openai.GPT3Dot5Turbo

// OpenAIConfig holds configuration for the OpenAILLM adapter.
// Required fields:
// - APIKey: Your OpenAI API key
// Optional fields with defaults:
// - APIBaseURL: Override for the API base URL (useful for tests and proxies)
// - Model: The model ID to use (default: gpt-3.5-turbo)
type OpenAIConfig struct {
	APIKey     string
	APIBaseURL string
	Model      string
}

// OpenAILLM implements the LanguageModel interface using OpenAI chat completions
type OpenAILLM struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Ensure OpenAILLM implements the LanguageModel interface
var _ repositories.LanguageModel = (*OpenAILLM)(nil)

// ValidateOpenAIConfig validates the OpenAIConfig
func ValidateOpenAIConfig(config OpenAIConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("OpenAI API key is required")
	}
	return nil
}

// NewOpenAILLM creates a new OpenAI chat-completion adapter
func NewOpenAILLM(config OpenAIConfig, logger *zap.Logger) (*OpenAILLM, error) {
	if err := ValidateOpenAIConfig(config); err != nil {
		return nil, err
	}

	model := config.Model
	if model == "" {
		model = defaultOpenAIModel
		logger.Info("Using default model", zap.String("model", model))
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.APIBaseURL != "" {
		clientConfig.BaseURL = config.APIBaseURL
	}

	return &OpenAILLM{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		logger: logger,
	}, nil
}

// Complete sends one system+user exchange and returns the model's text
func (o *OpenAILLM) Complete(ctx context.Context, req repositories.CompletionRequest) (string, error) {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages:    messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	content := resp.Choices[0].Message.Content
	o.logger.Debug("Chat completion succeeded",
		zap.String("model", o.model),
		zap.Int("responseLength", len(content)))

	return content, nil
}

// NewOpenAIConfigFromEnv creates a new OpenAIConfig from environment variables
func NewOpenAIConfigFromEnv() OpenAIConfig {
	return OpenAIConfig{
		APIKey:     os.Getenv("OPENAI_API_KEY"),
		APIBaseURL: os.Getenv("OPENAI_API_BASE_URL"),
		Model:      os.Getenv("OPENAI_MODEL"),
	}
}
