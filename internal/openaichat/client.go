package openaichat

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/models"
)

// Client wraps the OpenAI chat completions API. Any OpenAI compatible
// gateway (OpenRouter, a local proxy) works through BaseURL.
type Client struct {
	client    openai.Client
	modelName string
	baseURL   string
	logger    *zap.Logger
}

// Config for OpenAI client
type Config struct {
	APIKey     string
	ModelName  string // Default: "gpt-4o-mini"
	BaseURL    string
	MaxRetries int
}

// NewClient creates a new OpenAI client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if cfg.ModelName == "" {
		cfg.ModelName = "gpt-4o-mini"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	logger.Info("OpenAI client initialized",
		zap.String("model", cfg.ModelName),
		zap.String("base_url", cfg.BaseURL))

	return &Client{
		client:    openai.NewClient(opts...),
		modelName: cfg.ModelName,
		baseURL:   cfg.BaseURL,
		logger:    logger,
	}, nil
}

func (c *Client) Close() error {
	return nil
}

// Complete sends the system prompt followed by the ordered history.
func (c *Client) Complete(ctx context.Context, systemPrompt string, messages []models.ChatMessage, maxTokens int) (string, error) {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if systemPrompt != "" {
		params = append(params, openai.SystemMessage(systemPrompt))
	}
	for _, m := range messages {
		switch m.Role {
		case models.ChatRoleAssistant:
			params = append(params, openai.AssistantMessage(m.Content))
		case models.ChatRoleSystem:
			params = append(params, openai.SystemMessage(m.Content))
		default:
			params = append(params, openai.UserMessage(m.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(c.modelName),
		Messages:  params,
		MaxTokens: openai.Int(int64(maxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from openai")
	}

	c.logger.Debug("OpenAI completion received",
		zap.String("model", c.modelName),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens))

	return resp.Choices[0].Message.Content, nil
}

func (c *Client) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"provider": "openai",
		"model":    c.modelName,
		"base_url": c.baseURL,
	}
}
