package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/namnv2496/gameforge/internal/config"
	"github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

func NewOpenAIClient(conf config.LLMConfig) (*OpenAIClient, error) {
	apiKey := conf.APIKey()
	if apiKey == "" && conf.BaseURL == "" {
		slog.Error("API key not set", "env", conf.APIKeyEnv)
		return nil, fmt.Errorf("%s environment variable not set", conf.APIKeyEnv)
	}
	clientConf := openai.DefaultConfig(apiKey)
	if conf.BaseURL != "" {
		clientConf.BaseURL = conf.BaseURL
	}
	slog.Info("Initializing OpenAI client", "model", conf.Model, "base_url", clientConf.BaseURL)
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientConf),
		model:       conf.Model,
		temperature: conf.Temperature,
		timeout:     conf.RequestTimeout,
	}, nil
}

// Generate implements Generator.
func (o *OpenAIClient) Generate(ctx context.Context, systemInstruction, userContent string) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	slog.Debug("Generating text via OpenAI", "model", o.model, "prompt_chars", len(userContent))
	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: o.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: userContent},
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("OpenAI API call failed", "error", err)
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		slog.Warn("OpenAI returned no choices or empty content")
		return "", ErrEmptyResponse
	}
	slog.Debug("Received response from OpenAI", "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}
