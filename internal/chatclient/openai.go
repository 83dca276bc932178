package chatclient

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	openailib "github.com/sashabaranov/go-openai"
)

// OpenAIConfig mirrors the teacher's internal/llm/openai.Config shape,
// trimmed to what the Pack Pipeline and Vision Fallback actually need.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string // falls back to Model when empty
	MaxRetries  int
	HTTPTimeout time.Duration
}

// OpenAIClient implements ChatClient against any OpenAI-compatible endpoint
// (grounded on the teacher's internal/llm/openai.Client.CallLLM retry loop),
// with the teacher's hand-rolled linear backoff replaced by
// cenkalti/backoff/v5's exponential backoff at the same retry call site.
type OpenAIClient struct {
	client *openailib.Client
	cfg    OpenAIConfig
}

// NewOpenAIClient constructs a ChatClient from cfg.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("chatclient: API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("chatclient: model is required")
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 300 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	clientCfg := openailib.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.HTTPTimeout}

	return &OpenAIClient{
		client: openailib.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}, nil
}

func (c *OpenAIClient) retry(ctx context.Context, op func() (string, error)) (string, error) {
	result, err := backoff.Retry(ctx, func() (string, error) {
		out, err := op()
		if err != nil {
			log.Printf("[ChatClient] call failed, will retry: %v", err)
			return "", err
		}
		return out, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(uint(c.cfg.MaxRetries)))
	if err != nil {
		return "", fmt.Errorf("chatclient: call failed after %d attempts: %w", c.cfg.MaxRetries, err)
	}
	return result, nil
}

// Complete implements ChatClient.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string, opts Options) (string, error) {
	req := openailib.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openailib.ChatCompletionMessage{
			{Role: openailib.ChatMessageRoleSystem, Content: system},
			{Role: openailib.ChatMessageRoleUser, Content: user},
		},
	}
	applyOptions(&req, opts)

	return c.retry(ctx, func() (string, error) {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("no choices returned")
		}
		return resp.Choices[0].Message.Content, nil
	})
}

// CompleteWithImage implements ChatClient, using go-openai's multi-part
// message image support (image_url with a base64 data URI).
func (c *OpenAIClient) CompleteWithImage(ctx context.Context, user string, image []byte, opts Options) (string, error) {
	model := c.cfg.VisionModel
	if model == "" {
		model = c.cfg.Model
	}

	dataURI := "data:image/png;base64," + encodeBase64(image)
	req := openailib.ChatCompletionRequest{
		Model: model,
		Messages: []openailib.ChatCompletionMessage{
			{
				Role: openailib.ChatMessageRoleUser,
				MultiContent: []openailib.ChatMessagePart{
					{Type: openailib.ChatMessagePartTypeText, Text: user},
					{Type: openailib.ChatMessagePartTypeImageURL, ImageURL: &openailib.ChatMessageImageURL{URL: dataURI}},
				},
			},
		},
	}
	applyOptions(&req, opts)

	return c.retry(ctx, func() (string, error) {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("no choices returned")
		}
		return resp.Choices[0].Message.Content, nil
	})
}

func applyOptions(req *openailib.ChatCompletionRequest, opts Options) {
	if opts.MaxOutputTokens > 0 {
		req.MaxTokens = opts.MaxOutputTokens
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	if opts.ResponseFormat == ResponseJSON {
		req.ResponseFormat = &openailib.ChatCompletionResponseFormat{Type: openailib.ChatCompletionResponseFormatTypeJSONObject}
	}
}
