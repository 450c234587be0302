package groq

import (
	"context"
	"fmt"

	"github.com/conneroisu/groq-go"

	"ecclesia/internal/llm"
)

var _ llm.Generator = (*Client)(nil)

// Client serves instruction-only requests. Groq has no response schema
// support, so structured requests fall back to JSON-object mode.
type Client struct {
	client *groq.Client
	model  groq.ChatModel
}

func NewClient(apiKey, model string, opts ...groq.Opts) (*Client, error) {
	client, err := groq.NewClient(apiKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}

	return &Client{
		client: client,
		model:  groq.ChatModel(model),
	}, nil
}

func (c *Client) Name() string {
	return "groq"
}

// Generate ignores req.Model: the Gemini model tiers have no Groq
// counterpart, so the configured Groq model is always used.
func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	completion := groq.ChatCompletionRequest{
		Model: c.model,
		Messages: []groq.ChatCompletionMessage{
			{Role: groq.RoleSystem, Content: req.System},
			{Role: groq.RoleUser, Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   int(req.MaxOutputTokens),
		ResponseFormat: &groq.ChatResponseFormat{
			Type: "json_object",
		},
	}

	resp, err := c.client.ChatCompletion(ctx, completion)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	// No choices is reported as an empty reply, like a candidate without text.
	if len(resp.Choices) == 0 {
		return "", nil
	}

	return resp.Choices[0].Message.Content, nil
}
