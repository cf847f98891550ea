// Package llm wraps the OpenAI chat-completion API behind the small
// Complete surface the resolver and synthesizer consume.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
)

// DefaultModel is the chat model used for intent resolution and
// answer synthesis.
const DefaultModel = openai.ChatModelGPT4o

// Client issues chat completions against one model.
type Client struct {
	client *openai.Client
	model  openai.ChatModel
}

// NewClient creates a completion client over an existing OpenAI
// client. An empty model falls back to DefaultModel.
func NewClient(client *openai.Client, model string) *Client {
	m := DefaultModel
	if model != "" {
		m = openai.ChatModel(model)
	}
	return &Client{client: client, model: m}
}

// Complete sends one system+user exchange at the given temperature and
// returns the trimmed reply text.
func (c *Client) Complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:       c.model,
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
