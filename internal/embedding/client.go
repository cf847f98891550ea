// Package embedding computes embedding vectors for unit contents and
// queries via the OpenAI embeddings API.
package embedding

import (
	"fmt"
	"os"

	"github.com/openai/openai-go"
)

// Client wraps the OpenAI client used for embedding generation.
type Client struct {
	client *openai.Client
}

// NewClient creates an OpenAI client for embedding generation. The
// OPENAI_API_KEY environment variable must be set.
func NewClient() (*Client, error) {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	client := openai.NewClient()
	return &Client{client: &client}, nil
}

// Client returns the underlying OpenAI client so other packages can
// share one connection (e.g. chat completions).
func (c *Client) Client() *openai.Client {
	return c.client
}
