package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// FallbackReply is broadcast when the completion call fails for any reason.
const FallbackReply = "Sorry, I can't come up with an answer right now."

const askTimeout = 60 * time.Second

// Client calls the Gemini API for assistant replies. Every call is a fresh
// single-turn conversation; there is no memory between prompts.
type Client struct {
	client  *genai.Client
	model   string
	persona string
}

// New creates an assistant client.
func New(ctx context.Context, apiKey, model, persona string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("assistant API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{client: client, model: model, persona: persona}, nil
}

// Ask sends prompt as the sole user turn and returns the reply text. Failures
// are logged and mapped to FallbackReply; callers always get a usable string.
func (c *Client) Ask(ctx context.Context, prompt string) string {
	ctx, cancel := context.WithTimeout(ctx, askTimeout)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(c.persona, genai.RoleUser),
		},
	)
	if err != nil {
		log.Error().Err(err).Msg("Assistant completion failed")
		return FallbackReply
	}

	reply := resp.Text()
	if reply == "" {
		log.Warn().Msg("Assistant returned an empty completion")
		return FallbackReply
	}
	return reply
}
