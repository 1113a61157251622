package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/talenthunt/screener/internal/ai"
)

const (
	defaultChatModel      = "gemini-2.5-flash"
	defaultEmbeddingModel = "gemini-embedding-001"
)

// Client wraps the Google GenAI client behind the screener's chat and
// embedding provider interfaces.
type Client struct {
	client         *genai.Client
	chatModel      string
	embeddingModel string
}

// New creates a Client configured for the Gemini API backend.
func New(ctx context.Context, apiKey, chatModel, embeddingModel string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if chatModel = strings.TrimSpace(chatModel); chatModel == "" {
		chatModel = defaultChatModel
	}
	if embeddingModel = strings.TrimSpace(embeddingModel); embeddingModel == "" {
		embeddingModel = defaultEmbeddingModel
	}

	return &Client{client: client, chatModel: chatModel, embeddingModel: embeddingModel}, nil
}

// GenerateContent sends the prompt to Gemini and returns the joined textual response.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.client == nil {
		return "", errors.New("gemini client is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	ctx, cancel := ai.CallContext(ctx, 0)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(ctx, c.chatModel, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

// Embed returns the embedding vector for the provided text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("gemini client is not initialized")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("text must not be empty")
	}

	ctx, cancel := ai.CallContext(ctx, 0)
	defer cancel()

	resp, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}

	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("gemini api returned empty embedding")
	}

	return resp.Embeddings[0].Values, nil
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.chatModel
}
