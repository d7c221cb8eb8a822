package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	DefaultBaseURL = "https://api.groq.com"
	DefaultModel   = "llama-3.3-70b-versatile"

	completionTimeout = 30 * time.Second
)

// systemPrompt keeps the assistant in the comic-creation lane.
const systemPrompt = `You are a helpful AI assistant for PanelX, a comic creation platform.

Your role is to help comic creators with:
- Brainstorming story ideas and plot concepts
- Developing characters and their backgrounds
- Suggesting panel compositions and layouts
- Writing dialogue and captions
- Giving creative feedback on their work
- Providing comic creation tips and best practices

Be friendly, creative, and encouraging. Keep responses concise (2-3 sentences usually).
When users mention generating images, remind them they can type "generate: description" to create comic panels.
Be enthusiastic about their comic ideas!`

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Client calls a Groq style OpenAI-compatible chat completion endpoint.
type Client struct {
	apiKey  string
	model   string
	baseURL string

	client *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	return &Client{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
		client:  &http.Client{},
	}
}

// Configured reports whether an API key is present. Without one every
// completion fails and callers should degrade to a canned reply.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

func (c *Client) Model() string {
	return c.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        float64       `json:"top_p"`
}

type completionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends one user message with the PanelX system prompt and returns
// the generated text.
func (c *Client) Complete(ctx context.Context, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	payload := completionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: message},
		},
		Temperature: 0.7,
		MaxTokens:   300,
		TopP:        1,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/openai/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}

	return completion.Choices[0].Message.Content, nil
}
