package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	DefaultBaseURL = "https://api.replicate.com"

	// SDXL version pinned by the platform
	DefaultModelVersion = "39ed52f2a78e934b3ba6e2a89f5b1c712de7dfea535525255b1aa35c5565e08b"

	defaultPollInterval = time.Second
	defaultMaxPolls     = 60
)

const (
	CodeFailed      = "failed"
	CodeTimeout     = "timeout"
	CodeUnavailable = "unavailable"
	CodeUnknown     = "unknown"
)

// PredictionError distinguishes the terminal failure modes of a generation:
// the provider reported failure, the bounded poll loop ran out, or the call
// itself broke.
type PredictionError struct {
	Code string
	Err  error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("code: %s, error: %v", e.Code, e.Err)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}

func NewPredictionError(code string, err error) *PredictionError {
	return &PredictionError{Code: code, Err: err}
}

type Config struct {
	APIKey       string
	BaseURL      string
	ModelVersion string

	// PollInterval and MaxPolls bound the status loop, defaults are one
	// second and sixty attempts.
	PollInterval time.Duration
	MaxPolls     int
}

// Client generates comic panel images through a Replicate style
// submit-then-poll prediction API.
type Client struct {
	apiKey       string
	baseURL      string
	modelVersion string
	pollInterval time.Duration
	maxPolls     int

	client *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ModelVersion == "" {
		cfg.ModelVersion = DefaultModelVersion
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = defaultMaxPolls
	}

	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		modelVersion: cfg.ModelVersion,
		pollInterval: cfg.PollInterval,
		maxPolls:     cfg.MaxPolls,
		client:       &http.Client{},
	}
}

func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  *string         `json:"error"`
}

type generationInput struct {
	Prompt            string  `json:"prompt"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	NumOutputs        int     `json:"num_outputs"`
	GuidanceScale     float64 `json:"guidance_scale"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	NegativePrompt    string  `json:"negative_prompt"`
}

// Generate submits a prediction for the prompt and polls until it reaches a
// terminal state. Returns the URL of the generated image.
func (c *Client) Generate(ctx context.Context, prompt string, style string) (string, error) {
	if !c.Configured() {
		return "", NewPredictionError(CodeUnavailable, fmt.Errorf("api key not set"))
	}
	if style == "" {
		style = "comic book art"
	}

	enhanced := fmt.Sprintf("%s, %s, highly detailed, professional comic book illustration, vibrant colors", prompt, style)

	p, err := c.submit(ctx, generationInput{
		Prompt:            enhanced,
		Width:             896,
		Height:            1152,
		NumOutputs:        1,
		GuidanceScale:     7.5,
		NumInferenceSteps: 30,
		NegativePrompt:    "blurry, bad anatomy, ugly, distorted, low quality",
	})
	if err != nil {
		return "", err
	}

	return c.poll(ctx, p.ID)
}

func (c *Client) submit(ctx context.Context, input generationInput) (prediction, error) {
	var p prediction

	payload := struct {
		Version string          `json:"version"`
		Input   generationInput `json:"input"`
	}{Version: c.modelVersion, Input: input}

	body, err := json.Marshal(payload)
	if err != nil {
		return p, NewPredictionError(CodeUnknown, fmt.Errorf("failed to encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/predictions", bytes.NewReader(body))
	if err != nil {
		return p, NewPredictionError(CodeUnknown, fmt.Errorf("failed to create request: %w", err))
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return p, NewPredictionError(CodeUnknown, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusCreated {
		return p, NewPredictionError(CodeUnknown, fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return p, NewPredictionError(CodeUnknown, fmt.Errorf("failed to decode response: %w", err))
	}

	return p, nil
}

// poll checks the prediction status at fixed intervals, at most maxPolls
// times. Provider failure and poll exhaustion are reported as distinct codes.
func (c *Client) poll(ctx context.Context, id string) (string, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < c.maxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return "", NewPredictionError(CodeTimeout, ctx.Err())
		case <-ticker.C:
		}

		p, err := c.getPrediction(ctx, id)
		if err != nil {
			return "", err
		}

		switch p.Status {
		case "succeeded":
			return outputURL(p.Output)
		case "failed":
			msg := "generation failed"
			if p.Error != nil {
				msg = *p.Error
			}
			return "", NewPredictionError(CodeFailed, fmt.Errorf("%s", msg))
		}
	}

	return "", NewPredictionError(CodeTimeout, fmt.Errorf("no terminal status after %d attempts", c.maxPolls))
}

func (c *Client) getPrediction(ctx context.Context, id string) (prediction, error) {
	var p prediction

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/predictions/"+id, nil)
	if err != nil {
		return p, NewPredictionError(CodeUnknown, fmt.Errorf("failed to create request: %w", err))
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return p, NewPredictionError(CodeUnknown, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return p, NewPredictionError(CodeUnknown, fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return p, NewPredictionError(CodeUnknown, fmt.Errorf("failed to decode response: %w", err))
	}

	return p, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
}

// outputURL picks the image URL out of the output field, which is either a
// single string or a list of strings depending on the model.
func outputURL(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", NewPredictionError(CodeFailed, fmt.Errorf("no image generated"))
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return single, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0], nil
	}

	return "", NewPredictionError(CodeFailed, fmt.Errorf("no image generated"))
}
