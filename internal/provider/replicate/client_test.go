package replicate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeProvider is a minimal submit-then-poll prediction API
type fakeProvider struct {
	t *testing.T

	// statuses returned by consecutive status polls
	statuses []string
	output   any
	polls    atomic.Int64

	submitted struct {
		Version string          `json:"version"`
		Input   generationInput `json:"input"`
	}
}

func (f *fakeProvider) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/predictions", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(f.t, "Token r8_test", r.Header.Get("Authorization"))
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&f.submitted))

		w.WriteHeader(http.StatusCreated)
		err := json.NewEncoder(w).Encode(map[string]any{"id": "pred-1", "status": "starting"})
		require.NoError(f.t, err)
	})

	mux.HandleFunc("GET /v1/predictions/{id}", func(w http.ResponseWriter, r *http.Request) {
		n := int(f.polls.Add(1)) - 1
		status := f.statuses[min(n, len(f.statuses)-1)]

		body := map[string]any{"id": r.PathValue("id"), "status": status}
		if status == "succeeded" {
			body["output"] = f.output
		}
		if status == "failed" {
			body["error"] = "NSFW content detected"
		}
		err := json.NewEncoder(w).Encode(body)
		require.NoError(f.t, err)
	})

	return mux
}

func newTestClient(t *testing.T, f *fakeProvider, maxPolls int) *Client {
	t.Helper()

	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	return NewClient(Config{
		APIKey:       "r8_test",
		BaseURL:      srv.URL,
		PollInterval: time.Millisecond,
		MaxPolls:     maxPolls,
	})
}

func TestClient_Generate(t *testing.T) {
	t.Run("polls until success", func(t *testing.T) {
		f := &fakeProvider{t: t, statuses: []string{"starting", "processing", "succeeded"}, output: []string{"https://img/result.png"}}
		c := newTestClient(t, f, 10)

		url, err := c.Generate(t.Context(), "a cat in space armor", "")

		require.NoError(t, err)
		require.Equal(t, "https://img/result.png", url)
		require.GreaterOrEqual(t, f.polls.Load(), int64(3), "should have polled through the intermediate states")
	})

	t.Run("enhances the prompt", func(t *testing.T) {
		f := &fakeProvider{t: t, statuses: []string{"succeeded"}, output: "https://img/r.png"}
		c := newTestClient(t, f, 10)

		_, err := c.Generate(t.Context(), "a cat", "")
		require.NoError(t, err)

		input := f.submitted.Input
		require.Contains(t, input.Prompt, "a cat")
		require.Contains(t, input.Prompt, "comic book art")
		require.Contains(t, input.Prompt, "professional comic book illustration")
		require.Equal(t, 896, input.Width)
		require.Equal(t, 1152, input.Height)
		require.NotEmpty(t, input.NegativePrompt)
		require.Equal(t, DefaultModelVersion, f.submitted.Version)
	})

	t.Run("explicit style replaces the default", func(t *testing.T) {
		f := &fakeProvider{t: t, statuses: []string{"succeeded"}, output: "https://img/r.png"}
		c := newTestClient(t, f, 10)

		_, err := c.Generate(t.Context(), "a cat", "watercolor")
		require.NoError(t, err)

		require.Contains(t, f.submitted.Input.Prompt, "watercolor")
		require.NotContains(t, f.submitted.Input.Prompt, "comic book art")
	})

	t.Run("string output works too", func(t *testing.T) {
		f := &fakeProvider{t: t, statuses: []string{"succeeded"}, output: "https://img/single.png"}
		c := newTestClient(t, f, 10)

		url, err := c.Generate(t.Context(), "a cat", "")

		require.NoError(t, err)
		require.Equal(t, "https://img/single.png", url)
	})

	t.Run("failed prediction", func(t *testing.T) {
		f := &fakeProvider{t: t, statuses: []string{"processing", "failed"}}
		c := newTestClient(t, f, 10)

		_, err := c.Generate(t.Context(), "something prohibited", "")

		var perr *PredictionError
		require.ErrorAs(t, err, &perr)
		require.Equal(t, CodeFailed, perr.Code)
		require.Contains(t, perr.Error(), "NSFW content detected")
	})

	t.Run("poll exhaustion is a timeout", func(t *testing.T) {
		f := &fakeProvider{t: t, statuses: []string{"processing"}}
		c := newTestClient(t, f, 3)

		_, err := c.Generate(t.Context(), "a cat", "")

		var perr *PredictionError
		require.ErrorAs(t, err, &perr)
		require.Equal(t, CodeTimeout, perr.Code)
		require.Equal(t, int64(3), f.polls.Load(), "should stop after max polls")
	})

	t.Run("context cancellation is a timeout", func(t *testing.T) {
		f := &fakeProvider{t: t, statuses: []string{"processing"}}
		srv := httptest.NewServer(f.handler())
		t.Cleanup(srv.Close)

		c := NewClient(Config{
			APIKey:       "r8_test",
			BaseURL:      srv.URL,
			PollInterval: time.Hour, // never ticks, only ctx can end the wait
			MaxPolls:     10,
		})

		ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		defer cancel()

		_, err := c.Generate(ctx, "a cat", "")

		var perr *PredictionError
		require.ErrorAs(t, err, &perr)
		require.Equal(t, CodeTimeout, perr.Code)
	})

	t.Run("unconfigured client fails fast", func(t *testing.T) {
		c := NewClient(Config{})

		_, err := c.Generate(t.Context(), "a cat", "")

		var perr *PredictionError
		require.ErrorAs(t, err, &perr)
		require.Equal(t, CodeUnavailable, perr.Code)
	})

	t.Run("submit rejection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		t.Cleanup(srv.Close)

		c := NewClient(Config{APIKey: "r8_bad", BaseURL: srv.URL, PollInterval: time.Millisecond})

		_, err := c.Generate(t.Context(), "a cat", "")

		var perr *PredictionError
		require.ErrorAs(t, err, &perr)
		require.Equal(t, CodeUnknown, perr.Code)
	})
}

func TestPredictionError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := NewPredictionError(CodeFailed, inner)

	require.ErrorIs(t, err, inner)
}
