package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// HTTPConfig configures an OpenAI-compatible chat-completions adapter.
type HTTPConfig struct {
	// Name identifies the adapter in logs and errors. Default: "llm".
	Name string `yaml:"name"`

	// BaseURL is the API root, e.g. "https://api.openai.com/v1".
	BaseURL string `yaml:"base_url"`

	// APIKey is sent as a bearer token when non-empty.
	APIKey string `yaml:"api_key"`

	// Model is the model identifier requested from the endpoint.
	Model string `yaml:"model"`

	// Timeout bounds each HTTP request. Default: 60s.
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the retry budget for transient failures. Default: 2.
	MaxRetries int `yaml:"max_retries"`
}

// HTTPAdapter talks to an OpenAI-compatible /chat/completions endpoint.
// It implements StreamingAdapter.
type HTTPAdapter struct {
	cfg    HTTPConfig
	client *http.Client
	logger *slog.Logger
}

// NewHTTPAdapter creates an adapter from the configuration, applying
// defaults for unset fields.
func NewHTTPAdapter(cfg HTTPConfig, logger *slog.Logger) *HTTPAdapter {
	if cfg.Name == "" {
		cfg.Name = "llm"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With("component", "llm.http", "adapter", cfg.Name),
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Complete implements Adapter.
func (a *HTTPAdapter) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := a.send(ctx, prompt, false)
	if err != nil {
		return "", err
	}
	defer body.Close()

	var resp chatResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return "", &AdapterError{Provider: a.cfg.Name, Message: "invalid response body", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &AdapterError{Provider: a.cfg.Name, Message: "response carried no choices"}
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteStream implements StreamingAdapter. It decodes the SSE event
// stream, forwarding each content delta to onChunk in arrival order.
func (a *HTTPAdapter) CompleteStream(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	body, err := a.send(ctx, prompt, true)
	if err != nil {
		return "", err
	}
	defer body.Close()

	var full strings.Builder
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return full.String(), err
		}

		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var resp chatResponse
		if err := json.Unmarshal([]byte(payload), &resp); err != nil {
			a.logger.Warn("skipping undecodable stream event", "error", err)
			continue
		}
		if len(resp.Choices) == 0 {
			continue
		}

		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		onChunk(delta)
	}
	if err := scanner.Err(); err != nil {
		return full.String(), &AdapterError{Provider: a.cfg.Name, Message: "stream read failed", Err: err}
	}

	return full.String(), nil
}

// send posts the chat request, retrying transient failures with exponential
// backoff, and returns the response body on a 2xx status.
func (a *HTTPAdapter) send(ctx context.Context, prompt string, stream bool) (io.ReadCloser, error) {
	payload, err := json.Marshal(chatRequest{
		Model:    a.cfg.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   stream,
	})
	if err != nil {
		return nil, &AdapterError{Provider: a.cfg.Name, Message: "failed to encode request", Err: err}
	}

	url := strings.TrimSuffix(a.cfg.BaseURL, "/") + "/chat/completions"
	backoff := 250 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt <= a.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, &AdapterError{Provider: a.cfg.Name, Message: "failed to build request", Err: err}
		}
		req.Header.Set("Content-Type", "application/json")
		if a.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
		}

		resp, err := a.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = &AdapterError{Provider: a.cfg.Name, Message: "request failed", Err: err}
			a.logger.Warn("completion request failed", "attempt", attempt+1, "error", err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp.Body, nil
		}

		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		apiErr := &AdapterError{
			Provider:   a.cfg.Name,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(detail)),
		}
		if !apiErr.Retryable() {
			return nil, apiErr
		}
		lastErr = apiErr
		a.logger.Warn("transient completion failure",
			"attempt", attempt+1,
			"status", resp.StatusCode,
		)
	}

	return nil, fmt.Errorf("%s: retries exhausted: %w", a.cfg.Name, lastErr)
}
