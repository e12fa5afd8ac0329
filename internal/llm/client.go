package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	appLog "webcal/internal/log"
)

// UnavailableError reports that the generation endpoint could not be
// reached or rejected the request (authentication, validation, server
// error). ResponseError reports a reachable endpoint that produced no
// usable completion. Both are terminal; there is no retry.
type UnavailableError struct {
	Endpoint string
	Status   int // 0 when the request never produced a response
	Err      error
}

func (e *UnavailableError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("model endpoint %s: unexpected status %d: %v", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("model endpoint %s: %v", e.Endpoint, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

type ResponseError struct {
	Model string
	Err   error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("model %s: %v", e.Model, e.Err)
}

func (e *ResponseError) Unwrap() error { return e.Err }

// Client talks to an OpenAI-style chat-completions endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// NewClient creates a model client for the given endpoint. The
// credential is sent as a bearer token on every request.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		apiKey:     apiKey,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one user prompt to the given model and returns the
// raw completion text. Synchronous and blocking; one outbound request,
// no streaming.
func (c *Client) Complete(ctx context.Context, model, prompt string) (string, error) {
	payload := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", &UnavailableError{Endpoint: c.endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &UnavailableError{Endpoint: c.endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	appLog.Info("model call start", "model", model, "prompt_chars", len(prompt))
	started := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &UnavailableError{Endpoint: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &UnavailableError{Endpoint: c.endpoint, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &UnavailableError{
			Endpoint: c.endpoint,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s", summarizeErrorBody(respBody)),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &ResponseError{Model: model, Err: fmt.Errorf("malformed response: %w", err)}
	}
	if parsed.Error != nil {
		return "", &UnavailableError{Endpoint: c.endpoint, Err: fmt.Errorf("%s", parsed.Error.Message)}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", &ResponseError{Model: model, Err: fmt.Errorf("empty completion")}
	}

	appLog.Info("model call success", "model", model, "elapsed", time.Since(started).Round(time.Millisecond))
	return parsed.Choices[0].Message.Content, nil
}

// summarizeErrorBody extracts the provider error message from a
// non-200 body, falling back to a bounded raw snippet.
func summarizeErrorBody(body []byte) string {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	const max = 200
	s := string(body)
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
