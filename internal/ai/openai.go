package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

const (
	openaiBaseURL      = "https://api.openai.com/v1/chat/completions"
	openaiMaxRetries   = 3
	openaiInitialDelay = 1 * time.Second
	openaiTemperature  = 0.2
)

// OpenAIClient implements Analyzer against the OpenAI chat completions
// API with JSON-mode responses.
type OpenAIClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type openaiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// NewOpenAIClient creates a client for the given key and model.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: openaiBaseURL,
		client:  &http.Client{},
	}
}

// IsAvailable reports whether an API key is configured.
func (c *OpenAIClient) IsAvailable() bool {
	return c.apiKey != ""
}

// AnalyzeConflict runs one structured analysis call. Model-side
// failures (unparseable output) come back inside the Response; HTTP
// and API errors are returned as errors.
func (c *OpenAIClient) AnalyzeConflict(ctx context.Context, systemPrompt, userPrompt string) (Response, error) {
	if c.apiKey == "" {
		return Response{}, fmt.Errorf("OPENAI_API_KEY not set")
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: openaiTemperature,
	}
	req.ResponseFormat.Type = "json_object"

	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	content, err := c.complete(ctx, body)
	if err != nil {
		return Response{}, err
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return Response{Success: false, Err: fmt.Sprintf("unparseable model output: %v", err)}, nil
	}
	if analysis.Recommendation.Action == "" {
		return Response{Success: false, Err: "model output missing recommendation"}, nil
	}

	return Response{Success: true, Result: &analysis}, nil
}

// retryDelay is the exponential backoff before retry n: the initial
// delay doubles each time (1s, 2s, ...).
func retryDelay(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt-1))) * openaiInitialDelay
}

// complete posts the request with retry and exponential backoff,
// returning the first choice's content.
func (c *OpenAIClient) complete(ctx context.Context, body []byte) (string, error) {
	var lastErr error
	for attempt := 0; attempt < openaiMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay(attempt)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			var apiErr openaiError
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
				lastErr = fmt.Errorf("OpenAI API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
			} else {
				lastErr = fmt.Errorf("OpenAI API error (%d): %s", resp.StatusCode, string(respBody))
			}

			// Retry on rate limit (429) or server errors (5xx)
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return "", lastErr
		}

		var chat chatResponse
		if err := json.Unmarshal(respBody, &chat); err != nil {
			return "", fmt.Errorf("failed to decode response: %w", err)
		}
		if len(chat.Choices) == 0 {
			return "", fmt.Errorf("no choices in response")
		}

		return chat.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("max retries (%d) exceeded: %w", openaiMaxRetries, lastErr)
}
