package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"visionary/internal/domain"
	"visionary/internal/infra"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "meta-llama/llama-4-maverick:free"
	DefaultTitle   = "VisionaryAI"
)

type Options struct {
	APIKey    string
	Model     string
	BaseURL   string
	Referer   string
	Title     string
	MaxTokens int
	// Temperature is optional so that 0 can be requested.
	Temperature *float64
	// AllowTraining fills both data_policy flags.
	AllowTraining bool
	HTTPClient    *http.Client
	Retry         infra.RetryConfig
}

func (o *Options) setDefaults() {
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = domain.DefaultMaxTokens
	}
	if o.Temperature == nil {
		t := domain.DefaultTemperature
		o.Temperature = &t
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if o.Retry.MaxAttempts == 0 {
		o.Retry = infra.NoRetry()
	}
}

// Client describes frames with an OpenRouter chat completion.
type Client struct {
	opts Options
}

func NewClient(opts Options) *Client {
	opts.setDefaults()
	return &Client{opts: opts}
}

func (c *Client) Name() string {
	return "openrouter"
}

type imageURL struct {
	URL string `json:"url"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type dataPolicy struct {
	AllowPromptTraining   bool `json:"allow_prompt_training"`
	AllowResponseTraining bool `json:"allow_response_training"`
}

type request struct {
	Model       string     `json:"model"`
	Messages    []message  `json:"messages"`
	MaxTokens   int        `json:"max_tokens"`
	Temperature float64    `json:"temperature"`
	Stream      bool       `json:"stream"`
	DataPolicy  dataPolicy `json:"data_policy"`
}

type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Code    any    `json:"code,omitempty"`
}

func (c *Client) buildRequest(frame []byte) request {
	return request{
		Model: c.opts.Model,
		Messages: []message{
			{Role: "system", Content: domain.SystemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: domain.UserPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: domain.ImageDataURL(frame)}},
			}},
		},
		MaxTokens:   c.opts.MaxTokens,
		Temperature: *c.opts.Temperature,
		Stream:      false,
		DataPolicy: dataPolicy{
			AllowPromptTraining:   c.opts.AllowTraining,
			AllowResponseTraining: c.opts.AllowTraining,
		},
	}
}

func (c *Client) Describe(ctx context.Context, frame []byte) (string, error) {
	bodyBytes, err := json.Marshal(c.buildRequest(frame))
	if err != nil {
		return "", domain.TransportError(fmt.Errorf("marshaling request: %w", err))
	}

	var result response
	retryErr := infra.WithRetry(ctx, c.opts.Retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/chat/completions", bytes.NewReader(bodyBytes))
		if err != nil {
			return infra.Permanent(domain.TransportError(err))
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
		if c.opts.Referer != "" {
			req.Header.Set("HTTP-Referer", c.opts.Referer)
		}
		req.Header.Set("X-Title", c.opts.Title)

		resp, err := c.opts.HTTPClient.Do(req)
		if err != nil {
			return domain.TransportError(err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return domain.TransportError(fmt.Errorf("reading response: %w", err))
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := domain.APIError(resp.StatusCode, errorMessage(respBody))
			if infra.IsRetryableHTTPStatus(resp.StatusCode) {
				return apiErr
			}
			return infra.Permanent(apiErr)
		}

		if err := json.Unmarshal(respBody, &result); err != nil {
			return infra.Permanent(domain.TransportError(fmt.Errorf("decoding response: %w", err)))
		}
		return nil
	})
	if retryErr != nil {
		var de *domain.DescribeError
		if errors.As(retryErr, &de) {
			return "", retryErr
		}
		return "", domain.TransportError(retryErr)
	}

	if result.Error != nil && result.Error.Message != "" {
		return "", domain.APIError(http.StatusOK, result.Error.Message)
	}

	if len(result.Choices) == 0 {
		return "", domain.ErrEmptyResponse
	}
	text := strings.TrimSpace(result.Choices[0].Message.Content)
	if text == "" {
		return "", domain.ErrEmptyResponse
	}
	return text, nil
}

func errorMessage(body []byte) string {
	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Error == nil {
		return ""
	}
	return parsed.Error.Message
}
