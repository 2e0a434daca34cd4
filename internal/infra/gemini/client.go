package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
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

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type Client struct {
	apiKey      string
	httpClient  *http.Client
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
}

func NewClient(apiKey, model string) *Client {
	return NewClientWithURL(apiKey, model, DefaultBaseURL, nil)
}

func NewClientWithURL(apiKey, model, baseURL string, httpClient *http.Client) *Client {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		apiKey:      apiKey,
		httpClient:  httpClient,
		baseURL:     baseURL,
		model:       model,
		maxTokens:   domain.DefaultMaxTokens,
		temperature: domain.DefaultTemperature,
	}
}

// WithGeneration overrides the output token limit and sampling temperature.
// A non-positive maxTokens keeps the default.
func (c *Client) WithGeneration(maxTokens int, temperature float64) *Client {
	if maxTokens > 0 {
		c.maxTokens = maxTokens
	}
	c.temperature = temperature
	return c
}

func (c *Client) Name() string {
	return "gemini"
}

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type request struct {
	Contents         []content        `json:"contents"`
	SystemInstruct   *content         `json:"systemInstruction,omitempty"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

func (c *Client) Describe(ctx context.Context, frame []byte) (string, error) {
	reqBody := request{
		SystemInstruct: &content{
			Parts: []part{{Text: domain.SystemPrompt}},
		},
		Contents: []content{
			{
				Role: "user",
				Parts: []part{
					{Text: domain.UserPrompt},
					{InlineData: &inlineData{
						MimeType: domain.ImageMIME,
						Data:     base64.StdEncoding.EncodeToString(frame),
					}},
				},
			},
		},
		GenerationConfig: generationConfig{
			MaxOutputTokens: c.maxTokens,
			Temperature:     c.temperature,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", domain.TransportError(fmt.Errorf("marshaling request: %w", err))
	}

	var result response
	retryErr := infra.WithRetry(ctx, infra.NoRetry(), func() error {
		url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return domain.TransportError(err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return domain.TransportError(err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return domain.TransportError(fmt.Errorf("reading response: %w", err))
		}

		if err = json.Unmarshal(respBody, &result); err != nil && resp.StatusCode == http.StatusOK {
			return domain.TransportError(fmt.Errorf("decoding response: %w", err))
		}

		if resp.StatusCode != http.StatusOK {
			msg := ""
			if result.Error != nil {
				msg = result.Error.Message
			}
			return domain.APIError(resp.StatusCode, msg)
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

	if result.Error != nil {
		return "", domain.APIError(result.Error.Code, result.Error.Message)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", domain.ErrEmptyResponse
	}

	text := strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", domain.ErrEmptyResponse
	}
	return text, nil
}
