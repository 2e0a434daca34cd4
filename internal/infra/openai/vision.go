package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"visionary/internal/domain"
)

const DefaultVisionModel = "gpt-4o-mini"

// VisionClient describes frames through any OpenAI-compatible chat
// completions endpoint.
type VisionClient struct {
	client      openai.Client
	model       string
	maxTokens   int64
	temperature float64
}

type VisionOptions struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	// Temperature is optional so that 0 can be requested.
	Temperature *float64
	HTTPClient  *http.Client
	Headers     map[string]string
}

func NewVisionClient(opts VisionOptions) *VisionClient {
	if opts.Model == "" {
		opts.Model = DefaultVisionModel
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = domain.DefaultMaxTokens
	}
	temperature := domain.DefaultTemperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	for k, v := range opts.Headers {
		reqOpts = append(reqOpts, option.WithHeader(k, v))
	}

	return &VisionClient{
		client:      openai.NewClient(reqOpts...),
		model:       opts.Model,
		maxTokens:   int64(opts.MaxTokens),
		temperature: temperature,
	}
}

func (c *VisionClient) Name() string {
	return "openai"
}

func (c *VisionClient) Describe(ctx context.Context, frame []byte) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(domain.SystemPrompt),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(domain.UserPrompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: domain.ImageDataURL(frame),
				}),
			}),
		},
		MaxTokens:   openai.Int(c.maxTokens),
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", domain.APIError(apiErr.StatusCode, apiErr.Message)
		}
		return "", domain.TransportError(err)
	}

	if len(resp.Choices) == 0 {
		return "", domain.ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", domain.ErrEmptyResponse
	}
	return text, nil
}
