package extraction

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sashabaranov/go-openai"

	"github.com/hppanpaliya/FairShare-AI/internal/metrics"
)

// Prompt is the instruction sent alongside the bill image.
const Prompt = "This is a restaurant bill. Extract all the menu items with their prices. " +
	"For each item, provide: name, quantity (default to 1 if not specified), unit price, and total price. " +
	"Format the response as a JSON array with objects having the fields: name, quantity, unitPrice, totalPrice. " +
	"Only include food/drink items, not tax, tip, or totals. " +
	"Do not include any explanations in your response, just the JSON."

// ChatClient is the part of *openai.Client used for extraction.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIConfig configures an OpenAIExtractor.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration // per attempt
	MaxRetries  int
	Temperature float32
	MaxTokens   int

	// InitialBackoff is the first retry delay. Defaults to 500ms.
	InitialBackoff time.Duration
}

// OpenAIExtractor extracts line items with an OpenAI-compatible vision model.
type OpenAIExtractor struct {
	client ChatClient
	cfg    OpenAIConfig
}

// NewOpenAIExtractor creates an extractor talking to the configured endpoint.
func NewOpenAIExtractor(cfg OpenAIConfig) (*OpenAIExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY not set", ErrUnavailable)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return NewOpenAIExtractorWithClient(openai.NewClientWithConfig(clientCfg), cfg), nil
}

// NewOpenAIExtractorWithClient creates an extractor on top of an existing client.
func NewOpenAIExtractorWithClient(client ChatClient, cfg OpenAIConfig) *OpenAIExtractor {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4o
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	return &OpenAIExtractor{client: client, cfg: cfg}
}

// ExtractLineItems sends the image to the model and parses its answer.
// Transport failures, timeouts, 408, 429 and 5xx are retried up to
// MaxRetries times. Unparseable output is returned immediately.
func (e *OpenAIExtractor) ExtractLineItems(ctx context.Context, image []byte) ([]LineItem, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrUnparseable)
	}
	start := time.Now()
	defer func() { metrics.ExtractionDuration.Observe(time.Since(start).Seconds()) }()

	req := e.request(image)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.cfg.InitialBackoff
	b.MaxInterval = 10 * time.Second

	attempt := 0
	items, err := backoff.Retry(ctx, func() ([]LineItem, error) {
		attempt++
		content, err := e.complete(ctx, req)
		if err != nil {
			if ctx.Err() == nil && isTransient(err) {
				metrics.ExtractionAttempts.WithLabelValues("retry").Inc()
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		items, err := ParseLineItems(content)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return items, nil
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(e.cfg.MaxRetries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("Bill extraction retrying",
				"attempt", attempt,
				"max_retries", e.cfg.MaxRetries,
				"sleep", next.String(),
				"error", err,
			)
		}),
	)
	if err != nil {
		if errors.Is(err, ErrUnparseable) {
			metrics.ExtractionAttempts.WithLabelValues("unparseable").Inc()
			return nil, err
		}
		metrics.ExtractionAttempts.WithLabelValues("unavailable").Inc()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	metrics.ExtractionAttempts.WithLabelValues(metrics.OutcomeOK).Inc()
	slog.Debug("Bill extraction succeeded", "items", len(items), "attempts", attempt)
	return items, nil
}

func (e *OpenAIExtractor) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	resp, err := e.client.CreateChatCompletion(attemptCtx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrUnparseable)
	}
	return resp.Choices[0].Message.Content, nil
}

func (e *OpenAIExtractor) request(image []byte) openai.ChatCompletionRequest {
	dataURL := "data:" + http.DetectContentType(image) + ";base64," + base64.StdEncoding.EncodeToString(image)

	req := openai.ChatCompletionRequest{
		Model:       e.cfg.Model,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: Prompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL,
					Detail: openai.ImageURLDetailAuto,
				}},
			},
		}},
	}
	// temperature is omitempty; a zero value would fall back to the server default.
	if req.Temperature == 0 {
		req.Temperature = math.SmallestNonzeroFloat32
	}
	return req
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 0 || retryableStatus(reqErr.HTTPStatusCode)
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func retryableStatus(code int) bool {
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500
}
