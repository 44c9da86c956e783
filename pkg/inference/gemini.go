package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"igtracker/pkg/config"
	errs "igtracker/pkg/errors"
	"igtracker/pkg/logger"
	"igtracker/pkg/metrics"
	"igtracker/pkg/ratelimit"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	maxImageBytes  = 10 << 20
	breakerName    = "gemini-api"
)

// GenerateContentRequest for the generateContent API
type GenerateContentRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

type GenerationConfig struct {
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData carries base64 encoded media inside a request
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type GenerateContentResponse struct {
	Candidates []Candidate `json:"candidates,omitempty"`
	Error      *APIError   `json:"error,omitempty"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini API error %d (%s): %s", e.Code, e.Status, e.Message)
}

// Client is a Gemini generateContent client guarded by a rate limiter and a
// circuit breaker
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
	limiter    ratelimit.Limiter
	breaker    *gobreaker.CircuitBreaker[string]
	logger     logger.Logger

	maxImageBytes int64
}

// NewClient creates a Gemini client from the inference configuration
func NewClient(cfg config.InferenceConfig, log logger.Logger) *Client {
	log = logger.OrNop(log).WithField("component", "gemini")

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			log.WarnWithFields("circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})

	return &Client{
		// Per-call deadlines come from the caller's context
		httpClient: &http.Client{},
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    baseURL,
		limiter:    ratelimit.NewTokenBucket(cfg.RequestsPerMinute, 1),
		breaker:    breaker,
		logger:     log,

		maxImageBytes: maxImageBytes,
	}
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// GenerateText sends one user turn and returns the text of the first candidate
func (c *Client) GenerateText(ctx context.Context, parts ...Part) (string, error) {
	if c.apiKey == "" {
		return "", errs.New(errs.ErrorTypeInferenceFailure, "gemini API key not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", errs.Wrap(errs.ErrorTypeInferenceFailure, "rate limiter wait cancelled", err)
	}

	req := &GenerateContentRequest{
		Contents:         []Content{{Role: "user", Parts: parts}},
		GenerationConfig: &GenerationConfig{ResponseMimeType: "application/json"},
	}

	text, err := c.breaker.Execute(func() (string, error) {
		return c.generate(ctx, req)
	})
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeInferenceFailure, "generateContent failed", err)
	}
	return text, nil
}

func (c *Client) generate(ctx context.Context, req *GenerateContentRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	// keep the key out of the URL
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var result GenerateContentResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal response (status %d): %w", resp.StatusCode, err)
	}
	if result.Error != nil {
		return "", result.Error
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("response has no candidates")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

// fetchImage downloads an image and returns it as an inline request part
func (c *Client) fetchImage(ctx context.Context, imageURL string) (Part, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return Part{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Part{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Part{}, fmt.Errorf("image download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxImageBytes+1))
	if err != nil {
		return Part{}, err
	}
	if int64(len(data)) > c.maxImageBytes {
		return Part{}, fmt.Errorf("image exceeds %d bytes", c.maxImageBytes)
	}

	mimeType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/jpeg"
	}
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	return Part{InlineData: &InlineData{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}}, nil
}

// stripFences removes markdown code fences the model sometimes wraps JSON in
func stripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}
