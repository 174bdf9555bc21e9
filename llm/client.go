// Package llm wraps structured-output calls to the Gemini API with
// exponential backoff retry. The client is stateless and safe for
// concurrent use.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"yt-sections/errors"
)

// ProviderGoogle is the only supported model provider.
const ProviderGoogle = "google"

const (
	defaultBaseURL     = "https://generativelanguage.googleapis.com"
	defaultMaxAttempts = 5
	defaultBackoff     = 2 * time.Second
	maxBackoff         = 30 * time.Second
	defaultTemperature = 0.7
)

// Message is a single prompt message. Role is "system" or "user".
type Message struct {
	Role    string
	Content string
}

// Params are the recognized generation options. MaxTokens is omitted from
// the model configuration entirely when nil.
type Params struct {
	Temperature *float64
	MaxTokens   *int
}

// Request describes one structured LLM invocation. Schema is the JSON
// schema the model output must conform to, forwarded verbatim.
type Request struct {
	Messages []Message
	Model    string
	Provider string
	Params   Params
	Schema   json.RawMessage
}

// Invoker is the seam services depend on; tests substitute it.
type Invoker interface {
	Invoke(ctx context.Context, req Request, out interface{}) error
}

type Config struct {
	APIKey            string
	BaseURL           string
	MaxAttempts       int
	InitialBackoff    time.Duration
	RequestTimeout    time.Duration
	RequestsPerMinute int
}

type Client struct {
	config  Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *logrus.Logger
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultBackoff
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 2 * time.Minute
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute)/60, cfg.RequestsPerMinute)
	}

	return &Client{
		config:  cfg,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		limiter: limiter,
		logger:  logrus.StandardLogger(),
	}
}

// Invoke sends the request and unmarshals the model's JSON output into out.
// Unsupported providers and missing credentials fail immediately; every
// other failure, including non-conforming model output, is retried with
// doubling backoff up to MaxAttempts before the last cause is surfaced.
func (c *Client) Invoke(ctx context.Context, req Request, out interface{}) error {
	const op = "llm.Client.Invoke"

	if strings.ToLower(req.Provider) != ProviderGoogle {
		return errors.UnsupportedProvider(op,
			fmt.Sprintf("Model provider %q is not supported", req.Provider))
	}
	if c.config.APIKey == "" {
		return errors.MissingCredential(op, "LLM API key is not configured")
	}

	logger := c.logger.WithFields(logrus.Fields{
		"model":    req.Model,
		"provider": req.Provider,
	})

	var lastErr error
	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		if err := c.attempt(ctx, req, out); err == nil {
			return nil
		} else {
			lastErr = err
		}

		logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   lastErr,
		}).Warn("LLM invocation attempt failed")

		if attempt == c.config.MaxAttempts {
			break
		}

		backoff := time.Duration(float64(c.config.InitialBackoff) * math.Pow(2, float64(attempt-1)))
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		jitter := time.Duration(rand.Int63n(int64(backoff)/2 + 1))

		select {
		case <-time.After(backoff + jitter):
		case <-ctx.Done():
			return errors.LLMInvocation(op, ctx.Err(), "LLM invocation cancelled")
		}
	}

	return errors.LLMInvocation(op, lastErr,
		fmt.Sprintf("LLM invocation failed after %d attempts", c.config.MaxAttempts))
}

type generateContentRequest struct {
	SystemInstruction *content          `json:"system_instruction,omitempty"`
	Contents          []content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64         `json:"temperature"`
	MaxOutputTokens  *int            `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *Client) attempt(ctx context.Context, req Request, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	body, err := json.Marshal(buildGenerateContentRequest(req))
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.config.BaseURL, req.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.config.APIKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("llm http %d: %s", resp.StatusCode, string(b))
	}

	var gcr generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&gcr); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(gcr.Candidates) == 0 || len(gcr.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("llm returned no candidates")
	}

	text := gcr.Candidates[0].Content.Parts[0].Text
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("model output does not conform to schema: %w", err)
	}

	return nil
}

func buildGenerateContentRequest(req Request) generateContentRequest {
	gcr := generateContentRequest{
		GenerationConfig: &generationConfig{
			Temperature:      defaultTemperature,
			ResponseMimeType: "application/json",
			ResponseSchema:   req.Schema,
		},
	}
	if req.Params.Temperature != nil {
		gcr.GenerationConfig.Temperature = *req.Params.Temperature
	}
	if req.Params.MaxTokens != nil {
		gcr.GenerationConfig.MaxOutputTokens = req.Params.MaxTokens
	}

	for _, msg := range req.Messages {
		if msg.Role == "system" {
			gcr.SystemInstruction = &content{Parts: []part{{Text: msg.Content}}}
			continue
		}
		gcr.Contents = append(gcr.Contents, content{
			Role:  "user",
			Parts: []part{{Text: msg.Content}},
		})
	}

	return gcr
}

// Float64 returns a pointer to v, for filling Params.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v, for filling Params.
func Int(v int) *int { return &v }
