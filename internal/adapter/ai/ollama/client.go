// Package ollama implements domain.TextGenerator over the Ollama /api/generate endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/policy-advisor/internal/adapter/ai"
	"github.com/fairyhunter13/policy-advisor/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/policy-advisor/internal/adapter/observability"
	"github.com/fairyhunter13/policy-advisor/internal/config"
	"github.com/fairyhunter13/policy-advisor/internal/domain"
)

// Provider is the metrics and log label of this adapter.
const Provider = "ollama"

// FailurePrefix starts the message of every transport failure.
const FailurePrefix = "AI 分析失敗："

const (
	promptHeader = "以下是完整的用戶問卷數據（JSON）:\n"
	promptFooter = "\n\n請只輸出純 JSON："
	snippetBytes = 512
)

var errMissingResponse = errors.New("response field missing")

// Client implements domain.TextGenerator.
type Client struct {
	cfg     config.Config
	hc      *http.Client
	cleaner *ai.ResponseCleaner
	tokens  *tokencount.Counter
}

var _ domain.TextGenerator = (*Client)(nil)

// New constructs a client with a traced transport and the configured timeout.
func New(cfg config.Config) *Client {
	return &Client{
		cfg: cfg,
		hc: &http.Client{
			Timeout:   cfg.OllamaTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cleaner: ai.NewResponseCleaner(),
		tokens:  tokencount.DefaultCounter,
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system"`
	Stream  bool            `json:"stream"`
	Format  string          `json:"format"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Model    string  `json:"model"`
	Response *string `json:"response"`
}

// BuildPrompt renders the payload as indented JSON between the fixed prompt header and footer.
func BuildPrompt(payload any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return "", err
	}
	return promptHeader + strings.TrimRight(buf.String(), "\n") + promptFooter, nil
}

// Generate sends the payload and returns the JSON object found in the model output.
// Unparseable output is returned as *ai.UnparseableError.
func (c *Client) Generate(ctx domain.Context, systemPrompt string, payload any) (map[string]any, error) {
	prompt, err := BuildPrompt(payload)
	if err != nil {
		return nil, fmt.Errorf("op=ollama.Generate: %w: %v", domain.ErrInvalidArgument, err)
	}
	text, err := c.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	obj, err := c.cleaner.Parse(text)
	if err != nil {
		excerpt, _ := ai.UnparseableExcerpt(err)
		observability.LoggerFromContext(ctx).Warn("model output unparseable",
			slog.String("provider", Provider),
			slog.String("model", c.cfg.OllamaModel),
			slog.String("excerpt", excerpt),
			slog.Any("error", err))
		return nil, err
	}
	return obj, nil
}

// Complete performs the raw generate call and returns the response text.
func (c *Client) Complete(ctx domain.Context, systemPrompt, prompt string) (string, error) {
	lg := observability.LoggerFromContext(ctx)
	b, err := json.Marshal(generateRequest{
		Model:   c.cfg.OllamaModel,
		Prompt:  prompt,
		System:  systemPrompt,
		Stream:  false,
		Format:  "json",
		Options: generateOptions{Temperature: 0},
	})
	if err != nil {
		return "", fmt.Errorf("op=ollama.Complete: %w", err)
	}
	tokens := c.tokens.CountPrompt(systemPrompt, prompt, c.cfg.OllamaModel)
	observability.AIPromptTokens.WithLabelValues(Provider).Observe(float64(tokens))
	lg.Info("calling text generation",
		slog.String("provider", Provider),
		slog.String("model", c.cfg.OllamaModel),
		slog.Int("prompt_tokens", tokens))

	var out generateResponse
	op := func() error {
		start := time.Now()
		// Recreate request each attempt to avoid reusing consumed bodies
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OllamaURL, bytes.NewReader(b))
		if err != nil {
			return backoff.Permanent(err)
		}
		r.Header.Set("Content-Type", "application/json")
		resp, err := c.hc.Do(r)
		if err != nil {
			observability.ObserveAIRequest(Provider, "transport_error", time.Since(start))
			if isTimeout(err) {
				return backoff.Permanent(err)
			}
			lg.Warn("text generation transport error", slog.String("provider", Provider), slog.Any("error", err))
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			observability.ObserveAIRequest(Provider, "transport_error", time.Since(start))
			return err
		}
		snippet := string(bodyBytes)
		if len(snippet) > snippetBytes {
			snippet = snippet[:snippetBytes]
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			observability.ObserveAIRequest(Provider, "rate_limited", time.Since(start))
			lg.Warn("text generation rate limited", slog.String("provider", Provider), slog.Int("status", resp.StatusCode))
			return fmt.Errorf("status %d", resp.StatusCode)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			observability.ObserveAIRequest(Provider, "client_error", time.Since(start))
			lg.Warn("text generation 4xx", slog.String("provider", Provider), slog.Int("status", resp.StatusCode), slog.String("body", snippet))
			return backoff.Permanent(fmt.Errorf("status %d: %s", resp.StatusCode, snippet))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			observability.ObserveAIRequest(Provider, "server_error", time.Since(start))
			lg.Error("text generation non-2xx", slog.String("provider", Provider), slog.Int("status", resp.StatusCode), slog.String("body", snippet))
			return fmt.Errorf("status %d: %s", resp.StatusCode, snippet)
		}

		out = generateResponse{}
		if err := json.Unmarshal(bodyBytes, &out); err != nil {
			observability.ObserveAIRequest(Provider, "decode_error", time.Since(start))
			lg.Error("text generation decode error", slog.String("provider", Provider), slog.String("body", snippet), slog.Any("error", err))
			return backoff.Permanent(fmt.Errorf("decode envelope: %w", err))
		}
		if out.Response == nil {
			observability.ObserveAIRequest(Provider, "decode_error", time.Since(start))
			lg.Error("text generation response field missing", slog.String("provider", Provider), slog.String("body", snippet))
			return backoff.Permanent(errMissingResponse)
		}
		observability.ObserveAIRequest(Provider, "success", time.Since(start))
		return nil
	}

	maxRetries, initial := c.cfg.GetOllamaBackoffConfig()
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = initial
	expo.MaxElapsedTime = 0
	bo := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(maxRetries)), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		lg.Error("text generation failed", slog.String("provider", Provider), slog.Any("error", err))
		if isTimeout(err) {
			return "", fmt.Errorf("%s%w: %w", FailurePrefix, err, domain.ErrUpstreamTimeout)
		}
		return "", fmt.Errorf("%s%w: %w", FailurePrefix, err, domain.ErrUpstream)
	}
	return *out.Response, nil
}

// Ping checks that the Ollama host answers on /api/tags.
func (c *Client) Ping(ctx context.Context) error {
	host := c.cfg.OllamaHost()
	if host == "" {
		return fmt.Errorf("op=ollama.Ping: %w: invalid OLLAMA_URL", domain.ErrInvalidArgument)
	}
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("op=ollama.Ping: %w", err)
	}
	resp, err := c.hc.Do(r)
	if err != nil {
		return fmt.Errorf("op=ollama.Ping: %w: %w", err, domain.ErrUpstream)
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("op=ollama.Ping: status %d: %w", resp.StatusCode, domain.ErrUpstream)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
