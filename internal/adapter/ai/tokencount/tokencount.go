// Package tokencount estimates prompt sizes for text-generation calls.
//
// It uses tiktoken-go with the cl100k_base family as an approximation for
// local models. Counts are for observability only and never gate a request.
package tokencount

import (
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

var loaderOnce sync.Once

// Counter provides thread-safe token counting.
type Counter struct {
	encodingCache map[string]*tiktoken.Tiktoken
	mu            sync.RWMutex
}

// NewCounter creates a new token counter instance. BPE ranks come from the
// embedded offline loader so counting never reaches the network.
func NewCounter() *Counter {
	loaderOnce.Do(func() { tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader()) })
	return &Counter{
		encodingCache: make(map[string]*tiktoken.Tiktoken),
	}
}

// DefaultCounter is a global token counter instance.
var DefaultCounter = NewCounter()

func (c *Counter) getEncodingForModel(model string) (*tiktoken.Tiktoken, error) {
	normalizedModel := normalizeModelName(model)

	c.mu.RLock()
	if enc, ok := c.encodingCache[normalizedModel]; ok {
		c.mu.RUnlock()
		return enc, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encodingCache[normalizedModel]; ok {
		return enc, nil
	}
	enc, err := tiktoken.EncodingForModel(normalizedModel)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	c.encodingCache[normalizedModel] = enc
	return enc, nil
}

// normalizeModelName maps Ollama tags such as "llama3:8b-instruct-q4_k_m" to a tiktoken model.
func normalizeModelName(model string) string {
	model = strings.ToLower(model)
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	if i := strings.Index(model, ":"); i >= 0 {
		model = model[:i]
	}
	if strings.Contains(model, "gpt-3.5") {
		return "gpt-3.5-turbo"
	}
	// llama, qwen, mistral, gemma and the rest approximate well enough with gpt-4.
	return "gpt-4"
}

// CountTokens counts the tokens of text for model.
func (c *Counter) CountTokens(text, model string) (int, error) {
	enc, err := c.getEncodingForModel(model)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// CountPrompt counts system and user prompt tokens. When no encoding can be
// loaded it falls back to an estimate of one token per CJK rune and one per
// four other bytes.
func (c *Counter) CountPrompt(systemPrompt, prompt, model string) int {
	total := 0
	for _, s := range []string{systemPrompt, prompt} {
		n, err := c.CountTokens(s, model)
		if err != nil {
			slog.Debug("token count unavailable, using estimate", slog.String("model", model), slog.Any("error", err))
			n = Estimate(s)
		}
		total += n
	}
	return total
}

// Estimate approximates a token count without an encoding.
func Estimate(s string) int {
	wide, ascii := 0, 0
	for _, r := range s {
		if r >= 0x2E80 {
			wide++
			continue
		}
		ascii += utf8.RuneLen(r)
	}
	return wide + (ascii+3)/4
}
