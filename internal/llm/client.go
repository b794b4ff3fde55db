package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/dyike/NexusGo/config"
)

// ThinkingLevel selects which chat model serves a completion.
type ThinkingLevel int

const (
	// ThinkQuick is for per-step analysis and classification.
	ThinkQuick ThinkingLevel = iota
	// ThinkDeep is for judge steps weighing a whole debate.
	ThinkDeep
)

// Model is the completion surface agents depend on.
type Model interface {
	Complete(ctx context.Context, prompt string, level ThinkingLevel) (string, error)
}

// Client wraps eino chat models with retry-on-rate-limit. Retries stay in
// here: the workflow engine above never sees a partial attempt, only the
// final text or a terminal error.
type Client struct {
	quick model.ChatModel
	deep  model.ChatModel

	maxAttempts int
	baseDelay   time.Duration
}

func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	quick, deep, err := buildModels(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		quick:       quick,
		deep:        deep,
		maxAttempts: 4,
		baseDelay:   2 * time.Second,
	}, nil
}

func buildModels(ctx context.Context, cfg *config.Config) (quick, deep model.ChatModel, err error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		quick, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.QuickThinkLLM,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create quick model: %w", err)
		}
		deep, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.DeepThinkLLM,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create deep model: %w", err)
		}
		return quick, deep, nil
	case "deepseek":
		if cfg.DeepSeekAPIKey == "" {
			return nil, nil, fmt.Errorf("DEEPSEEK_API_KEY is required for the deepseek provider")
		}
		quick, err = deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    cfg.DeepSeekAPIKey,
			Model:     cfg.QuickThinkLLM,
			MaxTokens: 2000,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create quick model: %w", err)
		}
		deep, err = deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    cfg.DeepSeekAPIKey,
			Model:     cfg.DeepThinkLLM,
			MaxTokens: 4000,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create deep model: %w", err)
		}
		return quick, deep, nil
	default:
		return nil, nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

// Complete sends a single-prompt completion at the requested thinking level.
// Rate-limited calls are retried with exponential backoff before giving up.
func (c *Client) Complete(ctx context.Context, prompt string, level ThinkingLevel) (string, error) {
	chat := c.quick
	if level == ThinkDeep {
		chat = c.deep
	}

	messages := []*schema.Message{schema.UserMessage(prompt)}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay << (attempt - 1)
			log.Printf("[LLM] rate limited, retrying in %s (attempt %d/%d)", delay, attempt+1, c.maxAttempts)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		resp, err := chat.Generate(ctx, messages)
		if err != nil {
			lastErr = err
			if isRateLimited(err) {
				continue
			}
			return "", fmt.Errorf("model call failed: %w", err)
		}
		return resp.Content, nil
	}
	return "", fmt.Errorf("model call failed after %d attempts: %w", c.maxAttempts, lastErr)
}

// ClassifySignal asks the quick model to reduce analysis text to exactly one
// of BUY, SELL or HOLD.
func (c *Client) ClassifySignal(ctx context.Context, text, ticker string) (string, error) {
	prompt := fmt.Sprintf(`You are a trading signal extractor for %s.

Read the analysis below and answer with EXACTLY ONE WORD: BUY, SELL, or HOLD.
Do not explain. Do not add punctuation.

Analysis:
%s`, ticker, text)

	return c.Complete(ctx, prompt, ThinkQuick)
}

func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests")
}
