package embed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/resilience/circuitbreaker"
	"catchup-feed/internal/resilience/retry"
	"catchup-feed/internal/usecase/dedup"
)

// rawValidation is the narrow, tolerant shape expected from the LLM's JSON
// reply. Fields are pointers so a missing key defaults safely rather than
// zero-valuing a field the model never intended to report (the "Dynamic
// JSON from LLM" rule: parse into a narrow struct, don't shape domain types
// around provider output).
type rawValidation struct {
	IsDuplicate *bool    `json:"is_duplicate"`
	Confidence  *float64 `json:"confidence"`
	Reasoning   *string  `json:"reasoning"`
}

// Validator implements dedup.Validator using Claude as a borderline
// duplicate-confirmation oracle, reusing the teacher's Claude wiring
// (circuit breaker, retry, request tracing) from summarizer.Claude.
type Validator struct {
	client         anthropic.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	model          string
	timeout        time.Duration
}

// NewValidator constructs a Validator. Pass "" for model to use Claude
// Sonnet, matching summarizer.LoadClaudeConfig's default.
func NewValidator(apiKey, model string) *Validator {
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_5_20250929)
	}
	return &Validator{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker: circuitbreaker.New(circuitbreaker.LLMValidationAPIConfig()),
		retryConfig:    retry.LLMValidationAPIConfig(),
		model:          model,
		timeout:        30 * time.Second,
	}
}

// ValidateDuplicate implements dedup.Validator.
func (v *Validator) ValidateDuplicate(ctx context.Context, a, b *entity.Article) (dedup.ValidationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	prompt := buildValidationPrompt(a, b)

	var raw string
	retryErr := retry.WithBackoff(ctx, v.retryConfig, func() error {
		cbResult, err := v.circuitBreaker.Execute(func() (interface{}, error) {
			return v.doValidate(ctx, prompt)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("llm validation circuit breaker open, request rejected",
					slog.String("service", "llm-validation"),
					slog.String("state", v.circuitBreaker.State().String()))
			}
			return err
		}
		raw = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return dedup.ValidationResult{}, fmt.Errorf("llm duplicate validation failed: %w", retryErr)
	}

	parsed, err := parseValidation(raw)
	if err != nil {
		return dedup.ValidationResult{}, fmt.Errorf("llm duplicate validation returned unparseable response: %w", err)
	}
	return parsed, nil
}

func (v *Validator) doValidate(ctx context.Context, prompt string) (string, error) {
	message, err := v.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(v.model),
		MaxTokens: 256,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude api error: %w", err)
	}
	if len(message.Content) == 0 {
		return "", fmt.Errorf("claude api returned empty response")
	}
	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", fmt.Errorf("claude api returned unexpected response type")
	}
	return textBlock.Text, nil
}

func buildValidationPrompt(a, b *entity.Article) string {
	var sb strings.Builder
	sb.WriteString("Two news articles are suspected of covering the same story. ")
	sb.WriteString("Reply with ONLY a JSON object {\"is_duplicate\": bool, \"confidence\": number 0-1, \"reasoning\": string}.\n\n")
	fmt.Fprintf(&sb, "Article A: %s\n%s\n\n", a.Title, truncate(a.Summary+" "+a.Content, 1500))
	fmt.Fprintf(&sb, "Article B: %s\n%s\n", b.Title, truncate(b.Summary+" "+b.Content, 1500))
	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// parseValidation extracts the first balanced JSON object from raw (models
// routinely wrap JSON in prose or code fences) and decodes it tolerantly,
// defaulting every field that is absent or malformed.
func parseValidation(raw string) (dedup.ValidationResult, error) {
	obj := extractJSONObject(raw)
	if obj == "" {
		return dedup.ValidationResult{}, fmt.Errorf("no JSON object found in response")
	}

	var parsed rawValidation
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return dedup.ValidationResult{}, fmt.Errorf("invalid JSON: %w", err)
	}

	result := dedup.ValidationResult{}
	if parsed.IsDuplicate != nil {
		result.IsDuplicate = *parsed.IsDuplicate
	}
	if parsed.Confidence != nil {
		c := *parsed.Confidence
		if c < 0 {
			c = 0
		}
		if c > 1 {
			c = 1
		}
		result.Confidence = c
	}
	if parsed.Reasoning != nil {
		result.Reasoning = *parsed.Reasoning
	}
	return result, nil
}

// extractJSONObject returns the first balanced {...} substring in s,
// respecting string literals so braces inside reasoning text don't throw
// off the brace count.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
