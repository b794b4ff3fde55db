package processing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dyike/NexusGo/internal/models"
)

// Classifier reduces free-form analysis text to a single BUY/SELL/HOLD
// token. Backed by the quick model in production, stubbed in tests.
type Classifier interface {
	ClassifySignal(ctx context.Context, text, ticker string) (string, error)
}

// SignalProcessor turns a step's raw text output into a validated Decision.
// The pipeline has three tiers: structured JSON parse, classifier fallback,
// and a terminal HOLD default. It never returns an error outward - every
// path ends in a schema-valid decision.
type SignalProcessor struct {
	classifier Classifier
}

func NewSignalProcessor(classifier Classifier) *SignalProcessor {
	return &SignalProcessor{classifier: classifier}
}

// ExtractDecision runs the full fallback chain.
func (sp *SignalProcessor) ExtractDecision(ctx context.Context, raw, ticker string) *models.Decision {
	decision, parseErr := ParseDecision(raw)
	if parseErr == nil {
		return decision
	}

	token, classifyErr := sp.classifier.ClassifySignal(ctx, raw, ticker)
	if classifyErr != nil {
		return &models.Decision{
			Action:          models.ActionHold,
			PositionSizePct: 0,
			Rationale: fmt.Sprintf(
				"Defaulted to HOLD: structured parse failed (%v) and signal classifier failed (%v).",
				parseErr, classifyErr),
		}
	}

	action := NormalizeSignal(token)
	size := 10.0
	if action == models.ActionHold {
		size = 0
	}
	return &models.Decision{
		Action:          action,
		PositionSizePct: size,
		Rationale: fmt.Sprintf(
			"Reconstructed %s from prose; structured parse failed: %v", action, parseErr),
	}
}

// ExtractAction classifies prose into an action without synthesizing a full
// decision. Used by the judge steps, which keep their own fallback when the
// classifier itself fails.
func (sp *SignalProcessor) ExtractAction(ctx context.Context, text, ticker string) (models.Action, error) {
	token, err := sp.classifier.ClassifySignal(ctx, text, ticker)
	if err != nil {
		return models.ActionUnknown, err
	}
	return NormalizeSignal(token), nil
}

// ParseDecision locates the first top-level brace-delimited object in raw
// text and parses it against the Decision schema.
func ParseDecision(raw string) (*models.Decision, error) {
	candidate := stripCodeFence(raw)
	object, err := firstJSONObject(candidate)
	if err != nil {
		return nil, err
	}

	var decision models.Decision
	if err := json.Unmarshal([]byte(object), &decision); err != nil {
		return nil, fmt.Errorf("unmarshal decision: %w", err)
	}
	decision.Action = models.Action(strings.ToUpper(strings.TrimSpace(string(decision.Action))))
	if err := decision.Validate(); err != nil {
		return nil, err
	}
	return &decision, nil
}

// NormalizeSignal maps classifier output to an action. Exact tokens win;
// otherwise BUY is searched before SELL, and anything else is HOLD.
func NormalizeSignal(token string) models.Action {
	cleaned := strings.ToUpper(strings.TrimSpace(token))
	switch cleaned {
	case "BUY":
		return models.ActionBuy
	case "SELL":
		return models.ActionSell
	case "HOLD":
		return models.ActionHold
	}
	if strings.Contains(cleaned, "BUY") {
		return models.ActionBuy
	}
	if strings.Contains(cleaned, "SELL") {
		return models.ActionSell
	}
	return models.ActionHold
}

// stripCodeFence removes a leading markdown fence (with an optional language
// tag) and a trailing fence, so fenced model output parses like bare JSON.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// firstJSONObject scans for the first balanced top-level {...} substring,
// honoring string literals and escapes.
func firstJSONObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object found in text")
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
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in text")
}
