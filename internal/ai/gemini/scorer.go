package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/apply-pilot/internal/ai"
	"github.com/spigell/apply-pilot/internal/form"
	"github.com/spigell/apply-pilot/internal/logger"
)

// FieldScorer asks a language model for the purpose of a form field the
// pattern table could not place.
type FieldScorer struct {
	generator ai.Generator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

var _ form.Scorer = (*FieldScorer)(nil)

// NewFieldScorer tags every log line with the provider and model, so log
// should not carry them already.
func NewFieldScorer(generator ai.Generator, log *zap.Logger, maxLogLength int) *FieldScorer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &FieldScorer{
		generator: generator,
		logger:    logger.WithScorerFields(log, ai.ProviderGemini, generator.Model()),
		maxLogLen: maxLogLength,
	}
}

type fieldPayload struct {
	Kind        form.Kind `json:"kind"`
	Label       string    `json:"label,omitempty"`
	AriaLabel   string    `json:"aria_label,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	Name        string    `json:"name,omitempty"`
	ID          string    `json:"id,omitempty"`
	Class       string    `json:"class,omitempty"`
	Options     []string  `json:"options,omitempty"`
}

// Score implements form.Scorer. A purpose outside the allowed list is
// reported as unknown with zero confidence.
func (s *FieldScorer) Score(ctx context.Context, field form.Field, purposes []string) (form.Score, error) {
	payload := fieldPayload{
		Kind:        field.Kind,
		Label:       field.Attrs.Label,
		AriaLabel:   field.Attrs.AriaLabel,
		Placeholder: field.Attrs.Placeholder,
		Name:        field.Attrs.Name,
		ID:          field.Attrs.ID,
		Class:       field.Attrs.Class,
		Options:     field.Options,
	}

	fieldJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return form.Score{}, fmt.Errorf("marshal field payload: %w", err)
	}

	prompt := buildPrompt(string(fieldJSON), purposes)

	s.logger.Debug("gemini generate content request",
		zap.String("field", field.Identifier),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return form.Score{}, err
	}

	s.logger.Debug("gemini generate content response",
		zap.String("field", field.Identifier),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, s.maxLogLen)),
	)

	score, err := parseResponse(raw)
	if err != nil {
		return form.Score{}, err
	}

	if !allowed(score.Purpose, purposes) {
		s.logger.Debug("gemini returned a purpose outside the table",
			zap.String("field", field.Identifier),
			zap.String("purpose", score.Purpose),
		)
		return form.Score{Purpose: form.PurposeUnknown}, nil
	}

	return score, nil
}

func buildPrompt(fieldJSON string, purposes []string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Purposes:\n{{PURPOSES}}\n\nField:\n{{FIELD_JSON}}\n\nJSON Response:"
	}

	var list strings.Builder
	for _, purpose := range purposes {
		list.WriteString("- ")
		list.WriteString(purpose)
		list.WriteString("\n")
	}

	prompt := strings.ReplaceAll(template, "{{PURPOSES}}", strings.TrimRight(list.String(), "\n"))
	prompt = strings.ReplaceAll(prompt, "{{FIELD_JSON}}", fieldJSON)
	return prompt
}

func parseResponse(raw string) (form.Score, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return form.Score{}, fmt.Errorf("parse gemini response: %w", err)
	}

	purpose := strings.ToLower(coerceString(data["purpose"]))
	confidence := coerceFloat(data["confidence"])

	switch {
	case math.IsNaN(confidence), confidence < 0:
		confidence = 0
	case confidence > 1:
		confidence = 1
	}

	if purpose == "" {
		purpose = form.PurposeUnknown
	}

	return form.Score{Purpose: purpose, Confidence: confidence}, nil
}

func allowed(purpose string, purposes []string) bool {
	for _, p := range purposes {
		if p == purpose {
			return true
		}
	}
	return false
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(val), "%"))
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		if strings.HasSuffix(strings.TrimSpace(val), "%") {
			f /= 100
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}
