package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldPlatform is the structured log field key for the job board a posting came from.
	FieldPlatform = "platform"
	// FieldCompany is the structured log field key for the hiring company.
	FieldCompany = "company"
	// FieldURL is the structured log field key for the posting URL.
	FieldURL = "url"
	// FieldProvider is the structured log field key for the field scorer provider.
	FieldProvider = "scorer_provider"
	// FieldModel is the structured log field key for the field scorer model.
	FieldModel = "scorer_model"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// A nil logger is replaced with a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields returns the fields that identify a posting in application logs.
// Empty values are ignored to keep log entries compact.
func CommonFields(platform, company, url string) []zap.Field {
	return StringFields(
		StringField{Key: FieldPlatform, Value: platform},
		StringField{Key: FieldCompany, Value: company},
		StringField{Key: FieldURL, Value: url},
	)
}

// ScorerFields describe the provider and model behind a field scorer.
func ScorerFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithScorerFields attaches the scorer fields to the provided logger.
func WithScorerFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, ScorerFields(provider, model)...)
}
