package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldRequestID is the structured log field key for a recommendation or gap request.
	FieldRequestID = "request_id"
	// FieldProvider is the structured log field key for the semantic provider name.
	FieldProvider = "semantic_provider"
	// FieldModel is the structured log field key for the model identifier.
	FieldModel = "semantic_model"
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

// WithFields attaches fields to the logger, defaulting to a no-op logger when nil.
func WithFields(l *zap.Logger, fields ...zap.Field) *zap.Logger {
	l = OrNop(l)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

// WithProvider attaches the semantic provider and model fields to the logger.
func WithProvider(l *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(l, StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)...)
}

// WithRequestID attaches a request id to the logger.
func WithRequestID(l *zap.Logger, id string) *zap.Logger {
	return WithFields(l, StringFields(StringField{Key: FieldRequestID, Value: id})...)
}
