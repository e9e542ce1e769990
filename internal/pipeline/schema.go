package pipeline

import (
	"strconv"

	"github.com/araddon/dateparse"

	"github.com/dvnair/fraudsight/internal/domain"
)

// SchemaInferencer derives a batch schema from the first parsed record.
// The field order of the exemplar is passed alongside so required-field
// checks run in a deterministic order. Implementations must be pure.
type SchemaInferencer interface {
	Infer(exemplar domain.Record, fieldOrder []string) domain.Schema
}

// ExemplarInferencer is the default single-record strategy: every exemplar
// field becomes required, and its type is the first interpretation that
// sticks, tried as number, then timestamp, then string. Number runs first
// deliberately: bare digit strings parse as dates under lenient parsers and
// must never be typed as timestamps.
type ExemplarInferencer struct{}

func (ExemplarInferencer) Infer(exemplar domain.Record, fieldOrder []string) domain.Schema {
	schema := domain.Schema{
		Required: make([]string, 0, len(fieldOrder)),
		Types:    make(map[string]domain.FieldType, len(fieldOrder)),
	}

	for _, field := range fieldOrder {
		schema.Required = append(schema.Required, field)
		schema.Types[field] = inferFieldType(exemplar[field])
	}

	return schema
}

func inferFieldType(v any) domain.FieldType {
	switch val := v.(type) {
	case float64, int:
		return domain.FieldTypeNumber
	case string:
		if _, err := strconv.ParseFloat(val, 64); err == nil {
			return domain.FieldTypeNumber
		}
		if _, err := dateparse.ParseAny(val); err == nil {
			return domain.FieldTypeTimestamp
		}
	}
	return domain.FieldTypeString
}
