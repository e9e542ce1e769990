package pipeline

import (
	"strconv"

	"github.com/araddon/dateparse"

	"github.com/dvnair/fraudsight/internal/domain"
)

// ValidateRecord checks a record against the batch schema. Every required
// field must be present with a non-empty, non-nil value and, for number and
// timestamp typed fields, must parse as such. The first failing field, in
// schema order, short-circuits with a *ValidationError.
func ValidateRecord(rec domain.Record, schema domain.Schema) error {
	for _, field := range schema.Required {
		v, ok := rec[field]
		if !ok || v == nil || v == "" {
			return &ValidationError{Field: field, Kind: MissingField}
		}

		switch schema.TypeOf(field) {
		case domain.FieldTypeTimestamp:
			if _, err := dateparse.ParseAny(rec.StringField(field)); err != nil {
				return &ValidationError{Field: field, Kind: InvalidTimestamp}
			}
		case domain.FieldTypeNumber:
			if !isNumeric(v) {
				return &ValidationError{Field: field, Kind: InvalidNumber}
			}
		}
	}
	return nil
}

func isNumeric(v any) bool {
	switch val := v.(type) {
	case float64, int:
		return true
	case string:
		_, err := strconv.ParseFloat(val, 64)
		return err == nil
	default:
		return false
	}
}
