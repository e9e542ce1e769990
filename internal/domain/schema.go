package domain

// FieldType is the inferred type tag for one schema field.
type FieldType string

const (
	FieldTypeNumber    FieldType = "number"
	FieldTypeTimestamp FieldType = "timestamp"
	FieldTypeString    FieldType = "string"
)

// Schema is the per-batch field layout inferred from the exemplar record.
// Required preserves the exemplar's field order so validation failures are
// deterministic. Invariant: every name in Required has an entry in Types.
// A Schema is built once per batch and never mutated afterwards.
type Schema struct {
	Required []string
	Types    map[string]FieldType
}

// TypeOf returns the inferred type for a field, defaulting to string for
// fields the exemplar never showed.
func (s Schema) TypeOf(field string) FieldType {
	if t, ok := s.Types[field]; ok {
		return t
	}
	return FieldTypeString
}
