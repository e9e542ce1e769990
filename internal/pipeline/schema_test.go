package pipeline

import (
	"testing"

	"github.com/dvnair/fraudsight/internal/domain"
)

func TestExemplarInferencer(t *testing.T) {
	exemplar := domain.Record{
		"amt":  "100.5",
		"ts":   "2024-01-01T00:00:00Z",
		"note": "hi",
	}
	order := []string{"amt", "ts", "note"}

	schema := ExemplarInferencer{}.Infer(exemplar, order)

	want := map[string]domain.FieldType{
		"amt":  domain.FieldTypeNumber,
		"ts":   domain.FieldTypeTimestamp,
		"note": domain.FieldTypeString,
	}
	for field, wantType := range want {
		if got := schema.TypeOf(field); got != wantType {
			t.Errorf("TypeOf(%q) = %s, want %s", field, got, wantType)
		}
	}

	if len(schema.Required) != 3 {
		t.Fatalf("Required has %d fields, want 3", len(schema.Required))
	}
	for i, field := range order {
		if schema.Required[i] != field {
			t.Errorf("Required[%d] = %q, want %q (exemplar order)", i, schema.Required[i], field)
		}
	}
}

func TestInferFieldTypeNumberBeatsTimestamp(t *testing.T) {
	// Bare digit strings parse under lenient date parsers; they must still
	// be typed as numbers.
	tests := []struct {
		value any
		want  domain.FieldType
	}{
		{"2024", domain.FieldTypeNumber},
		{"100.5", domain.FieldTypeNumber},
		{"-42", domain.FieldTypeNumber},
		{float64(7), domain.FieldTypeNumber},
		{"2024-01-01", domain.FieldTypeTimestamp},
		{"Jan 2 2024 3:04pm", domain.FieldTypeTimestamp},
		{"withdrawal at branch", domain.FieldTypeString},
		{nil, domain.FieldTypeString},
		{true, domain.FieldTypeString},
	}

	for _, tt := range tests {
		if got := inferFieldType(tt.value); got != tt.want {
			t.Errorf("inferFieldType(%v) = %s, want %s", tt.value, got, tt.want)
		}
	}
}
