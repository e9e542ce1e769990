package pipeline

import (
	"errors"
	"testing"

	"github.com/dvnair/fraudsight/internal/domain"
)

func testSchema() domain.Schema {
	return domain.Schema{
		Required: []string{"TransactionID", "TransactionTime", "amount", "description"},
		Types: map[string]domain.FieldType{
			"TransactionID":   domain.FieldTypeString,
			"TransactionTime": domain.FieldTypeTimestamp,
			"amount":          domain.FieldTypeNumber,
			"description":     domain.FieldTypeString,
		},
	}
}

func validRecord() domain.Record {
	return domain.Record{
		"TransactionID":   "T1",
		"TransactionTime": "2024-01-01T10:00:00Z",
		"amount":          "150.25",
		"description":     "atm withdrawal",
	}
}

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(domain.Record)
		wantField string
		wantKind  ValidationKind
	}{
		{
			name:   "valid record passes",
			mutate: func(r domain.Record) {},
		},
		{
			name:      "absent field",
			mutate:    func(r domain.Record) { delete(r, "TransactionTime") },
			wantField: "TransactionTime",
			wantKind:  MissingField,
		},
		{
			name:      "empty string value",
			mutate:    func(r domain.Record) { r["description"] = "" },
			wantField: "description",
			wantKind:  MissingField,
		},
		{
			name:      "nil value",
			mutate:    func(r domain.Record) { r["amount"] = nil },
			wantField: "amount",
			wantKind:  MissingField,
		},
		{
			name:      "unparsable timestamp",
			mutate:    func(r domain.Record) { r["TransactionTime"] = "not a time" },
			wantField: "TransactionTime",
			wantKind:  InvalidTimestamp,
		},
		{
			name:      "non numeric amount",
			mutate:    func(r domain.Record) { r["amount"] = "lots" },
			wantField: "amount",
			wantKind:  InvalidNumber,
		},
		{
			name:   "native float amount",
			mutate: func(r domain.Record) { r["amount"] = 150.25 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(rec)

			err := ValidateRecord(rec, testSchema())
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateRecord() = %v, want nil", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("ValidateRecord() = %v, want *ValidationError", err)
			}
			if verr.Field != tt.wantField || verr.Kind != tt.wantKind {
				t.Errorf("got {%s %s}, want {%s %s}", verr.Field, verr.Kind, tt.wantField, tt.wantKind)
			}
		})
	}
}

func TestValidateRecordShortCircuitsInSchemaOrder(t *testing.T) {
	rec := validRecord()
	delete(rec, "TransactionID")
	rec["amount"] = "lots"

	err := ValidateRecord(rec, testSchema())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("ValidateRecord() = %v, want *ValidationError", err)
	}
	// TransactionID precedes amount in schema order, so it wins.
	if verr.Field != "TransactionID" {
		t.Errorf("first failing field = %s, want TransactionID", verr.Field)
	}
}
