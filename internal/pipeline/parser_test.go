package pipeline

import (
	"errors"
	"testing"

	"github.com/dvnair/fraudsight/internal/domain"
)

func TestRouteSource(t *testing.T) {
	tests := []struct {
		uri  string
		want domain.SourceType
	}{
		{"gs://raw/atm/2024-01-01.jsonl", domain.SourceATM},
		{"gs://raw/ATM/file.jsonl", domain.SourceATM},
		{"gs://raw/upi/events.jsonl", domain.SourceUPI},
		{"gs://raw/customers/profiles.csv", domain.SourceCustomers},
		{"gs://raw/unknown.csv", domain.SourceCustomers},
	}

	for _, tt := range tests {
		if got := RouteSource(tt.uri); got != tt.want {
			t.Errorf("RouteSource(%q) = %s, want %s", tt.uri, got, tt.want)
		}
	}
}

func TestDetectFormat(t *testing.T) {
	if got := DetectFormat("gs://raw/atm/file.jsonl"); got != FormatJSONL {
		t.Errorf("DetectFormat(.jsonl) = %s, want jsonl", got)
	}
	if got := DetectFormat("gs://raw/customers/file.csv"); got != FormatCSV {
		t.Errorf("DetectFormat(.csv) = %s, want csv", got)
	}
	// Unknown extensions fall back to tabular parsing.
	if got := DetectFormat("gs://raw/customers/file.txt"); got != FormatCSV {
		t.Errorf("DetectFormat(.txt) = %s, want csv", got)
	}
}

func TestParseJSONLPreservesFieldOrder(t *testing.T) {
	raw := []byte(`{"TransactionID":"T1","amount":100.5,"TransactionTime":"2024-01-01T00:00:00Z","description":"x"}` + "\n" +
		`{"TransactionID":"T2","amount":-20,"TransactionTime":"2024-01-01T00:01:00Z","description":"y"}` + "\n")

	records, order, err := parseBatch(raw, FormatJSONL)
	if err != nil {
		t.Fatalf("parseBatch() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	wantOrder := []string{"TransactionID", "amount", "TransactionTime", "description"}
	if len(order) != len(wantOrder) {
		t.Fatalf("field order = %v, want %v", order, wantOrder)
	}
	for i := range wantOrder {
		if order[i] != wantOrder[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], wantOrder[i])
		}
	}

	if got, _ := records[0].NumberField("amount"); got != 100.5 {
		t.Errorf("amount = %f, want 100.5", got)
	}
}

func TestParseJSONLNestedValuesInFirstRecord(t *testing.T) {
	raw := []byte(`{"TransactionID":"T1","meta":{"branch":"X","codes":[1,2]},"amount":5}`)

	_, order, err := parseBatch(raw, FormatJSONL)
	if err != nil {
		t.Fatalf("parseBatch() error = %v", err)
	}
	want := []string{"TransactionID", "meta", "amount"}
	if len(order) != 3 || order[0] != want[0] || order[1] != want[1] || order[2] != want[2] {
		t.Errorf("field order = %v, want %v", order, want)
	}
}

func TestParseJSONLMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty file", ""},
		{"blank lines only", "\n\n"},
		{"malformed first line", "not json\n"},
		{"malformed later line", `{"a":1}` + "\nnot json\n"},
		{"top-level array", `[1,2,3]` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseBatch([]byte(tt.raw), FormatJSONL)
			if !errors.Is(err, ErrMalformedInput) {
				t.Errorf("parseBatch() error = %v, want ErrMalformedInput", err)
			}
		})
	}
}

func TestParseCSV(t *testing.T) {
	raw := []byte("CustomerID,Name,Email\nC1,Asha,asha@example.com\nC2,Ravi,ravi@example.com\n")

	records, order, err := parseBatch(raw, FormatCSV)
	if err != nil {
		t.Fatalf("parseBatch() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if order[0] != "CustomerID" || order[1] != "Name" || order[2] != "Email" {
		t.Errorf("header order = %v", order)
	}
	if records[0].StringField("Name") != "Asha" {
		t.Errorf("Name = %q, want Asha", records[0].StringField("Name"))
	}
}

func TestParseCSVMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty file", ""},
		{"header only", "CustomerID,Name\n"},
		{"ragged quoting", "CustomerID,Name\n\"C1,Asha\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseBatch([]byte(tt.raw), FormatCSV)
			if !errors.Is(err, ErrMalformedInput) {
				t.Errorf("parseBatch() error = %v, want ErrMalformedInput", err)
			}
		})
	}
}

func TestNaturalKey(t *testing.T) {
	tx := domain.Record{domain.FieldTransactionID: "T9", domain.FieldCustomerID: "C9"}
	if got := naturalKey(tx, domain.SourceATM); got != "T9" {
		t.Errorf("atm key = %q, want T9", got)
	}
	if got := naturalKey(tx, domain.SourceCustomers); got != "C9" {
		t.Errorf("customer key = %q, want C9", got)
	}

	noTx := domain.Record{domain.FieldCustomerID: "C9"}
	if got := naturalKey(noTx, domain.SourceUPI); got != "C9" {
		t.Errorf("fallback key = %q, want C9", got)
	}

	if got := naturalKey(domain.Record{}, domain.SourceATM); got != "" {
		t.Errorf("keyless record = %q, want empty", got)
	}
}

func TestDeduperObserve(t *testing.T) {
	d := newDeduper()
	if d.observe("T1") {
		t.Error("first observation reported as duplicate")
	}
	if !d.observe("T1") {
		t.Error("second observation not reported as duplicate")
	}
	if d.observe("T2") {
		t.Error("distinct key reported as duplicate")
	}
}
