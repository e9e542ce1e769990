package domain

import (
	"strconv"
)

// SourceType identifies which upstream feed a batch file came from.
type SourceType string

const (
	SourceATM       SourceType = "atm"
	SourceUPI       SourceType = "upi"
	SourceCustomers SourceType = "customers"
)

// IsTransaction reports whether records from this source are financial
// transactions (as opposed to customer profiles).
func (s SourceType) IsTransaction() bool {
	return s == SourceATM || s == SourceUPI
}

// Field names fixed by the upstream feeds. The ingestion pipeline never
// renames them; persisted documents keep the original casing.
const (
	FieldTransactionID   = "TransactionID"
	FieldCustomerID      = "CustomerID"
	FieldAccountNumber   = "AccountNumber"
	FieldTransactionTime = "TransactionTime"
	FieldGeoLocation     = "GeoLocation"
	FieldName            = "Name"
	FieldPhone           = "Phone"
	FieldEmail           = "Email"
	FieldDescription     = "description"
	FieldAmount          = "amount"
	FieldTransactionType = "transaction_type"
	FieldID              = "id"
)

// Record is one parsed event row: field name to raw value. Values are
// strings (CSV), or strings/float64/bool/nil (JSON lines). The classifier
// adds transaction_type and the orchestrator adds id; everything else is
// passed through to persistence untouched.
type Record map[string]any

// StringField returns the value under key rendered as a string.
// Absent and nil values render as "".
func (r Record) StringField(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// NumberField returns the value under key as a float64. The second return
// is false when the field is absent, nil, or not interpretable as a number.
func (r Record) NumberField(key string) (float64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ID returns the natural key assigned during ingestion, or "".
func (r Record) ID() string {
	return r.StringField(FieldID)
}

// SetID assigns the natural key under the id field.
func (r Record) SetID(id string) {
	r[FieldID] = id
}

// TransactionType returns the label assigned by the classifier, or "".
func (r Record) TransactionType() string {
	return r.StringField(FieldTransactionType)
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
