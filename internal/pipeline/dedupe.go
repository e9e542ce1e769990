package pipeline

import "github.com/dvnair/fraudsight/internal/domain"

// naturalKey derives the record's dedup/identity key. Customer batches key
// on CustomerID; transaction batches key on TransactionID and fall back to
// CustomerID for feeds that only carry the customer identifier. Empty means
// the record has no usable key and must be dropped.
func naturalKey(rec domain.Record, source domain.SourceType) string {
	if source == domain.SourceCustomers {
		return rec.StringField(domain.FieldCustomerID)
	}
	if id := rec.StringField(domain.FieldTransactionID); id != "" {
		return id
	}
	return rec.StringField(domain.FieldCustomerID)
}

// deduper suppresses repeated natural keys within one batch. No cross-batch
// state: idempotency against redelivery is the persistence layer's
// upsert-by-id, not ours.
type deduper struct {
	seen map[string]struct{}
}

func newDeduper() *deduper {
	return &deduper{seen: make(map[string]struct{})}
}

// observe records the key and reports whether it was already seen.
func (d *deduper) observe(key string) bool {
	if _, dup := d.seen[key]; dup {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}
