package pipeline

import (
	"strings"

	"github.com/dvnair/fraudsight/internal/domain"
)

// Transaction-type labels assigned by Classify.
const (
	LabelATMWithdrawal = "ATM_WITHDRAWAL"
	LabelATMDeposit    = "ATM_DEPOSIT"
	LabelATMOther      = "ATM_OTHER"
	LabelUPIPayment    = "UPI_PAYMENT"
	LabelUPIOther      = "UPI_OTHER"
)

// Classify assigns a transaction_type label from the free-text description,
// tie-broken by amount sign. The withdrawal check runs before the deposit
// check, so a positive-amount record whose description says "withdraw" is
// still a withdrawal. Customer records are returned unchanged.
func Classify(rec domain.Record, source domain.SourceType) domain.Record {
	desc := strings.ToLower(rec.StringField(domain.FieldDescription))
	amount, _ := rec.NumberField(domain.FieldAmount)

	switch source {
	case domain.SourceATM:
		switch {
		case strings.Contains(desc, "withdraw") || amount < 0:
			rec[domain.FieldTransactionType] = LabelATMWithdrawal
		case strings.Contains(desc, "deposit") || amount > 0:
			rec[domain.FieldTransactionType] = LabelATMDeposit
		default:
			rec[domain.FieldTransactionType] = LabelATMOther
		}
	case domain.SourceUPI:
		if strings.Contains(desc, "pay") || strings.Contains(desc, "debit") {
			rec[domain.FieldTransactionType] = LabelUPIPayment
		} else {
			rec[domain.FieldTransactionType] = LabelUPIOther
		}
	}

	return rec
}
