package pipeline

import (
	"testing"

	"github.com/dvnair/fraudsight/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		source      domain.SourceType
		description string
		amount      float64
		want        string
	}{
		{"atm withdrawal keyword", domain.SourceATM, "cash withdrawal", 100, LabelATMWithdrawal},
		{"atm negative amount", domain.SourceATM, "branch txn", -50, LabelATMWithdrawal},
		{"atm withdrawal keyword beats positive amount", domain.SourceATM, "withdraw cash", 50, LabelATMWithdrawal},
		{"atm deposit keyword", domain.SourceATM, "cheque deposit", -0, LabelATMDeposit},
		{"atm positive amount", domain.SourceATM, "branch txn", 200, LabelATMDeposit},
		{"atm neither", domain.SourceATM, "balance enquiry", 0, LabelATMOther},
		{"atm case insensitive", domain.SourceATM, "WITHDRAWAL", 10, LabelATMWithdrawal},
		{"upi pay keyword", domain.SourceUPI, "payment to merchant", 0, LabelUPIPayment},
		{"upi debit keyword", domain.SourceUPI, "auto debit", 0, LabelUPIPayment},
		{"upi other", domain.SourceUPI, "refund received", 0, LabelUPIOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := domain.Record{
				domain.FieldDescription: tt.description,
				domain.FieldAmount:      tt.amount,
			}
			got := Classify(rec, tt.source)
			if got.TransactionType() != tt.want {
				t.Errorf("transaction_type = %s, want %s", got.TransactionType(), tt.want)
			}
		})
	}
}

func TestClassifyLeavesCustomerRecordsAlone(t *testing.T) {
	rec := domain.Record{domain.FieldDescription: "withdraw"}
	got := Classify(rec, domain.SourceCustomers)
	if _, ok := got[domain.FieldTransactionType]; ok {
		t.Error("customer records must not receive a transaction_type")
	}
}
