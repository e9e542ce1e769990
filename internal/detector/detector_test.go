package detector

import (
	"fmt"
	"testing"

	"github.com/dvnair/fraudsight/internal/domain"
)

func TestHighValue(t *testing.T) {
	d := New(DefaultConfig())

	tests := []struct {
		name   string
		label  string
		amount any
		want   Status
	}{
		{"atm at threshold", "ATM_DEPOSIT", 20000.0, StatusFlagged},
		{"atm negative amount uses absolute value", "ATM_WITHDRAWAL", -20000.0, StatusFlagged},
		{"atm just under threshold", "ATM_WITHDRAWAL", -19999.0, StatusClear},
		{"upi at threshold", "UPI_PAYMENT", 50000.0, StatusFlagged},
		{"upi under atm threshold is fine", "UPI_PAYMENT", 20000.0, StatusClear},
		{"unlabeled record", "", 99999.0, StatusClear},
		{"string amount", "ATM_WITHDRAWAL", "25000", StatusFlagged},
		{"missing amount", "ATM_WITHDRAWAL", nil, StatusInconclusive},
		{"non numeric amount", "UPI_PAYMENT", "lots", StatusInconclusive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := domain.Record{
				domain.FieldTransactionType: tt.label,
			}
			if tt.amount != nil {
				rec[domain.FieldAmount] = tt.amount
			}
			got := d.HighValue(rec)
			if got.Status != tt.want {
				t.Errorf("HighValue() = %v (%s), want %v", got.Status, got.Reason, tt.want)
			}
		})
	}
}

func withdrawal(account, ts string) domain.Record {
	return domain.Record{
		domain.FieldAccountNumber:   account,
		domain.FieldTransactionTime: ts,
		domain.FieldTransactionType: "ATM_WITHDRAWAL",
	}
}

func TestRapidWithdrawalsSingleBurst(t *testing.T) {
	d := New(DefaultConfig())

	records := []domain.Record{
		withdrawal("ACC1", "2024-01-01T00:00:00Z"),
		withdrawal("ACC1", "2024-01-01T00:02:00Z"),
		withdrawal("ACC1", "2024-01-01T00:04:00Z"),
		withdrawal("ACC1", "2024-01-01T00:10:00Z"), // outside the 5m window
	}

	alerts := d.RapidWithdrawals(records)
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1: %+v", len(alerts), alerts)
	}

	a := alerts[0]
	if a.Count != 3 {
		t.Errorf("Count = %d, want 3", a.Count)
	}
	if a.StartTime != "2024-01-01T00:00:00Z" {
		t.Errorf("StartTime = %s, want 2024-01-01T00:00:00Z", a.StartTime)
	}
	if a.EndTime != "2024-01-01T00:04:00Z" {
		t.Errorf("EndTime = %s, want 2024-01-01T00:04:00Z", a.EndTime)
	}
	if want := "rapid-ACC1-2024-01-01T00:00:00Z"; a.AlertID() != want {
		t.Errorf("AlertID = %s, want %s", a.AlertID(), want)
	}
}

func TestRapidWithdrawalsOverlappingStarts(t *testing.T) {
	d := New(DefaultConfig())

	// Four withdrawals inside five minutes: the scan qualifies both index 0
	// (count 4) and index 1 (count 3).
	records := []domain.Record{
		withdrawal("ACC1", "2024-01-01T00:00:00Z"),
		withdrawal("ACC1", "2024-01-01T00:01:00Z"),
		withdrawal("ACC1", "2024-01-01T00:02:00Z"),
		withdrawal("ACC1", "2024-01-01T00:03:00Z"),
	}

	alerts := d.RapidWithdrawals(records)
	if len(alerts) != 2 {
		t.Fatalf("got %d alerts, want 2 (one per qualifying start index): %+v", len(alerts), alerts)
	}
	if alerts[0].Count != 4 || alerts[1].Count != 3 {
		t.Errorf("counts = %d, %d, want 4, 3", alerts[0].Count, alerts[1].Count)
	}
}

func TestRapidWithdrawalsIgnoresOtherLabels(t *testing.T) {
	d := New(DefaultConfig())

	records := []domain.Record{
		withdrawal("ACC1", "2024-01-01T00:00:00Z"),
		withdrawal("ACC1", "2024-01-01T00:01:00Z"),
	}
	deposit := withdrawal("ACC1", "2024-01-01T00:02:00Z")
	deposit[domain.FieldTransactionType] = "ATM_DEPOSIT"
	records = append(records, deposit)

	if alerts := d.RapidWithdrawals(records); len(alerts) != 0 {
		t.Errorf("expected no alerts with only two withdrawals, got %+v", alerts)
	}
}

func TestRapidWithdrawalsSortsUnorderedInput(t *testing.T) {
	d := New(DefaultConfig())

	records := []domain.Record{
		withdrawal("ACC1", "2024-01-01T00:04:00Z"),
		withdrawal("ACC1", "2024-01-01T00:00:00Z"),
		withdrawal("ACC1", "2024-01-01T00:02:00Z"),
	}

	alerts := d.RapidWithdrawals(records)
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	if alerts[0].StartTime != "2024-01-01T00:00:00Z" || alerts[0].EndTime != "2024-01-01T00:04:00Z" {
		t.Errorf("window = %s..%s, want sorted bounds", alerts[0].StartTime, alerts[0].EndTime)
	}
}

func TestGeoAnomaly(t *testing.T) {
	d := New(DefaultConfig())

	profileAt := func(loc string) *domain.AccountProfile {
		return &domain.AccountProfile{CustomerID: "CUST1", LastKnownLocation: loc}
	}
	recordAt := func(loc string) domain.Record {
		return domain.Record{domain.FieldGeoLocation: loc}
	}

	t.Run("far away is flagged", func(t *testing.T) {
		// (0,0) to (10,0) is roughly 1111 km.
		v := d.GeoAnomaly(recordAt("10,0"), profileAt("0,0"))
		if v.Status != StatusFlagged {
			t.Fatalf("status = %v (%s), want flagged", v.Status, v.Reason)
		}
		if v.DistanceKm < 1100 || v.DistanceKm > 1120 {
			t.Errorf("DistanceKm = %f, want ~1111", v.DistanceKm)
		}
	})

	t.Run("nearby is clear", func(t *testing.T) {
		// (0,0) to (0.1,0) is roughly 11 km.
		v := d.GeoAnomaly(recordAt("0.1,0"), profileAt("0,0"))
		if v.Status != StatusClear {
			t.Fatalf("status = %v (%s), want clear", v.Status, v.Reason)
		}
		if v.DistanceKm > 12 {
			t.Errorf("DistanceKm = %f, want ~11", v.DistanceKm)
		}
	})

	inconclusive := []struct {
		name    string
		rec     domain.Record
		profile *domain.AccountProfile
	}{
		{"nil profile", recordAt("10,0"), nil},
		{"profile without location", recordAt("10,0"), profileAt("")},
		{"malformed profile location", recordAt("10,0"), profileAt("somewhere")},
		{"record without location", domain.Record{}, profileAt("0,0")},
		{"malformed record location", recordAt("10;0"), profileAt("0,0")},
	}

	for _, tt := range inconclusive {
		t.Run(fmt.Sprintf("inconclusive/%s", tt.name), func(t *testing.T) {
			v := d.GeoAnomaly(tt.rec, tt.profile)
			if v.Status != StatusInconclusive {
				t.Errorf("status = %v, want inconclusive", v.Status)
			}
			if v.Reason == "" {
				t.Error("expected a reason for the inconclusive verdict")
			}
		})
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// London (51.5074, -0.1278) to Paris (48.8566, 2.3522) is ~344 km.
	got := haversineKm(51.5074, -0.1278, 48.8566, 2.3522)
	if got < 330 || got > 360 {
		t.Errorf("haversineKm(London, Paris) = %f, want ~344", got)
	}
}
