package domain

import "fmt"

// AlertType tags the rule that produced an alert.
type AlertType string

const (
	AlertHighValue        AlertType = "HIGH_VALUE"
	AlertRapidWithdrawals AlertType = "RAPID_WITHDRAWALS"
	AlertGeoAnomaly       AlertType = "GEO_ANOMALY"
)

// Alert is a derived, append-only fact produced by one detector rule.
// Alerts are persisted as upserts keyed by AlertID, so re-running the same
// batch regenerates the same documents instead of duplicating them.
type Alert interface {
	AlertID() string
	Type() AlertType
	// Doc is the document-store projection of the alert.
	Doc() map[string]any
}

// HighValueAlert flags a single transaction whose absolute amount crossed
// the per-channel threshold.
type HighValueAlert struct {
	RecordID  string
	AccountID string
	Amount    float64
	Details   Record
}

func (a HighValueAlert) AlertID() string { return a.RecordID + "-high" }

func (a HighValueAlert) Type() AlertType { return AlertHighValue }

func (a HighValueAlert) Doc() map[string]any {
	return map[string]any{
		"id":            a.AlertID(),
		"AlertType":     string(AlertHighValue),
		"AccountNumber": a.AccountID,
		"Amount":        a.Amount,
		"Details":       map[string]any(a.Details),
	}
}

// RapidWithdrawalAlert flags a cluster of ATM withdrawals inside one time
// window. StartTime/EndTime carry the raw timestamp strings from the source
// records; StartTime also anchors the alert id, which keeps ids stable
// across re-runs of the same file.
type RapidWithdrawalAlert struct {
	AccountNumber string
	Count         int
	StartTime     string
	EndTime       string
}

func (a RapidWithdrawalAlert) AlertID() string {
	return fmt.Sprintf("rapid-%s-%s", a.AccountNumber, a.StartTime)
}

func (a RapidWithdrawalAlert) Type() AlertType { return AlertRapidWithdrawals }

func (a RapidWithdrawalAlert) Doc() map[string]any {
	return map[string]any{
		"id":            a.AlertID(),
		"AlertType":     string(AlertRapidWithdrawals),
		"AccountNumber": a.AccountNumber,
		"Count":         a.Count,
		"StartTime":     a.StartTime,
		"EndTime":       a.EndTime,
	}
}

// GeoAnomalyAlert flags a transaction whose event location is implausibly
// far from the account's last known location.
type GeoAnomalyAlert struct {
	TransactionID     string
	CustomerID        string
	DistanceKm        float64
	LastKnownLocation string
	EventLocation     string
}

func (a GeoAnomalyAlert) AlertID() string { return "alert-" + a.TransactionID }

func (a GeoAnomalyAlert) Type() AlertType { return AlertGeoAnomaly }

func (a GeoAnomalyAlert) Doc() map[string]any {
	return map[string]any{
		"id":                a.AlertID(),
		"AlertType":         string(AlertGeoAnomaly),
		"CustomerID":        a.CustomerID,
		"TransactionID":     a.TransactionID,
		"DistanceKm":        a.DistanceKm,
		"LastKnownLocation": a.LastKnownLocation,
		"EventLocation":     a.EventLocation,
	}
}
