// Package detector implements the suspicious-activity rules evaluated over
// one ingested batch: high-value transactions, rapid ATM withdrawal
// clusters, and geo anomalies against the account profile. All rules are
// pure reads over already-classified records; none keep cross-batch state.
package detector

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dvnair/fraudsight/internal/domain"
)

// Config carries the rule thresholds. Zero values are not meaningful; use
// DefaultConfig and override individual fields from configuration.
type Config struct {
	HighValueATMThreshold float64
	HighValueUPIThreshold float64
	RapidWindow           time.Duration
	RapidMinCount         int
	GeoAnomalyKm          float64
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		HighValueATMThreshold: 20000,
		HighValueUPIThreshold: 50000,
		RapidWindow:           5 * time.Minute,
		RapidMinCount:         3,
		GeoAnomalyKm:          500,
	}
}

// Status is the outcome of one rule evaluation. Inconclusive means the rule
// could not be evaluated (missing or malformed inputs); callers log it and
// stage no alert, so an inconclusive rule never fails the pipeline.
type Status int

const (
	StatusClear Status = iota
	StatusFlagged
	StatusInconclusive
)

func (s Status) String() string {
	switch s {
	case StatusClear:
		return "clear"
	case StatusFlagged:
		return "flagged"
	case StatusInconclusive:
		return "inconclusive"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Verdict is a rule outcome plus, for inconclusive evaluations, the reason.
type Verdict struct {
	Status Status
	Reason string
}

// GeoVerdict extends Verdict with the computed great-circle distance.
type GeoVerdict struct {
	Verdict
	DistanceKm float64
}

// Detector evaluates the configured rules.
type Detector struct {
	cfg Config
}

// New creates a Detector with the given thresholds.
func New(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// HighValue checks one classified transaction against the per-channel
// absolute-amount threshold. Customer records carry no label and come back
// clear.
func (d *Detector) HighValue(rec domain.Record) Verdict {
	amt, ok := rec.NumberField(domain.FieldAmount)
	if !ok {
		return Verdict{Status: StatusInconclusive, Reason: "amount missing or not numeric"}
	}
	if amt < 0 {
		amt = -amt
	}

	label := rec.TransactionType()
	switch {
	case strings.Contains(label, "ATM") && amt >= d.cfg.HighValueATMThreshold:
		return Verdict{Status: StatusFlagged}
	case strings.Contains(label, "UPI") && amt >= d.cfg.HighValueUPIThreshold:
		return Verdict{Status: StatusFlagged}
	}
	return Verdict{Status: StatusClear}
}

// RapidWithdrawals scans the batch for clusters of ATM withdrawals inside
// the configured window. For every start index whose forward window holds at
// least RapidMinCount withdrawals it emits one alert, so a single burst
// yields one alert per qualifying start position. That overlap is the
// upstream-contracted behavior; consumers dedupe by alert id if they want
// one alert per burst.
func (d *Detector) RapidWithdrawals(records []domain.Record) []domain.RapidWithdrawalAlert {
	type stamped struct {
		rec domain.Record
		ts  time.Time
	}

	var withdrawals []stamped
	for _, rec := range records {
		if rec.TransactionType() != "ATM_WITHDRAWAL" {
			continue
		}
		ts, err := dateparse.ParseAny(rec.StringField(domain.FieldTransactionTime))
		if err != nil {
			// Validated records always carry a parseable TransactionTime;
			// anything else is skipped rather than failing the rule.
			continue
		}
		withdrawals = append(withdrawals, stamped{rec: rec, ts: ts})
	}

	sort.SliceStable(withdrawals, func(i, j int) bool {
		return withdrawals[i].ts.Before(withdrawals[j].ts)
	})

	var alerts []domain.RapidWithdrawalAlert
	for i := range withdrawals {
		group := []stamped{withdrawals[i]}
		for j := i + 1; j < len(withdrawals); j++ {
			if withdrawals[j].ts.Sub(withdrawals[i].ts) > d.cfg.RapidWindow {
				break
			}
			group = append(group, withdrawals[j])
		}

		if len(group) < d.cfg.RapidMinCount {
			continue
		}

		alerts = append(alerts, domain.RapidWithdrawalAlert{
			AccountNumber: withdrawals[i].rec.StringField(domain.FieldAccountNumber),
			Count:         len(group),
			StartTime:     group[0].rec.StringField(domain.FieldTransactionTime),
			EndTime:       group[len(group)-1].rec.StringField(domain.FieldTransactionTime),
		})
	}

	return alerts
}

// GeoAnomaly compares the record's event location against the account's
// last known location. Flagged when the haversine distance exceeds
// GeoAnomalyKm; inconclusive when either location is absent or malformed.
func (d *Detector) GeoAnomaly(rec domain.Record, profile *domain.AccountProfile) GeoVerdict {
	if profile == nil || profile.LastKnownLocation == "" {
		return GeoVerdict{Verdict: Verdict{Status: StatusInconclusive, Reason: "no last known location on profile"}}
	}

	lat1, lon1, err := parseLatLon(profile.LastKnownLocation)
	if err != nil {
		return GeoVerdict{Verdict: Verdict{Status: StatusInconclusive, Reason: fmt.Sprintf("profile location: %v", err)}}
	}

	loc := rec.StringField(domain.FieldGeoLocation)
	if loc == "" {
		return GeoVerdict{Verdict: Verdict{Status: StatusInconclusive, Reason: "record has no GeoLocation"}}
	}
	lat2, lon2, err := parseLatLon(loc)
	if err != nil {
		return GeoVerdict{Verdict: Verdict{Status: StatusInconclusive, Reason: fmt.Sprintf("record location: %v", err)}}
	}

	dist := haversineKm(lat1, lon1, lat2, lon2)
	v := GeoVerdict{DistanceKm: dist}
	if dist > d.cfg.GeoAnomalyKm {
		v.Status = StatusFlagged
	} else {
		v.Status = StatusClear
	}
	return v
}
