package pipeline

import "github.com/dvnair/fraudsight/internal/domain"

// Logical persistence containers, one per source type plus the shared alert
// container. Names match the upstream operational store.
const (
	ContainerATMTransactions = "ATMTransactions"
	ContainerUPIEvents       = "UPIEvents"
	ContainerAccountProfile  = "AccountProfile"
	ContainerFraudAlerts     = "FraudAlerts"
)

// containerForSource maps a batch's source tag to its record container.
var containerForSource = map[domain.SourceType]string{
	domain.SourceATM:       ContainerATMTransactions,
	domain.SourceUPI:       ContainerUPIEvents,
	domain.SourceCustomers: ContainerAccountProfile,
}

// File formats accepted for batch files.
const (
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
)
