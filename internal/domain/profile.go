package domain

// AccountProfile is the customer-owned view the geo-anomaly rule reads.
// LastKnownLocation is a "lat,lon" pair; it may be empty for profiles that
// have never reported a location, in which case the rule cannot evaluate.
type AccountProfile struct {
	CustomerID        string
	Name              string
	Phone             string
	Email             string
	LastKnownLocation string
}

// IngestReport summarizes one pipeline invocation.
type IngestReport struct {
	RunID  string
	URI    string
	Source SourceType
	Format string

	Parsed           int
	Accepted         int
	DroppedDuplicate int
	DroppedInvalid   int
	AlertsStaged     int

	// Alerts holds the staged alerts so callers can post-process them,
	// e.g. attach analyst summaries.
	Alerts []Alert
}
