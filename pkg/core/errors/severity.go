package errors

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow indicates a user-side problem such as malformed input
	SeverityLow Severity = iota

	// SeverityMedium indicates a failure with an obvious retry path
	SeverityMedium

	// SeverityHigh indicates an unavailable or misbehaving backend
	SeverityHigh

	// SeverityCritical indicates a programming error
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}
