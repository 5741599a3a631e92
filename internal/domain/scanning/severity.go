package scanning

// Severity classifies how serious a finding is.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

func (s Severity) String() string { return string(s) }

// ParseSeverity converts a string to a Severity. Unknown values default to
// SeverityInfo so adapter output never fails classification.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(s)
	default:
		return SeverityInfo
	}
}
