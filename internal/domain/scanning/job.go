package scanning

import "github.com/google/uuid"

// JobDescriptor carries everything an adapter needs to execute a scan. The
// config map should contain a "target_url" key for meaningful output.
type JobDescriptor struct {
	RunID     uuid.UUID      `json:"run_id"`
	ProjectID uuid.UUID      `json:"project_id"`
	TargetID  uuid.UUID      `json:"target_id"`
	SuiteID   string         `json:"suite_id"`
	Config    map[string]any `json:"config,omitempty"`
	SafeMode  bool           `json:"safe_mode"`
	RateLimit float64        `json:"rate_limit"`
}

// TargetURL returns the config's target_url value, if present.
func (j JobDescriptor) TargetURL() string {
	if v, ok := j.Config["target_url"].(string); ok {
		return v
	}
	return ""
}

// ScanType returns the config's scan_type value, if present. Adapter
// selection keys off this alongside the suite id.
func (j JobDescriptor) ScanType() string {
	if v, ok := j.Config["scan_type"].(string); ok {
		return v
	}
	return ""
}

// FindingRecord is one issue reported by an adapter before persistence
// assigns it an identity.
type FindingRecord struct {
	Severity Severity `json:"severity"`
	Type     string   `json:"type"`
	Location string   `json:"location"`
}

// ScanResult is the payload an adapter produces for a job. Summary carries
// at minimum a total_findings count.
type ScanResult struct {
	Adapter  string          `json:"adapter"`
	Summary  map[string]any  `json:"summary"`
	Findings []FindingRecord `json:"findings"`
}

// NewScanResult builds a result with the summary populated from the
// findings.
func NewScanResult(adapter string, findings []FindingRecord) ScanResult {
	return ScanResult{
		Adapter:  adapter,
		Summary:  map[string]any{"total_findings": len(findings)},
		Findings: findings,
	}
}
