package adapters

import (
	"context"

	"github.com/veriscan/veriscan/internal/domain/scanning"
)

// PassiveAdapter is the baseline strategy. It produces a fixed set of
// passive observations keyed off the target URL; without a target URL it
// reports nothing. No traffic is ever sent.
type PassiveAdapter struct{}

// NewPassiveAdapter returns the passive baseline adapter.
func NewPassiveAdapter() *PassiveAdapter { return &PassiveAdapter{} }

// Name identifies the adapter in results payloads.
func (a *PassiveAdapter) Name() string { return "passive-baseline" }

// Run produces the deterministic passive findings for the job's target URL.
func (a *PassiveAdapter) Run(ctx context.Context, job scanning.JobDescriptor) (scanning.ScanResult, error) {
	if err := ctx.Err(); err != nil {
		return scanning.ScanResult{}, err
	}

	url := job.TargetURL()
	if url == "" {
		return scanning.NewScanResult(a.Name(), nil), nil
	}

	findings := []scanning.FindingRecord{
		{Severity: scanning.SeverityInfo, Type: "Server header discloses software version", Location: url},
		{Severity: scanning.SeverityLow, Type: "Missing X-Content-Type-Options header", Location: url},
		{Severity: scanning.SeverityMedium, Type: "Session cookie set without Secure flag", Location: url + "/login"},
	}
	return scanning.NewScanResult(a.Name(), findings), nil
}
