package adapters

import (
	"context"

	"github.com/veriscan/veriscan/internal/domain/scanning"
)

// HeaderCheckAdapter audits the target's security response headers. Like the
// passive adapter it returns a fixed, deterministic finding list for a given
// target URL.
type HeaderCheckAdapter struct{}

// NewHeaderCheckAdapter returns the header-check adapter.
func NewHeaderCheckAdapter() *HeaderCheckAdapter { return &HeaderCheckAdapter{} }

// Name identifies the adapter in results payloads.
func (a *HeaderCheckAdapter) Name() string { return "header-check" }

// Run produces the deterministic header findings for the job's target URL.
func (a *HeaderCheckAdapter) Run(ctx context.Context, job scanning.JobDescriptor) (scanning.ScanResult, error) {
	if err := ctx.Err(); err != nil {
		return scanning.ScanResult{}, err
	}

	url := job.TargetURL()
	if url == "" {
		return scanning.NewScanResult(a.Name(), nil), nil
	}

	findings := []scanning.FindingRecord{
		{Severity: scanning.SeverityMedium, Type: "Missing Content-Security-Policy header", Location: url},
		{Severity: scanning.SeverityMedium, Type: "Missing Strict-Transport-Security header", Location: url},
		{Severity: scanning.SeverityLow, Type: "Missing Referrer-Policy header", Location: url},
		{Severity: scanning.SeverityLow, Type: "Missing Permissions-Policy header", Location: url},
	}
	return scanning.NewScanResult(a.Name(), findings), nil
}
