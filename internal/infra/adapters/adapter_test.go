package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriscan/veriscan/internal/domain/scanning"
)

func TestDefaultRegistrySelection(t *testing.T) {
	t.Parallel()

	registry := DefaultRegistry()

	tests := []struct {
		name        string
		suiteID     string
		scanType    string
		wantAdapter string
	}{
		{name: "zap suite", suiteID: "zap-baseline", wantAdapter: "header-check"},
		{name: "zap in scan type", suiteID: "baseline", scanType: "ZAP-full", wantAdapter: "header-check"},
		{name: "zap pentest excluded", suiteID: "zap-pentest", wantAdapter: "passive-baseline"},
		{name: "pentest in scan type excludes", suiteID: "zap-baseline", scanType: "pentest", wantAdapter: "passive-baseline"},
		{name: "case insensitive", suiteID: "Zap-Baseline", wantAdapter: "header-check"},
		{name: "no match falls back", suiteID: "nuclei", wantAdapter: "passive-baseline"},
		{name: "empty suite falls back", wantAdapter: "passive-baseline"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			job := scanning.JobDescriptor{SuiteID: tt.suiteID}
			if tt.scanType != "" {
				job.Config = map[string]any{"scan_type": tt.scanType}
			}
			assert.Equal(t, tt.wantAdapter, registry.Select(job).Name())
		})
	}
}

func TestRegistryFirstMatchWins(t *testing.T) {
	t.Parallel()

	always := func(scanning.JobDescriptor) bool { return true }

	registry := NewRegistry(
		NewPassiveAdapter(),
		Rule{Matches: always, Adapter: NewHeaderCheckAdapter()},
		Rule{Matches: always, Adapter: NewPassiveAdapter()},
	)

	assert.Equal(t, "header-check", registry.Select(scanning.JobDescriptor{}).Name())
}

func TestPassiveAdapterDeterministic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	job := scanning.JobDescriptor{
		SuiteID: "baseline",
		Config:  map[string]any{"target_url": "https://app.example.com"},
	}

	adapter := NewPassiveAdapter()
	first, err := adapter.Run(ctx, job)
	require.NoError(t, err)
	second, err := adapter.Run(ctx, job)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "passive-baseline", first.Adapter)
	require.Len(t, first.Findings, 3)
	assert.Equal(t, 3, first.Summary["total_findings"])
	for _, f := range first.Findings {
		assert.Contains(t, f.Location, "https://app.example.com")
	}
}

func TestPassiveAdapterNoTargetURL(t *testing.T) {
	t.Parallel()

	result, err := NewPassiveAdapter().Run(context.Background(), scanning.JobDescriptor{SuiteID: "baseline"})
	require.NoError(t, err)
	assert.Empty(t, result.Findings)
	assert.Equal(t, 0, result.Summary["total_findings"])
}

func TestHeaderCheckAdapterFindings(t *testing.T) {
	t.Parallel()

	job := scanning.JobDescriptor{
		SuiteID: "zap-baseline",
		Config:  map[string]any{"target_url": "https://app.example.com"},
	}

	result, err := NewHeaderCheckAdapter().Run(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "header-check", result.Adapter)
	require.Len(t, result.Findings, 4)

	var types []string
	for _, f := range result.Findings {
		types = append(types, f.Type)
	}
	assert.Contains(t, types, "Missing Content-Security-Policy header")
	assert.Contains(t, types, "Missing Strict-Transport-Security header")
}

func TestAdaptersHonorCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := scanning.JobDescriptor{Config: map[string]any{"target_url": "https://app.example.com"}}

	_, err := NewPassiveAdapter().Run(ctx, job)
	require.ErrorIs(t, err, context.Canceled)
	_, err = NewHeaderCheckAdapter().Run(ctx, job)
	require.ErrorIs(t, err, context.Canceled)
}
