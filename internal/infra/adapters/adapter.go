// Package adapters provides the pluggable scan strategies and the dispatch
// table that selects one for a job.
package adapters

import (
	"context"
	"strings"

	"github.com/veriscan/veriscan/internal/domain/scanning"
)

// Adapter is a pluggable scan strategy producing findings for a job.
type Adapter interface {
	Name() string
	Run(ctx context.Context, job scanning.JobDescriptor) (scanning.ScanResult, error)
}

// Rule pairs a predicate with the adapter to use when it matches.
type Rule struct {
	Matches func(job scanning.JobDescriptor) bool
	Adapter Adapter
}

// Registry selects an adapter for a job by evaluating an ordered rule list.
// First match wins; the fallback is always present so selection never fails.
type Registry struct {
	rules    []Rule
	fallback Adapter
}

// NewRegistry builds a registry from an ordered rule list and a fallback.
func NewRegistry(fallback Adapter, rules ...Rule) *Registry {
	return &Registry{rules: rules, fallback: fallback}
}

// Select returns the adapter for the first matching rule, or the fallback.
func (r *Registry) Select(job scanning.JobDescriptor) Adapter {
	for _, rule := range r.rules {
		if rule.Matches(job) {
			return rule.Adapter
		}
	}
	return r.fallback
}

// DefaultRegistry wires the stock selection policy: suites that look like a
// ZAP header audit (and are not a pentest) use the header-check adapter,
// everything else falls back to the passive baseline.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewPassiveAdapter(),
		Rule{Matches: wantsHeaderAudit, Adapter: NewHeaderCheckAdapter()},
	)
}

func wantsHeaderAudit(job scanning.JobDescriptor) bool {
	haystack := strings.ToLower(job.SuiteID + " " + job.ScanType())
	return strings.Contains(haystack, "zap") && !strings.Contains(haystack, "pentest")
}
