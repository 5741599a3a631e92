package otel

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// endpointExcluder applies probability sampling to everything except the
// configured routes, which are never sampled (health checks, debug).
type endpointExcluder struct {
	endpoints   map[string]struct{}
	probability sdktrace.Sampler
}

func newEndpointExcluder(endpoints map[string]struct{}, probability float64) endpointExcluder {
	return endpointExcluder{
		endpoints:   endpoints,
		probability: sdktrace.TraceIDRatioBased(probability),
	}
}

// ShouldSample implements the sdktrace.Sampler interface.
func (e endpointExcluder) ShouldSample(params sdktrace.SamplingParameters) sdktrace.SamplingResult {
	for _, attr := range params.Attributes {
		if attr.Key == "http.target" {
			if _, exists := e.endpoints[attr.Value.AsString()]; exists {
				return sdktrace.SamplingResult{Decision: sdktrace.Drop}
			}
		}
	}

	if _, exists := e.endpoints[params.Name]; exists {
		return sdktrace.SamplingResult{
			Decision:   sdktrace.Drop,
			Tracestate: trace.SpanContextFromContext(params.ParentContext).TraceState(),
		}
	}

	return e.probability.ShouldSample(params)
}

// Description implements the sdktrace.Sampler interface.
func (e endpointExcluder) Description() string {
	return fmt.Sprintf("endpointExcluder{excluded:%d}", len(e.endpoints))
}
