// Package spool persists job descriptors and scan results as one JSON file
// per run id. It is a single-writer, single-reader mailbox split into two
// independent namespaces (queue and results), not a durable multi-consumer
// queue.
package spool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/veriscan/veriscan/internal/domain/scanning"
	"github.com/veriscan/veriscan/internal/infra/storage"
)

const (
	queueDirName   = "queue"
	resultsDirName = "results"
)

// Spool writes and reads run files under a root directory.
type Spool struct {
	queueDir   string
	resultsDir string
	tracer     trace.Tracer
}

// New creates the queue and results directories under root if missing.
func New(root string, tracer trace.Tracer) (*Spool, error) {
	s := &Spool{
		queueDir:   filepath.Join(root, queueDirName),
		resultsDir: filepath.Join(root, resultsDirName),
		tracer:     tracer,
	}
	for _, dir := range []string{s.queueDir, s.resultsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating spool dir %s: %w", dir, err)
		}
	}
	return s, nil
}

var defaultSpoolAttributes = []attribute.KeyValue{
	attribute.String("spool.format", "json"),
}

// EnqueueRun serializes the job descriptor to the queue namespace.
func (s *Spool) EnqueueRun(ctx context.Context, job scanning.JobDescriptor) error {
	attrs := append(defaultSpoolAttributes, attribute.String("run_id", job.RunID.String()))

	return storage.ExecuteAndTrace(ctx, s.tracer, "spool.enqueue_run", attrs, func(ctx context.Context) error {
		return writeJSON(s.queueFile(job.RunID), job)
	})
}

// ReadJob deserializes a previously enqueued job descriptor. Returns nil with
// no error when the run was never enqueued.
func (s *Spool) ReadJob(ctx context.Context, runID uuid.UUID) (*scanning.JobDescriptor, error) {
	attrs := append(defaultSpoolAttributes, attribute.String("run_id", runID.String()))

	var job *scanning.JobDescriptor
	err := storage.ExecuteAndTrace(ctx, s.tracer, "spool.read_job", attrs, func(ctx context.Context) error {
		var j scanning.JobDescriptor
		found, err := readJSON(s.queueFile(runID), &j)
		if err != nil {
			return err
		}
		if found {
			job = &j
		}
		return nil
	})
	return job, err
}

// WriteResults serializes a results payload to the results namespace.
func (s *Spool) WriteResults(ctx context.Context, runID uuid.UUID, result scanning.ScanResult) error {
	attrs := append(defaultSpoolAttributes, attribute.String("run_id", runID.String()))

	return storage.ExecuteAndTrace(ctx, s.tracer, "spool.write_results", attrs, func(ctx context.Context) error {
		return writeJSON(s.resultsFile(runID), result)
	})
}

// ReadResults deserializes a results payload. A run with no results yields
// nil with no error; absence is an expected state, not a failure.
func (s *Spool) ReadResults(ctx context.Context, runID uuid.UUID) (*scanning.ScanResult, error) {
	attrs := append(defaultSpoolAttributes, attribute.String("run_id", runID.String()))

	var result *scanning.ScanResult
	err := storage.ExecuteAndTrace(ctx, s.tracer, "spool.read_results", attrs, func(ctx context.Context) error {
		var r scanning.ScanResult
		found, err := readJSON(s.resultsFile(runID), &r)
		if err != nil {
			return err
		}
		if found {
			result = &r
		}
		return nil
	})
	return result, err
}

func (s *Spool) queueFile(runID uuid.UUID) string {
	return filepath.Join(s.queueDir, runID.String()+".json")
}

func (s *Spool) resultsFile(runID uuid.UUID) string {
	return filepath.Join(s.resultsDir, runID.String()+".json")
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}

	// Write through a temp file so a concurrent reader never sees a partial
	// payload.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}

func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("unmarshaling %s: %w", path, err)
	}
	return true, nil
}
