package reconciler

import (
	"fmt"
	"time"

	"github.com/agentstation/ribbonsync/pkg/oplog"
)

// Result represents the outcome of a reconciliation operation.
type Result struct {
	// Log holds the applied operations in emission order
	Log *oplog.Log

	// Metadata
	Metadata ResultMetadata

	// Errors are live UI failures; each skipped one element's subtree
	Errors []error
}

// ResultMetadata contains metadata about the reconciliation process.
type ResultMetadata struct {
	// StartTime when reconciliation started
	StartTime time.Time

	// EndTime when reconciliation completed
	EndTime time.Time

	// Duration of the reconciliation
	Duration time.Duration

	// DryRun indicates the live UI was not modified
	DryRun bool

	// Statistics about the reconciliation
	Stats ResultStatistics
}

// ResultStatistics contains statistics about the reconciliation.
type ResultStatistics struct {
	TabsReconciled int
	TabsSkipped    int
	Elements       int // Desired elements visited
	Failed         int
}

// IsSuccess returns true if no live UI operation failed.
func (r *Result) IsSuccess() bool {
	return len(r.Errors) == 0
}

// HasChanges returns true if anything was created or disabled.
func (r *Result) HasChanges() bool {
	s := r.Log.Summary()
	return s.Created > 0 || s.Disabled > 0
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	prefix := "Reconciliation"
	if r.Metadata.DryRun {
		prefix = "Dry run"
	}
	if !r.IsSuccess() {
		return fmt.Sprintf("%s completed with %d errors. %s", prefix, len(r.Errors), r.Log.String())
	}
	return fmt.Sprintf("%s completed. %s", prefix, r.Log.String())
}

// NewResult creates a new result with defaults.
func NewResult() *Result {
	return &Result{
		Log:    &oplog.Log{},
		Errors: []error{},
		Metadata: ResultMetadata{
			StartTime: time.Now(),
		},
	}
}

func (r *Result) finish() *Result {
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
	r.Metadata.Stats.Failed = len(r.Errors)
	return r
}
