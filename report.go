package ribbonsync

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/ribbonsync/pkg/discovery"
	"github.com/agentstation/ribbonsync/pkg/oplog"
	"github.com/agentstation/ribbonsync/pkg/reconciler"
)

// TabSource tells where the tree of a tab came from.
type TabSource string

const (
	// SourceCache marks a tab whose snapshot matched its fingerprint.
	SourceCache TabSource = "cache"
	// SourceDiscovery marks a tab that was walked and decoded.
	SourceDiscovery TabSource = "discovery"
)

// Report is the outcome of one load pass.
type Report struct {
	RunID     string           // Identifies the pass in log lines
	DryRun    bool             // Whether the live UI was left untouched
	Packages  []*PackageReport // One entry per package root, in load order
	StartTime time.Time
	Duration  time.Duration
}

// PackageReport is the outcome for one package root.
type PackageReport struct {
	Root     string
	Identity string
	Tabs     []TabReport

	// Diagnostics lists everything discovery skipped in freshly walked tabs
	Diagnostics []discovery.Diagnostic

	// Result is nil when the package failed before reconciliation
	Result *reconciler.Result

	// Err is set when the package could not be loaded at all
	Err error
}

// TabReport describes how one tab was obtained.
type TabReport struct {
	Identity string
	Hash     string    // Fingerprint, empty when it could not be computed
	Source   TabSource // Cache or discovery
	Commands int       // Commands in the tab tree

	// CacheErr is set when the fresh tree could not be saved
	CacheErr error
}

// Failed returns the reports of packages that failed to load.
func (r *Report) Failed() []*PackageReport {
	var out []*PackageReport
	for _, p := range r.Packages {
		if p.Err != nil {
			out = append(out, p)
		}
	}
	return out
}

// IsSuccess returns true if every package loaded and every UI operation succeeded.
func (r *Report) IsSuccess() bool {
	for _, p := range r.Packages {
		if !p.IsSuccess() {
			return false
		}
	}
	return true
}

// Totals sums the operation summaries of every package.
func (r *Report) Totals() oplog.Summary {
	var total oplog.Summary
	for _, p := range r.Packages {
		if p.Result == nil {
			continue
		}
		s := p.Result.Log.Summary()
		total.Created += s.Created
		total.Updated += s.Updated
		total.Disabled += s.Disabled
		total.Total += s.Total
	}
	return total
}

// Summary returns a human-readable summary of the report.
func (r *Report) Summary() string {
	t := r.Totals()
	summary := fmt.Sprintf("%d packages: %d created, %d updated, %d disabled",
		len(r.Packages), t.Created, t.Updated, t.Disabled)

	var parts []string
	if failed := len(r.Failed()); failed > 0 {
		parts = append(parts, fmt.Sprintf("(%d failed)", failed))
	}
	if r.DryRun {
		parts = append(parts, "(Dry run)")
	}
	if len(parts) > 0 {
		summary += " " + strings.Join(parts, " ")
	}
	return summary
}

// IsSuccess returns true if the package loaded and no UI operation failed.
func (p *PackageReport) IsSuccess() bool {
	return p.Err == nil && (p.Result == nil || p.Result.IsSuccess())
}

// CacheHits returns the number of tabs taken from the cache.
func (p *PackageReport) CacheHits() int {
	n := 0
	for _, t := range p.Tabs {
		if t.Source == SourceCache {
			n++
		}
	}
	return n
}

// Summary returns a human-readable summary of the package report.
func (p *PackageReport) Summary() string {
	name := p.Identity
	if name == "" {
		name = p.Root
	}
	if p.Err != nil {
		return fmt.Sprintf("%s: failed: %v", name, p.Err)
	}
	if p.Result == nil {
		return name + ": not loaded"
	}
	return fmt.Sprintf("%s: %d tabs (%d cached), %s", name, len(p.Tabs), p.CacheHits(), p.Result.Log)
}
