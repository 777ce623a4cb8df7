package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/ribbonsync"
	"github.com/agentstation/ribbonsync/internal/cmd/emoji"
	"github.com/agentstation/ribbonsync/pkg/discovery"
	"github.com/agentstation/ribbonsync/pkg/oplog"
)

// ReportView is the serializable form of a load report.
type ReportView struct {
	RunID    string        `json:"run_id" yaml:"run_id"`
	DryRun   bool          `json:"dry_run" yaml:"dry_run"`
	Duration string        `json:"duration" yaml:"duration"`
	Totals   oplog.Summary `json:"totals" yaml:"totals"`
	Packages []PackageView `json:"packages" yaml:"packages"`
}

// PackageView is the serializable form of a package report.
type PackageView struct {
	Root        string                 `json:"root" yaml:"root"`
	Identity    string                 `json:"identity,omitempty" yaml:"identity,omitempty"`
	Error       string                 `json:"error,omitempty" yaml:"error,omitempty"`
	Tabs        []TabView              `json:"tabs,omitempty" yaml:"tabs,omitempty"`
	Operations  []oplog.Operation      `json:"operations,omitempty" yaml:"operations,omitempty"`
	UIErrors    []string               `json:"ui_errors,omitempty" yaml:"ui_errors,omitempty"`
	Diagnostics []discovery.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// TabView is the serializable form of a tab report.
type TabView struct {
	Identity string `json:"identity" yaml:"identity"`
	Hash     string `json:"hash,omitempty" yaml:"hash,omitempty"`
	Source   string `json:"source" yaml:"source"`
	Commands int    `json:"commands" yaml:"commands"`
	CacheErr string `json:"cache_error,omitempty" yaml:"cache_error,omitempty"`
}

// NewReportView converts r for JSON or YAML output.
func NewReportView(r *ribbonsync.Report) ReportView {
	v := ReportView{
		RunID:    r.RunID,
		DryRun:   r.DryRun,
		Duration: r.Duration.Round(time.Millisecond).String(),
		Totals:   r.Totals(),
	}
	for _, p := range r.Packages {
		pv := PackageView{Root: p.Root, Identity: p.Identity, Diagnostics: p.Diagnostics}
		if p.Err != nil {
			pv.Error = p.Err.Error()
		}
		for _, t := range p.Tabs {
			tv := TabView{Identity: t.Identity, Hash: t.Hash, Source: string(t.Source), Commands: t.Commands}
			if t.CacheErr != nil {
				tv.CacheErr = t.CacheErr.Error()
			}
			pv.Tabs = append(pv.Tabs, tv)
		}
		if p.Result != nil {
			pv.Operations = p.Result.Log.Operations
			for _, err := range p.Result.Errors {
				pv.UIErrors = append(pv.UIErrors, err.Error())
			}
		}
		v.Packages = append(v.Packages, pv)
	}
	return v
}

// ReportData lays out one row per package.
func ReportData(r *ribbonsync.Report) Data {
	data := Data{
		Headers: []string{"PACKAGE", "TABS", "CACHED", "CREATED", "UPDATED", "DISABLED", "UI ERRORS", "STATUS"},
	}
	for _, p := range r.Packages {
		name := p.Identity
		if name == "" {
			name = p.Root
		}
		if p.Err != nil {
			data.Rows = append(data.Rows, []string{name, "-", "-", "-", "-", "-", "-", "failed: " + p.Err.Error()})
			continue
		}
		if p.Result == nil {
			data.Rows = append(data.Rows, []string{name, "-", "-", "-", "-", "-", "-", "not loaded"})
			continue
		}
		s := p.Result.Log.Summary()
		data.Rows = append(data.Rows, []string{
			name,
			strconv.Itoa(len(p.Tabs)),
			strconv.Itoa(p.CacheHits()),
			strconv.Itoa(s.Created),
			strconv.Itoa(s.Updated),
			strconv.Itoa(s.Disabled),
			strconv.Itoa(len(p.Result.Errors)),
			status(p),
		})
	}
	return data
}

// OperationsData lists every applied operation in emission order.
func OperationsData(r *ribbonsync.Report) Data {
	data := Data{Headers: []string{"PACKAGE", "ACTION", "LEVEL", "PATH"}}
	for _, p := range r.Packages {
		if p.Result == nil {
			continue
		}
		for _, op := range p.Result.Log.Operations {
			data.Rows = append(data.Rows, []string{p.Identity, string(op.Action), string(op.Level), strings.Join(op.Path, "/")})
		}
	}
	return data
}

// DiagnosticsData lays out one row per diagnostic.
func DiagnosticsData(diags []discovery.Diagnostic) Data {
	data := Data{Headers: []string{"SEVERITY", "CODE", "PATH", "MESSAGE"}}
	for _, d := range diags {
		data.Rows = append(data.Rows, []string{string(d.Severity), string(d.Code), d.Path, d.Message})
	}
	return data
}

// WriteReport writes r in the given format. Text output is one line per
// package followed by the totals.
func WriteReport(w io.Writer, format Format, r *ribbonsync.Report) error {
	switch format {
	case FormatJSON, FormatYAML:
		return NewFormatter(format).Format(w, NewReportView(r))
	case FormatTable:
		return (&TableFormatter{}).Format(w, ReportData(r))
	}

	for _, p := range r.Packages {
		symbol := emoji.Success
		switch {
		case p.Err != nil:
			symbol = emoji.Error
		case !p.IsSuccess() || len(p.Diagnostics) > 0:
			symbol = emoji.Warning
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", symbol, p.Summary()); err != nil {
			return err
		}
		if p.Result != nil {
			for _, err := range p.Result.Errors {
				if _, werr := fmt.Fprintf(w, "   %v\n", err); werr != nil {
					return werr
				}
			}
		}
	}
	prefix := emoji.Info
	if r.DryRun {
		prefix = emoji.DryRun
	}
	_, err := fmt.Fprintf(w, "%s %s in %s\n", prefix, r.Summary(), r.Duration.Round(time.Millisecond))
	return err
}

func status(p *ribbonsync.PackageReport) string {
	switch {
	case !p.IsSuccess():
		return "errors"
	case len(p.Diagnostics) > 0:
		return fmt.Sprintf("ok (%d diagnostics)", len(p.Diagnostics))
	default:
		return "ok"
	}
}
