package discovery

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agentstation/ribbonsync/pkg/errors"
)

// Severity classifies a diagnostic.
type Severity string

const (
	// SeverityDebug marks files that were skipped as not part of the tree.
	SeverityDebug Severity = "debug"
	// SeverityWarning marks entities that were excluded from the tree.
	SeverityWarning Severity = "warning"
	// SeverityError marks directories that could not be read.
	SeverityError Severity = "error"
)

// Code identifies the kind of problem a diagnostic reports.
type Code string

const (
	CodeNameFormat        Code = "name_format"
	CodeMissingScript     Code = "missing_script"
	CodeUnknownAssembly   Code = "unknown_assembly"
	CodeDuplicateIdentity Code = "duplicate_identity"
	CodeNoPanel           Code = "no_panel"
	CodeStackOverflow     Code = "stack_overflow"
	CodeIO                Code = "io"
)

// Diagnostic records one entity that discovery skipped or excluded. The walk
// always continues past it.
type Diagnostic struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Code     Code     `json:"code" yaml:"code"`
	Message  string   `json:"message" yaml:"message"`
	Path     string   `json:"path,omitempty" yaml:"path,omitempty"`
	Cause    error    `json:"-" yaml:"-"`
}

// String returns "severity code path: message".
func (d Diagnostic) String() string {
	if d.Path == "" {
		return fmt.Sprintf("%s %s: %s", d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s %s %s: %s", d.Severity, d.Code, d.Path, d.Message)
}

// Unwrap returns the underlying error.
func (d Diagnostic) Unwrap() error {
	return d.Cause
}

// diagnose builds a diagnostic from a typed error.
func diagnose(sev Severity, path string, err error) Diagnostic {
	code := CodeIO
	switch {
	case errors.Is(err, errors.ErrNameFormat):
		code = CodeNameFormat
	case errors.Is(err, errors.ErrMissingScript):
		code = CodeMissingScript
	case errors.Is(err, errors.ErrUnknownAssembly):
		code = CodeUnknownAssembly
	case errors.Is(err, errors.ErrDuplicateIdentity):
		code = CodeDuplicateIdentity
	}
	return Diagnostic{Severity: sev, Code: code, Message: err.Error(), Path: path, Cause: err}
}

// Count returns the number of diagnostics at the given severity.
func Count(diags []Diagnostic, sev Severity) int {
	n := 0
	for _, d := range diags {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// logDiagnostics writes diagnostics to the logger at the matching level.
func logDiagnostics(logger *zerolog.Logger, diags []Diagnostic) {
	for _, d := range diags {
		var ev *zerolog.Event
		switch d.Severity {
		case SeverityError:
			ev = logger.Error()
		case SeverityWarning:
			ev = logger.Warn()
		default:
			ev = logger.Debug()
		}
		ev.Str("code", string(d.Code)).Str("path", d.Path).Msg(d.Message)
	}
}
