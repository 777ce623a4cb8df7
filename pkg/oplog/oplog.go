// Package oplog records the operations a reconciliation applied to a live UI.
package oplog

import (
	"fmt"
	"strings"
)

// Action is what happened to an element.
type Action string

const (
	// ActionCreate indicates an element was added.
	ActionCreate Action = "create"
	// ActionUpdate indicates an existing element was rewritten and enabled.
	ActionUpdate Action = "update"
	// ActionDisable indicates an orphaned element was hidden.
	ActionDisable Action = "disable"
)

// Level is the depth of the element in the live UI.
type Level string

const (
	LevelTab     Level = "tab"
	LevelPanel   Level = "panel"
	LevelItem    Level = "item"
	LevelSubItem Level = "subitem"
)

// Operation is one applied change.
type Operation struct {
	Action Action   `json:"action" yaml:"action"`
	Level  Level    `json:"level" yaml:"level"`
	Path   []string `json:"path" yaml:"path"` // Identities from the tab down
}

// Name returns the identity of the element operated on.
func (o Operation) Name() string {
	if len(o.Path) == 0 {
		return ""
	}
	return o.Path[len(o.Path)-1]
}

// String returns "action level a/b/c".
func (o Operation) String() string {
	return fmt.Sprintf("%s %s %s", o.Action, o.Level, strings.Join(o.Path, "/"))
}

// Log is the ordered list of operations of one reconciliation.
type Log struct {
	Operations []Operation `json:"operations" yaml:"operations"`
}

// Add appends an operation.
func (l *Log) Add(action Action, level Level, path []string) {
	l.Operations = append(l.Operations, Operation{
		Action: action,
		Level:  level,
		Path:   append([]string(nil), path...),
	})
}

// Append appends every operation of other.
func (l *Log) Append(other *Log) {
	if other != nil {
		l.Operations = append(l.Operations, other.Operations...)
	}
}

// Len returns the number of operations.
func (l *Log) Len() int {
	return len(l.Operations)
}

// IsEmpty returns true if no operation was recorded.
func (l *Log) IsEmpty() bool {
	return len(l.Operations) == 0
}

// Filter returns the operations with the given action.
func (l *Log) Filter(action Action) []Operation {
	var out []Operation
	for _, op := range l.Operations {
		if op.Action == action {
			out = append(out, op)
		}
	}
	return out
}

// Touches reports whether any operation targets the element at path.
func (l *Log) Touches(path ...string) bool {
	want := strings.Join(path, "/")
	for _, op := range l.Operations {
		if strings.Join(op.Path, "/") == want {
			return true
		}
	}
	return false
}

// Summary provides counts per action.
type Summary struct {
	Created  int `json:"created" yaml:"created"`
	Updated  int `json:"updated" yaml:"updated"`
	Disabled int `json:"disabled" yaml:"disabled"`
	Total    int `json:"total" yaml:"total"`
}

// Summary computes per action counts.
func (l *Log) Summary() Summary {
	var s Summary
	for _, op := range l.Operations {
		switch op.Action {
		case ActionCreate:
			s.Created++
		case ActionUpdate:
			s.Updated++
		case ActionDisable:
			s.Disabled++
		}
	}
	s.Total = len(l.Operations)
	return s
}

// String returns a human-readable summary of the log.
func (l *Log) String() string {
	if l.IsEmpty() {
		return "No changes applied"
	}
	s := l.Summary()
	var parts []string
	if s.Created > 0 {
		parts = append(parts, fmt.Sprintf("%d created", s.Created))
	}
	if s.Updated > 0 {
		parts = append(parts, fmt.Sprintf("%d updated", s.Updated))
	}
	if s.Disabled > 0 {
		parts = append(parts, fmt.Sprintf("%d disabled", s.Disabled))
	}
	return strings.Join(parts, ", ")
}
