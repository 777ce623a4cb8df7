// Package liveui describes the host application's mutable UI as four nested
// levels: tabs, panels, items and the sub-items of composite items.
//
// The reconciler only talks to these interfaces. A host binding implements
// them over real widgets; package memory implements them in process.
package liveui

import (
	"github.com/agentstation/ribbonsync/pkg/tree"
)

// Handle is a live UI element.
type Handle interface {
	Name() string
	Enabled() bool
}

// Level is the set of elements directly inside one parent.
type Level interface {
	// Contains reports whether an element with name exists, enabled or not.
	Contains(name string) bool
	// Get returns the element with name.
	Get(name string) (Handle, error)
	// Create adds an element built from node. Its children are not created.
	Create(node *tree.Node) (Handle, error)
	// Update rewrites an element from node and enables it.
	Update(h Handle, node *tree.Node) error
	// Disable hides an element without removing it.
	Disable(h Handle) error
	// ListExisting returns every element of the level.
	ListExisting() ([]Handle, error)
}

// UI is the root accessor. Each method returns the level inside a handle
// obtained from the level above.
type UI interface {
	Tabs() Level
	Panels(tab Handle) (Level, error)
	Items(panel Handle) (Level, error)
	SubItems(item Handle) (Level, error)
}
