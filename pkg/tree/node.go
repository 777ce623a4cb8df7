// Package tree defines the desired UI tree produced by discovery and consumed
// by reconciliation: Package → Tab → Panel → CommandGroup → Command.
//
// Nodes are plain values. Discovery builds a fresh tree on every pass and the
// reconciler only reads it, so a tree may be shared freely once built.
package tree

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the closed set of node kinds.
type Kind string

const (
	KindPackage Kind = "Package"
	KindTab     Kind = "Tab"
	KindPanel   Kind = "Panel"
	KindGroup   Kind = "CommandGroup"
	KindCommand Kind = "Command"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindPackage, KindTab, KindPanel, KindGroup, KindCommand:
		return true
	}
	return false
}

// ItemType tags Commands (Push, Toggle, Link, Smart) and CommandGroups
// (PullDown, Split, SplitPush, StackTwo, StackThree).
type ItemType string

const (
	TypePush       ItemType = "Push"
	TypeToggle     ItemType = "Toggle"
	TypeLink       ItemType = "Link"
	TypeSmart      ItemType = "Smart"
	TypePullDown   ItemType = "PullDown"
	TypeSplit      ItemType = "Split"
	TypeSplitPush  ItemType = "SplitPush"
	TypeStackTwo   ItemType = "StackTwo"
	TypeStackThree ItemType = "StackThree"
)

// IsGroup reports whether t tags a CommandGroup.
func (t ItemType) IsGroup() bool {
	switch t {
	case TypePullDown, TypeSplit, TypeSplitPush, TypeStackTwo, TypeStackThree:
		return true
	}
	return false
}

// IsCommand reports whether t tags a Command.
func (t ItemType) IsCommand() bool {
	switch t {
	case TypePush, TypeToggle, TypeLink, TypeSmart:
		return true
	}
	return false
}

// Capacity is the number of buttons a stack holds, or 0 when unbounded.
func (t ItemType) Capacity() int {
	switch t {
	case TypeStackTwo:
		return 2
	case TypeStackThree:
		return 3
	}
	return 0
}

// Assembly references an already loaded external assembly and class.
type Assembly struct {
	Class    string `json:"class"`
	Location string `json:"location,omitempty"`
	Name     string `json:"name"`
}

// Metadata is the kind-specific payload of a node.
type Metadata struct {
	Assembly    *Assembly `json:"assembly,omitempty"`
	Author      string    `json:"author,omitempty"`
	Builtin     bool      `json:"builtin,omitempty"`
	ClassName   string    `json:"className,omitempty"`
	IconPath    string    `json:"iconPath,omitempty"`
	ScriptGroup string    `json:"scriptGroup,omitempty"`
	Tooltip     string    `json:"tooltip,omitempty"`
}

// Node is the universal tree element. JSON field names are declared in key
// order so serialized snapshots are stable.
type Node struct {
	Children         []*Node  `json:"children,omitempty"`
	Identity         string   `json:"identity"`
	Kind             Kind     `json:"kind"`
	Metadata         Metadata `json:"metadata"`
	OriginalIdentity string   `json:"originalIdentity"`
	SortOrder        int      `json:"sortOrder"`
	SourcePath       string   `json:"sourcePath"`
	Type             ItemType `json:"type,omitempty"`
}

// String returns "Kind(identity)".
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.Type != "" {
		return fmt.Sprintf("%s[%s](%s)", n.Kind, n.Type, n.Identity)
	}
	return fmt.Sprintf("%s(%s)", n.Kind, n.Identity)
}

// Less orders siblings by SortOrder, then Identity.
func Less(a, b *Node) bool {
	if a.SortOrder != b.SortOrder {
		return a.SortOrder < b.SortOrder
	}
	return a.Identity < b.Identity
}

// SortNodes sorts nodes in place by SortOrder, then Identity.
func SortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool { return Less(nodes[i], nodes[j]) })
}

// SortChildren sorts the children of n and of every descendant.
func (n *Node) SortChildren() {
	SortNodes(n.Children)
	for _, c := range n.Children {
		c.SortChildren()
	}
}

// Child returns the direct child with the given identity.
func (n *Node) Child(identity string) *Node {
	for _, c := range n.Children {
		if c.Identity == identity {
			return c
		}
	}
	return nil
}

// Find resolves a path of identities below n.
func (n *Node) Find(path ...string) *Node {
	cur := n
	for _, id := range path {
		if cur = cur.Child(id); cur == nil {
			return nil
		}
	}
	return cur
}

// CountCommands returns the number of Command nodes in the subtree.
func (n *Node) CountCommands() int {
	count := 0
	_ = n.Walk(func(node *Node, _ []string) error {
		if node.Kind == KindCommand {
			count++
		}
		return nil
	})
	return count
}

// HasCommands reports whether the subtree contains at least one Command.
func (n *Node) HasCommands() bool {
	if n.Kind == KindCommand {
		return true
	}
	for _, c := range n.Children {
		if c.HasCommands() {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants depth-first in child order. The path
// holds the identities from n's first child level down to node.
func (n *Node) Walk(fn func(node *Node, path []string) error) error {
	return n.walk(nil, fn)
}

func (n *Node) walk(path []string, fn func(*Node, []string) error) error {
	if err := fn(n, path); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := c.walk(append(path[:len(path):len(path)], c.Identity), fn); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	cp := *n
	if n.Metadata.Assembly != nil {
		a := *n.Metadata.Assembly
		cp.Metadata.Assembly = &a
	}
	if n.Children != nil {
		cp.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			cp.Children[i] = c.Clone()
		}
	}
	return &cp
}

// Outline renders one line per node as "<indent>Kind identity #order", which
// captures everything that determines the shape of a tree.
func (n *Node) Outline() string {
	var b strings.Builder
	_ = n.Walk(func(node *Node, path []string) error {
		fmt.Fprintf(&b, "%s%s %s #%d\n", strings.Repeat("  ", len(path)), node.Kind, node.Identity, node.SortOrder)
		return nil
	})
	return b.String()
}

// allowedChildren lists which kinds may appear below each kind.
var allowedChildren = map[Kind][]Kind{
	KindPackage: {KindTab},
	KindTab:     {KindPanel},
	KindPanel:   {KindGroup, KindCommand},
	KindGroup:   {KindCommand},
}

// Validate checks the structural invariants of the subtree: known kinds,
// legal parent/child kinds, a type tag matching the kind, and unique
// sibling identities.
func (n *Node) Validate() error {
	return n.Walk(func(node *Node, path []string) error {
		where := strings.Join(path, "/")
		if !node.Kind.Valid() {
			return fmt.Errorf("%s: unknown kind %q", where, node.Kind)
		}
		if node.Identity == "" {
			return fmt.Errorf("%s: %s without identity", where, node.Kind)
		}
		switch node.Kind {
		case KindGroup:
			if !node.Type.IsGroup() {
				return fmt.Errorf("%s: group type %q", where, node.Type)
			}
		case KindCommand:
			if !node.Type.IsCommand() {
				return fmt.Errorf("%s: command type %q", where, node.Type)
			}
			if len(node.Children) > 0 {
				return fmt.Errorf("%s: command with children", where)
			}
		}
		seen := make(map[string]bool, len(node.Children))
		for _, c := range node.Children {
			if !kindAllowed(node.Kind, c.Kind) {
				return fmt.Errorf("%s: %s cannot contain %s", where, node.Kind, c.Kind)
			}
			if seen[c.Identity] {
				return fmt.Errorf("%s: duplicate child %q", where, c.Identity)
			}
			seen[c.Identity] = true
		}
		return nil
	})
}

func kindAllowed(parent, child Kind) bool {
	for _, k := range allowedChildren[parent] {
		if k == child {
			return true
		}
	}
	return false
}
