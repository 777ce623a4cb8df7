// Package decoder turns filesystem basenames into typed descriptors.
//
// Two grammars exist. Containers (packages, bundled tabs and panels) are
// directories whose name minus a fixed suffix is the identity. Leaves
// (command scripts and icon-backed group or panel descriptors) are split on
// the layout delimiter and decoded by token count:
//
//	2 tokens  group_command                      command script
//	3 tokens  order_type_name                    group in the enclosing panel
//	4 tokens  order_panel_type_name              group with explicit panel
//	6 tokens  order_panel_type_name_asm_class    link bound to a loaded assembly
//
// An order token longer than two digits packs the panel order into its first
// two digits and the group order into the rest ("1020" is panel 10, group 20).
package decoder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/layout"
	"github.com/agentstation/ribbonsync/pkg/tree"
)

// Entity is the kind of entity a basename is expected to declare.
type Entity int

const (
	EntityPackage Entity = iota
	EntityTab
	EntityPanel
	EntityGroup
	EntityCommand
	// EntityMasterCommand is a command script found in the master scope,
	// where the init script becomes the reload command.
	EntityMasterCommand
)

// String returns the entity name used in errors.
func (e Entity) String() string {
	switch e {
	case EntityPackage:
		return "package"
	case EntityTab:
		return "tab"
	case EntityPanel:
		return "panel"
	case EntityGroup:
		return "group"
	case EntityCommand, EntityMasterCommand:
		return "command"
	}
	return fmt.Sprintf("entity(%d)", int(e))
}

// Descriptor is the closed set of decode results: ContainerDescriptor,
// PanelDescriptor, GroupDescriptor and CommandDescriptor.
type Descriptor interface {
	descriptor()
}

// ContainerDescriptor describes a bundled package, tab or panel directory.
type ContainerDescriptor struct {
	Kind     tree.Kind
	Identity string
}

// PanelDescriptor describes a panel declared by a loose descriptor file.
type PanelDescriptor struct {
	Identity  string
	SortOrder int
}

// AssemblyRef names an external assembly and class as written in a file name.
type AssemblyRef struct {
	Name  string
	Class string
}

// GroupDescriptor describes an icon-backed ribbon item declaration.
type GroupDescriptor struct {
	SortOrder int
	// Panel is empty when the parent panel is implicit.
	Panel      string
	PanelOrder int
	Type       tree.ItemType
	Name       string
	// Assembly is set for the six token link form.
	Assembly *AssemblyRef
}

// ExplicitPanel reports whether the descriptor names its parent panel.
func (g GroupDescriptor) ExplicitPanel() bool {
	return g.Panel != ""
}

// CommandDescriptor describes a command script.
type CommandDescriptor struct {
	ScriptGroup string
	Name        string
	// Reload marks the loader init script renamed to the reload command.
	Reload bool
}

func (ContainerDescriptor) descriptor() {}
func (PanelDescriptor) descriptor()     {}
func (GroupDescriptor) descriptor()     {}
func (CommandDescriptor) descriptor()   {}

// Decoder decodes basenames under one layout.
type Decoder struct {
	layout layout.Layout
}

// New returns a Decoder for the given layout.
func New(l layout.Layout) *Decoder {
	return &Decoder{layout: l}
}

// Layout returns the conventions the decoder applies.
func (d *Decoder) Layout() layout.Layout {
	return d.layout
}

// Decode parses basename as the expected entity. Any grammar violation is a
// *errors.NameFormatError; callers treat it as "not this entity" and may try
// another interpretation.
func (d *Decoder) Decode(basename string, want Entity) (Descriptor, error) {
	switch want {
	case EntityPackage:
		if basename == "" || d.layout.IsPrivate(basename) {
			return nil, errors.NewNameFormatError(basename, want.String(), "hidden or empty name")
		}
		return ContainerDescriptor{Kind: tree.KindPackage, Identity: basename}, nil
	case EntityTab:
		return d.container(basename, want, tree.KindTab, d.layout.TabSuffix)
	case EntityPanel:
		if layout.HasSuffixFold(basename, d.layout.PanelSuffix) {
			return d.container(basename, want, tree.KindPanel, d.layout.PanelSuffix)
		}
		return d.loosePanel(basename)
	case EntityGroup:
		return d.group(basename)
	case EntityCommand:
		return d.command(basename, false)
	case EntityMasterCommand:
		return d.command(basename, true)
	}
	return nil, errors.NewNameFormatError(basename, want.String(), "unsupported entity")
}

func (d *Decoder) container(basename string, want Entity, kind tree.Kind, suffix string) (Descriptor, error) {
	if d.layout.IsPrivate(basename) {
		return nil, errors.NewNameFormatError(basename, want.String(), "hidden name")
	}
	if !layout.HasSuffixFold(basename, suffix) {
		return nil, errors.NewNameFormatError(basename, want.String(), "missing "+suffix+" suffix")
	}
	id := layout.TrimSuffixFold(basename, suffix)
	if id == "" {
		return nil, errors.NewNameFormatError(basename, want.String(), "empty identity")
	}
	return ContainerDescriptor{Kind: kind, Identity: id}, nil
}

// stem strips ext from basename, ignoring case, or fails.
func (d *Decoder) stem(basename, ext string, want Entity) (string, error) {
	if !layout.HasSuffixFold(basename, ext) {
		return "", errors.NewNameFormatError(basename, want.String(), "expected "+ext+" file")
	}
	return layout.TrimSuffixFold(basename, ext), nil
}

func (d *Decoder) tokens(stem, basename string, want Entity) ([]string, error) {
	toks := strings.Split(stem, d.layout.Delimiter)
	for _, t := range toks {
		if t == "" {
			return nil, errors.NewNameFormatError(basename, want.String(), "empty token")
		}
	}
	return toks, nil
}

func (d *Decoder) command(basename string, master bool) (Descriptor, error) {
	want := EntityCommand
	stem, err := d.stem(basename, d.layout.ScriptExt, want)
	if err != nil {
		return nil, err
	}
	if master && d.layout.IsInitScript(stem) {
		return CommandDescriptor{
			ScriptGroup: d.layout.ReloadGroup,
			Name:        d.layout.ReloadCommand,
			Reload:      true,
		}, nil
	}
	if d.layout.IsPrivate(basename) {
		return nil, errors.NewNameFormatError(basename, want.String(), "private script")
	}
	toks, err := d.tokens(stem, basename, want)
	if err != nil {
		return nil, err
	}
	if len(toks) != 2 {
		return nil, errors.NewNameFormatError(basename, want.String(), fmt.Sprintf("%d tokens, want 2", len(toks)))
	}
	return CommandDescriptor{ScriptGroup: toks[0], Name: toks[1]}, nil
}

func (d *Decoder) group(basename string) (Descriptor, error) {
	want := EntityGroup
	stem, err := d.stem(basename, d.layout.IconExt, want)
	if err != nil {
		return nil, err
	}
	toks, err := d.tokens(stem, basename, want)
	if err != nil {
		return nil, err
	}

	var g GroupDescriptor
	switch len(toks) {
	case 2:
		// Shape of a command icon; never a group.
		return nil, errors.NewNameFormatError(basename, want.String(), "2 tokens name a command")
	case 3:
		order, err := parseOrder(toks[0])
		if err != nil {
			return nil, errors.NewNameFormatError(basename, want.String(), err.Error())
		}
		g.SortOrder = order
		g.PanelOrder = order
		g.Name = toks[2]
		if g.Type, err = d.itemType(toks[1], basename); err != nil {
			return nil, err
		}
	case 4, 6:
		groupOrder, panelOrder, err := parsePackedOrder(toks[0])
		if err != nil {
			return nil, errors.NewNameFormatError(basename, want.String(), err.Error())
		}
		g.SortOrder = groupOrder
		g.PanelOrder = panelOrder
		g.Panel = toks[1]
		g.Name = toks[3]
		if g.Type, err = d.itemType(toks[2], basename); err != nil {
			return nil, err
		}
		if len(toks) == 6 {
			if g.Type != tree.TypeLink && g.Type != tree.TypePush {
				return nil, errors.NewNameFormatError(basename, want.String(),
					fmt.Sprintf("assembly reference on %s item", g.Type))
			}
			g.Type = tree.TypeLink
			g.Assembly = &AssemblyRef{Name: toks[4], Class: toks[5]}
		} else if g.Type == tree.TypeLink {
			return nil, errors.NewNameFormatError(basename, want.String(), "link without assembly reference")
		}
	default:
		return nil, errors.NewNameFormatError(basename, want.String(),
			fmt.Sprintf("%d tokens, want 3, 4 or 6", len(toks)))
	}
	if len(toks) == 3 && g.Type == tree.TypeLink {
		return nil, errors.NewNameFormatError(basename, want.String(), "link without assembly reference")
	}
	return g, nil
}

// loosePanel decodes a descriptor file that also declares its panel. Only
// the four and six token forms carry a panel name.
func (d *Decoder) loosePanel(basename string) (Descriptor, error) {
	desc, err := d.group(basename)
	if err != nil {
		var nf *errors.NameFormatError
		if errors.As(err, &nf) {
			nf.Kind = EntityPanel.String()
		}
		return nil, err
	}
	g := desc.(GroupDescriptor)
	if !g.ExplicitPanel() {
		return nil, errors.NewNameFormatError(basename, EntityPanel.String(), "descriptor does not name a panel")
	}
	return PanelDescriptor{Identity: g.Panel, SortOrder: g.PanelOrder}, nil
}

func (d *Decoder) itemType(token, basename string) (tree.ItemType, error) {
	t, ok := d.layout.ItemType(token)
	if !ok {
		return "", errors.NewNameFormatError(basename, EntityGroup.String(), fmt.Sprintf("unknown type %q", token))
	}
	return t, nil
}

// parseOrder parses an all-digit order token.
func parseOrder(tok string) (int, error) {
	for _, r := range tok {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("order %q is not numeric", tok)
		}
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("order %q: %w", tok, err)
	}
	return n, nil
}

// parsePackedOrder splits a PPGG order token into group and panel orders.
func parsePackedOrder(tok string) (group, panel int, err error) {
	if _, err = parseOrder(tok); err != nil {
		return 0, 0, err
	}
	if len(tok) <= 2 {
		n, _ := strconv.Atoi(tok)
		return n, n, nil
	}
	panel, _ = strconv.Atoi(tok[:2])
	group, _ = strconv.Atoi(tok[2:])
	return group, panel, nil
}
