package discovery

import (
	"fmt"
	"path/filepath"

	"github.com/agentstation/ribbonsync/pkg/decoder"
	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/layout"
	"github.com/agentstation/ribbonsync/pkg/scriptmeta"
	"github.com/agentstation/ribbonsync/pkg/tree"
)

// merge joins the collected entities of one tab into a tab node.
func (d *Discoverer) merge(loc TabLocation, master []rawCommand, c *collection) *tree.Node {
	tab := &tree.Node{
		Kind:             tree.KindTab,
		Identity:         loc.Identity,
		OriginalIdentity: loc.Identity,
	}
	if len(loc.Dirs) > 0 {
		tab.SourcePath = loc.Dirs[0]
	}

	panels := make(map[string]*tree.Node)
	explicit := make(map[string]bool)
	for _, p := range c.panels {
		node, ok := panels[p.identity]
		if !ok {
			node = &tree.Node{
				Kind:             tree.KindPanel,
				Identity:         p.identity,
				OriginalIdentity: p.identity,
				SourcePath:       p.path,
				SortOrder:        p.order,
			}
			panels[p.identity] = node
			tab.Children = append(tab.Children, node)
			explicit[p.identity] = p.explicit
			continue
		}
		if p.explicit && !explicit[p.identity] {
			node.SortOrder = p.order
			explicit[p.identity] = true
		}
	}

	// Master scope first so the reload command backs its items before any
	// tab script of the same group.
	scripts := make(map[string][]rawCommand)
	for _, cmd := range append(append([]rawCommand(nil), master...), c.commands...) {
		scripts[cmd.desc.ScriptGroup] = append(scripts[cmd.desc.ScriptGroup], cmd)
	}

	seen := make(map[[2]string]string)
	for _, g := range c.groups {
		key := [2]string{g.panel, g.desc.Name}
		if first, dup := seen[key]; dup {
			c.skip(SeverityWarning, g.path, errors.NewDuplicateIdentityError(g.desc.Name, g.panel, first))
			continue
		}
		seen[key] = g.path

		item, err := d.item(loc.Identity, g, scripts[g.desc.Name], c)
		if err != nil {
			c.skip(SeverityWarning, g.path, err)
			continue
		}
		panel := panels[g.panel]
		if other := panel.Child(item.Identity); other != nil {
			c.skip(SeverityWarning, g.path, errors.NewDuplicateIdentityError(item.Identity, panel.Identity, other.SourcePath))
			continue
		}
		panel.Children = append(panel.Children, item)
	}

	tab.SortChildren()
	return tab
}

// item builds the panel child declared by a group descriptor: a command
// group, a bare command backed by the first matching script, or a link.
func (d *Discoverer) item(tabID string, g rawGroup, scripts []rawCommand, c *collection) (*tree.Node, error) {
	desc := g.desc
	switch {
	case desc.Type.IsGroup():
		group := &tree.Node{
			Kind:             tree.KindGroup,
			Type:             desc.Type,
			Identity:         desc.Name,
			OriginalIdentity: desc.Name,
			SortOrder:        desc.SortOrder,
			SourcePath:       g.path,
			Metadata:         tree.Metadata{IconPath: g.path},
		}
		for _, s := range scripts {
			cmd := d.command(tabID, s, tree.TypePush)
			if other := group.Child(cmd.Identity); other != nil {
				c.skip(SeverityWarning, s.path, errors.NewDuplicateIdentityError(cmd.Identity, group.Identity, other.SourcePath))
				continue
			}
			group.Children = append(group.Children, cmd)
		}
		tree.SortNodes(group.Children)
		if n := desc.Type.Capacity(); n > 0 && len(group.Children) > n {
			for _, extra := range group.Children[n:] {
				c.diags = append(c.diags, Diagnostic{
					Severity: SeverityWarning,
					Code:     CodeStackOverflow,
					Message:  fmt.Sprintf("%s holds %d buttons, %s dropped", group.Identity, n, extra.Identity),
					Path:     extra.SourcePath,
				})
			}
			group.Children = group.Children[:n]
		}
		return group, nil

	case desc.Type == tree.TypeLink:
		if desc.Assembly == nil {
			return nil, errors.NewNameFormatError(filepath.Base(g.path), "group", "link without assembly reference")
		}
		loaded, err := d.opts.assemblies.Find(desc.Assembly.Name)
		if err != nil {
			var uerr *errors.UnknownAssemblyError
			if errors.As(err, &uerr) {
				uerr.Group = desc.Name
			}
			return nil, err
		}
		return &tree.Node{
			Kind:             tree.KindCommand,
			Type:             tree.TypeLink,
			Identity:         d.opts.aliases.Alias(desc.Name),
			OriginalIdentity: desc.Name,
			SortOrder:        desc.SortOrder,
			SourcePath:       g.path,
			Metadata: tree.Metadata{
				Assembly:  &tree.Assembly{Name: loaded.Name, Class: desc.Assembly.Class, Location: loaded.Location},
				ClassName: decoder.ClassName(tabID, desc.Name, desc.Assembly.Class),
				IconPath:  g.path,
			},
		}, nil

	default:
		if len(scripts) == 0 {
			return nil, errors.NewMissingScriptError(desc.Name, g.path)
		}
		cmd := d.command(tabID, scripts[0], desc.Type)
		cmd.Identity = d.opts.aliases.Alias(desc.Name)
		cmd.OriginalIdentity = desc.Name
		cmd.SortOrder = desc.SortOrder
		cmd.Metadata.IconPath = g.path
		return cmd, nil
	}
}

// command builds a Command node from a script.
func (d *Discoverer) command(tabID string, s rawCommand, typ tree.ItemType) *tree.Node {
	lay := d.decoder.Layout()
	name := s.desc.Name
	node := &tree.Node{
		Kind:             tree.KindCommand,
		Type:             typ,
		Identity:         d.opts.aliases.Alias(name),
		OriginalIdentity: name,
		SourcePath:       s.path,
		Metadata: tree.Metadata{
			ClassName:   decoder.ClassName(tabID, s.desc.ScriptGroup, name),
			IconPath:    s.icon,
			ScriptGroup: s.desc.ScriptGroup,
		},
	}
	if s.path == "" {
		node.Metadata.Builtin = true
		return node
	}
	doc, _ := d.opts.extractor.Lookup(s.path, lay.DocParam)
	author, _ := d.opts.extractor.Lookup(s.path, lay.AuthorParam)
	stem := layout.TrimSuffixFold(filepath.Base(s.path), lay.ScriptExt)
	node.Metadata.Author = author
	node.Metadata.Tooltip = scriptmeta.Tooltip(doc, stem, lay.ScriptExt, author)
	return node
}
