package discovery

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/agentstation/ribbonsync/pkg/decoder"
	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/layout"
)

// rawCommand is a decoded script before it is attached to any group.
type rawCommand struct {
	desc   decoder.CommandDescriptor
	path   string // empty for the builtin reload command
	icon   string
	master bool
}

// rawGroup is a decoded descriptor file with its resolved panel.
type rawGroup struct {
	desc  decoder.GroupDescriptor
	panel string
	path  string
}

// rawPanel is one contribution to a panel: a bundled directory or a
// descriptor that names the panel explicitly.
type rawPanel struct {
	identity string
	order    int
	explicit bool
	path     string
}

// collection holds everything collected for one tab before merging.
type collection struct {
	commands []rawCommand
	groups   []rawGroup
	panels   []rawPanel
	diags    []Diagnostic
}

func (c *collection) skip(sev Severity, path string, err error) {
	c.diags = append(c.diags, diagnose(sev, path, err))
}

// sortBySource orders every contribution by source path so merging does not
// depend on the order directories were listed in.
func (c *collection) sortBySource() {
	sort.SliceStable(c.commands, func(i, j int) bool { return c.commands[i].path < c.commands[j].path })
	sort.SliceStable(c.groups, func(i, j int) bool { return c.groups[i].path < c.groups[j].path })
	sort.SliceStable(c.panels, func(i, j int) bool { return c.panels[i].path < c.panels[j].path })
}

// readDir lists a directory sorted by name and splits files from
// subdirectories.
func readDir(dir string) (files, dirs []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, errors.WrapIO("read", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	sort.Strings(dirs)
	return files, dirs, nil
}

// collectDir collects one tab directory, or one bundled panel directory when
// panel is set. Scripts come first so icon files can be recognized as
// command icons.
func (d *Discoverer) collectDir(c *collection, dir, panel string) {
	lay := d.decoder.Layout()
	files, dirs, err := readDir(dir)
	if err != nil {
		c.skip(SeverityError, dir, err)
		return
	}

	stems := make(map[string]bool)
	for _, name := range files {
		if !lay.IsScript(name) || lay.IsPrivate(name) {
			continue
		}
		path := filepath.Join(dir, name)
		desc, err := d.decoder.Decode(name, decoder.EntityCommand)
		if err != nil {
			c.skip(SeverityDebug, path, err)
			continue
		}
		stem := layout.TrimSuffixFold(name, lay.ScriptExt)
		stems[stem] = true
		c.commands = append(c.commands, rawCommand{
			desc: desc.(decoder.CommandDescriptor),
			path: path,
			icon: findIcon(dir, files, stem, lay),
		})
	}

	for _, name := range files {
		if !lay.IsIcon(name) || lay.IsPrivate(name) {
			continue
		}
		path := filepath.Join(dir, name)
		desc, err := d.decoder.Decode(name, decoder.EntityGroup)
		if err != nil {
			if stems[layout.TrimSuffixFold(name, lay.IconExt)] {
				continue
			}
			c.skip(SeverityDebug, path, err)
			continue
		}
		g := desc.(decoder.GroupDescriptor)
		target := panel
		// A descriptor that names its panel also declares that panel
		if pd, err := d.decoder.Decode(name, decoder.EntityPanel); err == nil {
			p := pd.(decoder.PanelDescriptor)
			target = p.Identity
			c.panels = append(c.panels, rawPanel{identity: p.Identity, order: p.SortOrder, explicit: true, path: path})
		}
		if target == "" {
			c.diags = append(c.diags, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeNoPanel,
				Message:  g.Name + " names no panel and is not inside a bundled panel",
				Path:     path,
			})
			continue
		}
		c.groups = append(c.groups, rawGroup{desc: g, panel: target, path: path})
	}

	if panel != "" {
		return
	}
	for _, name := range dirs {
		if !lay.IsPanelDir(name) {
			continue
		}
		path := filepath.Join(dir, name)
		desc, err := d.decoder.Decode(name, decoder.EntityPanel)
		if err != nil {
			c.skip(SeverityDebug, path, err)
			continue
		}
		id := desc.(decoder.ContainerDescriptor).Identity
		c.panels = append(c.panels, rawPanel{identity: id, path: path})
		d.collectDir(c, path, id)
	}
}

// collectMaster collects the master scope: the reload command first, then
// the scripts found directly under the package root. The loader directory's
// init script backs the reload command; a root init script is the fallback;
// without either the command is a host builtin.
func (d *Discoverer) collectMaster(root string) ([]rawCommand, []Diagnostic) {
	lay := d.decoder.Layout()
	var (
		reload *rawCommand
		cmds   []rawCommand
		diags  []Diagnostic
	)
	for _, dir := range []string{d.opts.loaderDir, root} {
		if dir == "" {
			continue
		}
		files, _, err := readDir(dir)
		if err != nil {
			if dir != root {
				diags = append(diags, diagnose(SeverityWarning, dir, err))
			}
			continue
		}
		for _, name := range files {
			if !lay.IsScript(name) {
				continue
			}
			path := filepath.Join(dir, name)
			desc, err := d.decoder.Decode(name, decoder.EntityMasterCommand)
			if err != nil {
				if dir == root {
					diags = append(diags, diagnose(SeverityDebug, path, err))
				}
				continue
			}
			cd := desc.(decoder.CommandDescriptor)
			switch {
			case cd.Reload && reload == nil:
				reload = &rawCommand{desc: cd, path: path, master: true}
			case cd.Reload:
				diags = append(diags, diagnose(SeverityDebug, path,
					errors.NewDuplicateIdentityError(lay.ReloadIdentity(), lay.MasterScope, path)))
			case dir == root:
				stem := layout.TrimSuffixFold(name, lay.ScriptExt)
				cmds = append(cmds, rawCommand{desc: cd, path: path, icon: findIcon(dir, files, stem, lay), master: true})
			}
		}
	}
	if reload == nil {
		reload = &rawCommand{
			desc:   decoder.CommandDescriptor{ScriptGroup: lay.ReloadGroup, Name: lay.ReloadCommand, Reload: true},
			master: true,
		}
	}
	return append([]rawCommand{*reload}, cmds...), diags
}

// findIcon returns the icon sharing stem with a script in the same
// directory.
func findIcon(dir string, files []string, stem string, lay layout.Layout) string {
	for _, f := range files {
		if lay.IsIcon(f) && layout.EqualFold(layout.TrimSuffixFold(f, lay.IconExt), stem) {
			return filepath.Join(dir, f)
		}
	}
	return ""
}
