// Package memory is an in-process liveui.UI. It stands in for a host UI in
// tests and in the CLI, which persists it between runs as YAML.
package memory

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/ribbonsync/pkg/constants"
	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/liveui"
	"github.com/agentstation/ribbonsync/pkg/tree"
)

// Element is one simulated widget.
type Element struct {
	Name      string        `yaml:"name"`
	Kind      tree.Kind     `yaml:"kind"`
	Type      tree.ItemType `yaml:"type,omitempty"`
	Enabled   bool          `yaml:"enabled"`
	Tooltip   string        `yaml:"tooltip,omitempty"`
	Icon      string        `yaml:"icon,omitempty"`
	ClassName string        `yaml:"class_name,omitempty"`
	Script    string        `yaml:"script,omitempty"`
	Builtin   bool          `yaml:"builtin,omitempty"`
	Assembly  string        `yaml:"assembly,omitempty"`
	Class     string        `yaml:"class,omitempty"`
	Location  string        `yaml:"location,omitempty"`
	Children  []*Element    `yaml:"children,omitempty"`
}

func (e *Element) child(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (e *Element) clone() *Element {
	cp := *e
	cp.Children = nil
	for _, c := range e.Children {
		cp.Children = append(cp.Children, c.clone())
	}
	return &cp
}

// bind copies node's presentation onto e. The reload command keeps the
// binding it was created with.
func (e *Element) bind(node *tree.Node) {
	e.Kind = node.Kind
	e.Type = node.Type
	e.Tooltip = node.Metadata.Tooltip
	e.Icon = node.Metadata.IconPath
	e.ClassName = node.Metadata.ClassName
	if e.Builtin {
		return
	}
	e.Script = node.SourcePath
	e.Builtin = node.Metadata.Builtin
	e.Assembly, e.Class, e.Location = "", "", ""
	if a := node.Metadata.Assembly; a != nil {
		e.Assembly, e.Class, e.Location = a.Name, a.Class, a.Location
	}
}

// State is the serializable content of a UI.
type State struct {
	Tabs []*Element `yaml:"tabs"`
}

// UI is a thread-safe liveui.UI.
type UI struct {
	mu     sync.Mutex
	root   *Element
	faults map[string]error
}

var _ liveui.UI = (*UI)(nil)

// New returns an empty UI.
func New() *UI {
	return &UI{root: &Element{Kind: tree.KindPackage}, faults: make(map[string]error)}
}

// FromState returns a UI holding a copy of st.
func FromState(st State) *UI {
	u := New()
	for _, t := range st.Tabs {
		u.root.Children = append(u.root.Children, t.clone())
	}
	return u
}

// State returns a copy of the current content.
func (u *UI) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	var st State
	for _, t := range u.root.Children {
		st.Tabs = append(st.Tabs, t.clone())
	}
	return st
}

// Open loads a UI saved with Save. A missing file yields an empty UI.
func Open(path string) (*UI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, errors.WrapIO("read", path, err)
	}
	var st State
	if err := yaml.UnmarshalWithOptions(data, &st, yaml.Strict()); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return FromState(st), nil
}

// Save writes the UI to path as YAML. The state goes to a temporary file
// next to path that is renamed over it, so an interrupted save leaves the
// previous state in place.
func (u *UI) Save(path string) error {
	data, err := u.MarshalYAML()
	if err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.WrapIO("write", path, err)
	}
	tempPath := tempFile.Name()
	fail := func(err error) error {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return errors.WrapIO("write", path, err)
	}
	if _, err := tempFile.Write(data); err != nil {
		return fail(err)
	}
	if err := tempFile.Chmod(constants.FilePermissions); err != nil {
		return fail(err)
	}
	if err := tempFile.Sync(); err != nil {
		return fail(err)
	}
	if err := tempFile.Close(); err != nil {
		return fail(err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("rename", path, err)
	}
	return nil
}

// MarshalYAML encodes the current state.
func (u *UI) MarshalYAML() ([]byte, error) {
	data, err := yaml.Marshal(u.State())
	if err != nil {
		return nil, errors.WrapParse("yaml", "ui state", err)
	}
	return data, nil
}

// Find returns a copy of the element at path, or nil.
func (u *UI) Find(path ...string) *Element {
	u.mu.Lock()
	defer u.mu.Unlock()
	cur := u.root
	for _, name := range path {
		if cur = cur.child(name); cur == nil {
			return nil
		}
	}
	return cur.clone()
}

// Fail makes op ("create", "update", "disable" or "list") fail with err on
// the element at path. Tests use it to simulate a host rejecting a change.
func (u *UI) Fail(op string, path []string, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.faults[op+":"+strings.Join(path, "/")] = err
}

func (u *UI) fault(op string, path []string) error {
	return u.faults[op+":"+strings.Join(path, "/")]
}

// Tabs implements liveui.UI.
func (u *UI) Tabs() liveui.Level {
	return &level{ui: u, parent: u.root, name: "tab"}
}

// Panels implements liveui.UI.
func (u *UI) Panels(tab liveui.Handle) (liveui.Level, error) {
	return u.below(tab, "panel")
}

// Items implements liveui.UI.
func (u *UI) Items(panel liveui.Handle) (liveui.Level, error) {
	return u.below(panel, "item")
}

// SubItems implements liveui.UI.
func (u *UI) SubItems(item liveui.Handle) (liveui.Level, error) {
	return u.below(item, "subitem")
}

func (u *UI) below(h liveui.Handle, name string) (liveui.Level, error) {
	hd, ok := h.(*handle)
	if !ok || hd.ui != u {
		return nil, errors.NewValidationError("handle", h, "not created by this UI")
	}
	return &level{ui: u, parent: hd.el, path: hd.path, name: name}, nil
}

type handle struct {
	ui   *UI
	el   *Element
	path []string
}

func (h *handle) Name() string {
	return h.el.Name
}

func (h *handle) Enabled() bool {
	h.ui.mu.Lock()
	defer h.ui.mu.Unlock()
	return h.el.Enabled
}

type level struct {
	ui     *UI
	parent *Element
	path   []string
	name   string
}

func (l *level) childPath(name string) []string {
	return append(append([]string(nil), l.path...), name)
}

func (l *level) wrap(el *Element) *handle {
	return &handle{ui: l.ui, el: el, path: l.childPath(el.Name)}
}

func (l *level) own(h liveui.Handle) (*handle, error) {
	hd, ok := h.(*handle)
	if !ok || hd.ui != l.ui || l.parent.child(hd.el.Name) != hd.el {
		return nil, errors.NewValidationError("handle", h, "not an element of this "+l.name+" level")
	}
	return hd, nil
}

func (l *level) Contains(name string) bool {
	l.ui.mu.Lock()
	defer l.ui.mu.Unlock()
	return l.parent.child(name) != nil
}

func (l *level) Get(name string) (liveui.Handle, error) {
	l.ui.mu.Lock()
	defer l.ui.mu.Unlock()
	el := l.parent.child(name)
	if el == nil {
		return nil, errors.NewNotFoundError(l.name, strings.Join(l.childPath(name), "/"))
	}
	return l.wrap(el), nil
}

func (l *level) Create(node *tree.Node) (liveui.Handle, error) {
	l.ui.mu.Lock()
	defer l.ui.mu.Unlock()
	if err := l.ui.fault("create", l.childPath(node.Identity)); err != nil {
		return nil, err
	}
	if l.parent.child(node.Identity) != nil {
		return nil, errors.NewValidationError("name", node.Identity, l.name+" already exists")
	}
	el := &Element{Name: node.Identity, Enabled: true}
	el.bind(node)
	l.parent.Children = append(l.parent.Children, el)
	return l.wrap(el), nil
}

func (l *level) Update(h liveui.Handle, node *tree.Node) error {
	l.ui.mu.Lock()
	defer l.ui.mu.Unlock()
	hd, err := l.own(h)
	if err != nil {
		return err
	}
	if err := l.ui.fault("update", hd.path); err != nil {
		return err
	}
	hd.el.bind(node)
	hd.el.Enabled = true
	return nil
}

func (l *level) Disable(h liveui.Handle) error {
	l.ui.mu.Lock()
	defer l.ui.mu.Unlock()
	hd, err := l.own(h)
	if err != nil {
		return err
	}
	if err := l.ui.fault("disable", hd.path); err != nil {
		return err
	}
	hd.el.Enabled = false
	return nil
}

func (l *level) ListExisting() ([]liveui.Handle, error) {
	l.ui.mu.Lock()
	defer l.ui.mu.Unlock()
	if err := l.ui.fault("list", l.path); err != nil {
		return nil, err
	}
	out := make([]liveui.Handle, 0, len(l.parent.Children))
	for _, el := range l.parent.Children {
		out = append(out, l.wrap(el))
	}
	return out, nil
}

// Mirror copies the names and enabled state of every element of src into a
// new UI, so changes can be rehearsed without touching src.
func Mirror(src liveui.UI) (*UI, error) {
	u := New()
	tabs, err := src.Tabs().ListExisting()
	if err != nil {
		return nil, err
	}
	below := []func(liveui.Handle) (liveui.Level, error){src.Panels, src.Items, src.SubItems}
	kinds := []tree.Kind{tree.KindTab, tree.KindPanel, tree.KindCommand, tree.KindCommand}
	var copyLevel func(dst *Element, handles []liveui.Handle, depth int) error
	copyLevel = func(dst *Element, handles []liveui.Handle, depth int) error {
		for _, h := range handles {
			el := &Element{Name: h.Name(), Kind: kinds[depth], Enabled: h.Enabled()}
			dst.Children = append(dst.Children, el)
			if depth == len(below) {
				continue
			}
			level, err := below[depth](h)
			if err != nil {
				return err
			}
			children, err := level.ListExisting()
			if err != nil {
				return err
			}
			if err := copyLevel(el, children, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := copyLevel(u.root, tabs, 0); err != nil {
		return nil, err
	}
	return u, nil
}
