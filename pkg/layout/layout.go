// Package layout describes the on-disk naming conventions of an extension
// tree: delimiters, directory suffixes, file extensions, reserved names and
// the type tokens of ribbon items. A Layout is passed explicitly to the
// decoder, discovery and the cache; there is no package-level state.
package layout

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"

	"github.com/agentstation/ribbonsync/pkg/constants"
	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/tree"
)

// Layout holds the naming conventions.
type Layout struct {
	Delimiter       string   `mapstructure:"delimiter" yaml:"delimiter" validate:"required"`
	TabSuffix       string   `mapstructure:"tab_suffix" yaml:"tab_suffix" validate:"required,startswith=."`
	PanelSuffix     string   `mapstructure:"panel_suffix" yaml:"panel_suffix" validate:"required,startswith=.,nefield=TabSuffix"`
	IconExt         string   `mapstructure:"icon_ext" yaml:"icon_ext" validate:"required,startswith=."`
	ScriptExt       string   `mapstructure:"script_ext" yaml:"script_ext" validate:"required,startswith=.,nefield=IconExt"`
	PrivatePrefixes []string `mapstructure:"private_prefixes" yaml:"private_prefixes" validate:"dive,required"`
	InitScriptName  string   `mapstructure:"init_script_name" yaml:"init_script_name" validate:"required"`
	MasterScope     string   `mapstructure:"master_scope" yaml:"master_scope" validate:"required"`
	ReloadGroup     string   `mapstructure:"reload_group" yaml:"reload_group" validate:"required"`
	ReloadCommand   string   `mapstructure:"reload_command" yaml:"reload_command" validate:"required"`
	DocParam        string   `mapstructure:"doc_param" yaml:"doc_param" validate:"required"`
	AuthorParam     string   `mapstructure:"author_param" yaml:"author_param" validate:"required"`

	// TypeTokens maps a type token found in descriptor names to an item type.
	// Lookups are case-insensitive.
	TypeTokens map[string]tree.ItemType `mapstructure:"type_tokens" yaml:"type_tokens" validate:"required,min=1"`
}

// Default returns the conventions used by stock extension packages.
func Default() Layout {
	return Layout{
		Delimiter:       constants.DefaultDelimiter,
		TabSuffix:       constants.DefaultTabSuffix,
		PanelSuffix:     constants.DefaultPanelSuffix,
		IconExt:         constants.DefaultIconExt,
		ScriptExt:       constants.DefaultScriptExt,
		PrivatePrefixes: []string{".", "_"},
		InitScriptName:  constants.DefaultInitScriptName,
		MasterScope:     constants.DefaultMasterScope,
		ReloadGroup:     constants.DefaultReloadGroup,
		ReloadCommand:   constants.DefaultReloadCommand,
		DocParam:        constants.DefaultDocParam,
		AuthorParam:     constants.DefaultAuthorParam,
		TypeTokens: map[string]tree.ItemType{
			"Push":            tree.TypePush,
			"PushButton":      tree.TypePush,
			"Toggle":          tree.TypeToggle,
			"ToggleButton":    tree.TypeToggle,
			"Link":            tree.TypeLink,
			"LinkButton":      tree.TypeLink,
			"Smart":           tree.TypeSmart,
			"SmartButton":     tree.TypeSmart,
			"PullDown":        tree.TypePullDown,
			"PulldownButton":  tree.TypePullDown,
			"Split":           tree.TypeSplit,
			"SplitButton":     tree.TypeSplit,
			"SplitPush":       tree.TypeSplitPush,
			"SplitPushButton": tree.TypeSplitPush,
			"Stack2":          tree.TypeStackTwo,
			"StackTwo":        tree.TypeStackTwo,
			"Stack3":          tree.TypeStackThree,
			"StackThree":      tree.TypeStackThree,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that every convention is set and self-consistent.
func (l Layout) Validate() error {
	if err := validate.Struct(l); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.NewValidationError(fe.Field(), fe.Value(), "failed "+fe.Tag()+" rule")
		}
		return errors.WrapValidation("layout", err)
	}
	for token, typ := range l.TypeTokens {
		if strings.Contains(token, l.Delimiter) {
			return errors.NewValidationError("TypeTokens", token, "type token contains the delimiter")
		}
		if !typ.IsGroup() && !typ.IsCommand() {
			return errors.NewValidationError("TypeTokens", string(typ), "unknown item type")
		}
	}
	return nil
}

// fold returns the case-folded form of s for case-insensitive comparison.
func fold(s string) string {
	return cases.Fold().String(s)
}

// EqualFold compares two names case-insensitively.
func EqualFold(a, b string) bool {
	return fold(a) == fold(b)
}

// HasSuffixFold reports whether name ends with suffix, ignoring case.
func HasSuffixFold(name, suffix string) bool {
	return len(name) >= len(suffix) && EqualFold(name[len(name)-len(suffix):], suffix)
}

// TrimSuffixFold removes suffix from name, ignoring case.
func TrimSuffixFold(name, suffix string) string {
	if HasSuffixFold(name, suffix) {
		return name[:len(name)-len(suffix)]
	}
	return name
}

// IsPrivate reports whether a file or directory name is hidden from discovery.
func (l Layout) IsPrivate(name string) bool {
	for _, p := range l.PrivatePrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// IsTabDir reports whether a directory name declares a bundled tab.
func (l Layout) IsTabDir(name string) bool {
	return !l.IsPrivate(name) && HasSuffixFold(name, l.TabSuffix) && len(name) > len(l.TabSuffix)
}

// IsPanelDir reports whether a directory name declares a bundled panel.
func (l Layout) IsPanelDir(name string) bool {
	return !l.IsPrivate(name) && HasSuffixFold(name, l.PanelSuffix) && len(name) > len(l.PanelSuffix)
}

// IsScript reports whether a file name has the script extension.
func (l Layout) IsScript(name string) bool {
	return HasSuffixFold(name, l.ScriptExt)
}

// IsIcon reports whether a file name has the icon extension.
func (l Layout) IsIcon(name string) bool {
	return HasSuffixFold(name, l.IconExt)
}

// ItemType resolves a type token.
func (l Layout) ItemType(token string) (tree.ItemType, bool) {
	if t, ok := l.TypeTokens[token]; ok {
		return t, true
	}
	for k, t := range l.TypeTokens {
		if EqualFold(k, token) {
			return t, true
		}
	}
	return "", false
}

// ReloadIdentity is the basename, without extension, of the reload command.
func (l Layout) ReloadIdentity() string {
	return l.ReloadGroup + l.Delimiter + l.ReloadCommand
}

// IsInitScript reports whether name is the loader's init script.
func (l Layout) IsInitScript(name string) bool {
	return strings.Contains(fold(name), fold(l.InitScriptName))
}
