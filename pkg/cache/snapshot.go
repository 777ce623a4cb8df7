// Package cache persists discovered tab trees between runs.
//
// A Snapshot is valid only while its format version matches CacheVersion
// and its hash matches a fresh Fingerprint of the tab. Every other outcome
// is a *errors.CacheMissError, which callers answer with a full discovery.
package cache

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/go-playground/validator/v10"

	"github.com/agentstation/ribbonsync/pkg/constants"
	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/tree"
)

// Snapshot is the persisted form of one tab. Fields are declared in key
// order.
type Snapshot struct {
	CacheVersion string     `json:"cacheVersion" validate:"required"`
	TabHash      string     `json:"tabHash" validate:"required,hexadecimal,len=32"`
	TabIdentity  string     `json:"tabIdentity" validate:"required"`
	Tree         *tree.Node `json:"tree" validate:"required"`
}

// NewSnapshot wraps a freshly discovered tab with its fingerprint.
func NewSnapshot(tab *tree.Node, hash string) *Snapshot {
	return &Snapshot{
		CacheVersion: constants.CacheVersion,
		TabHash:      hash,
		TabIdentity:  tab.Identity,
		Tree:         tab,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks required fields and the tree's structural invariants.
func (s *Snapshot) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.NewValidationError(verrs[0].Field(), verrs[0].Value(), "failed "+verrs[0].Tag()+" rule")
		}
		return errors.WrapValidation("snapshot", err)
	}
	if s.Tree.Kind != tree.KindTab {
		return errors.NewValidationError("tree.kind", s.Tree.Kind, "snapshot root must be a tab")
	}
	if s.Tree.Identity != s.TabIdentity {
		return errors.NewValidationError("tabIdentity", s.TabIdentity, "does not match tree identity "+s.Tree.Identity)
	}
	if err := s.Tree.Validate(); err != nil {
		return errors.WrapValidation("tree", err)
	}
	return nil
}

// Encode writes s as indented JSON.
func (s *Snapshot) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// Decode reads a snapshot strictly: unknown fields, trailing data and
// invalid trees are all rejected.
func Decode(data []byte) (*Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var s Snapshot
	if err := dec.Decode(&s); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after snapshot")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
