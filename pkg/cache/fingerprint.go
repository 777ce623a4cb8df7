package cache

import (
	"crypto/md5"
	"encoding/hex"
	"io/fs"
	"math/big"
	"path/filepath"
	"regexp"

	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/layout"
)

// Fingerprint hashes the modification times of a tab's directories. Every
// directory whose path carries the panel or tab suffix contributes its own
// mtime and the mtimes of the scripts directly inside it. Icons never
// contribute, so adding or editing an icon alone does not invalidate a
// snapshot.
//
// The result is the hex MD5 of the decimal sum of all mtimes in nanoseconds.
func Fingerprint(l layout.Layout, dirs ...string) (string, error) {
	pattern, err := regexp.Compile("(?i)(" + regexp.QuoteMeta(l.PanelSuffix) + ")|(" + regexp.QuoteMeta(l.TabSuffix) + ")")
	if err != nil {
		return "", errors.WrapValidation("layout", err)
	}

	sum := new(big.Int)
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if !pattern.MatchString(path) {
					return nil
				}
			} else if !l.IsScript(d.Name()) || !pattern.MatchString(filepath.Dir(path)) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			sum.Add(sum, big.NewInt(info.ModTime().UnixNano()))
			return nil
		})
		if err != nil {
			return "", errors.WrapIO("fingerprint", dir, err)
		}
	}

	h := md5.Sum([]byte(sum.String()))
	return hex.EncodeToString(h[:]), nil
}
