package cache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentstation/ribbonsync/pkg/constants"
	"github.com/agentstation/ribbonsync/pkg/errors"
)

// Key identifies the snapshot of one tab of one package. Two packages may
// declare the same tab identity, so the package is part of the key.
type Key struct {
	Package string
	Tab     string
}

// String returns the key as used in file names and memo keys.
func (k Key) String() string {
	if k.Package == "" {
		return k.Tab
	}
	return k.Package + "." + k.Tab
}

// Store loads and saves tab snapshots.
type Store interface {
	// Load returns the snapshot stored under key when it was written by this
	// format version and its hash equals wantHash. Anything else is a
	// *errors.CacheMissError.
	Load(ctx context.Context, key Key, wantHash string) (*Snapshot, error)
	// Save persists a snapshot under key. Failures are *errors.CacheWriteError.
	Save(ctx context.Context, key Key, s *Snapshot) error
}

// FileStore keeps one JSON file per package tab in a directory.
type FileStore struct {
	Dir     string
	Product string
	Version string
}

// NewFileStore returns a FileStore in dir, or in the system temp directory
// when dir is empty.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = os.TempDir()
	}
	return &FileStore{Dir: dir, Product: constants.ProductName, Version: constants.CacheVersion}
}

var unsafeName = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")

// Path returns the file holding the snapshot stored under key.
func (s *FileStore) Path(key Key) string {
	return filepath.Join(s.Dir, s.Product+"_cache_"+unsafeName.Replace(key.String())+".json")
}

// Read decodes the snapshot stored under key without checking its version
// or hash.
func (s *FileStore) Read(key Key) (*Snapshot, error) {
	tab := key.String()
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewCacheMissError(tab, errors.CacheMissAbsent, err)
		}
		return nil, errors.NewCacheMissError(tab, errors.CacheMissRead, err)
	}
	snap, err := Decode(data)
	if err != nil {
		return nil, errors.NewCacheMissError(tab, errors.CacheMissParse, err)
	}
	if snap.TabIdentity != key.Tab {
		return nil, errors.NewCacheMissError(tab, errors.CacheMissParse,
			errors.New("snapshot belongs to tab "+snap.TabIdentity))
	}
	return snap, nil
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, key Key, wantHash string) (*Snapshot, error) {
	tab := key.String()
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCacheMissError(tab, errors.CacheMissRead, err)
	}
	snap, err := s.Read(key)
	if err != nil {
		return nil, err
	}
	if snap.CacheVersion != s.Version {
		return nil, errors.NewCacheMissError(tab, errors.CacheMissVersion,
			errors.New("written by "+snap.CacheVersion+", running "+s.Version))
	}
	if snap.TabHash != wantHash {
		return nil, errors.NewCacheMissError(tab, errors.CacheMissHash, nil)
	}
	return snap, nil
}

// Save implements Store. The snapshot is written to a temporary file in the
// same directory and renamed over the previous one, so readers only ever
// see a complete file.
func (s *FileStore) Save(ctx context.Context, key Key, snap *Snapshot) error {
	tab := key.String()
	path := s.Path(key)
	if err := ctx.Err(); err != nil {
		return errors.NewCacheWriteError(tab, path, err)
	}
	if err := checkKey(key, snap); err != nil {
		return errors.NewCacheWriteError(tab, path, err)
	}

	var buf bytes.Buffer
	if err := snap.Encode(&buf); err != nil {
		return errors.NewCacheWriteError(tab, path, err)
	}
	if err := os.MkdirAll(s.Dir, constants.DirPermissions); err != nil {
		return errors.NewCacheWriteError(tab, path, err)
	}

	tempFile, err := os.CreateTemp(s.Dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.NewCacheWriteError(tab, path, err)
	}
	tempPath := tempFile.Name()
	fail := func(err error) error {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return errors.NewCacheWriteError(tab, path, err)
	}
	if _, err := tempFile.Write(buf.Bytes()); err != nil {
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
		return errors.NewCacheWriteError(tab, path, err)
	}
	return nil
}

// checkKey validates snap and makes sure it belongs under key.
func checkKey(key Key, snap *Snapshot) error {
	if snap == nil {
		return errors.New("nil snapshot")
	}
	if err := snap.Validate(); err != nil {
		return err
	}
	if snap.TabIdentity != key.Tab {
		return errors.NewValidationError("tabIdentity", snap.TabIdentity, "does not match key tab "+key.Tab)
	}
	return nil
}

// Clear removes every snapshot file of product from dir, including
// temporary files left by interrupted writes. It returns how many files
// were removed.
func Clear(dir, product string) (int, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	matches, err := filepath.Glob(filepath.Join(dir, product+"_cache_*.json*"))
	if err != nil {
		return 0, errors.WrapIO("glob", dir, err)
	}
	removed := 0
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return removed, errors.WrapIO("remove", m, err)
		}
		removed++
	}
	return removed, nil
}
