package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/agentstation/ribbonsync/pkg/constants"
	"github.com/agentstation/ribbonsync/pkg/errors"
)

// MemoryStore memoizes snapshots in process, in front of another Store.
// Entries are keyed by package, tab, hash and format version, so a changed tab
// simply misses. With a nil next store it is a pure in-memory cache.
type MemoryStore struct {
	next  Store
	store *gocache.Cache
}

// NewMemoryStore creates a MemoryStore. ttl is how long an entry lives and
// cleanupInterval how often expired entries are dropped.
func NewMemoryStore(next Store, ttl, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		next:  next,
		store: gocache.New(ttl, cleanupInterval),
	}
}

func memoryKey(key Key, hash string) string {
	return key.Package + "|" + key.Tab + "|" + hash + "|" + constants.CacheVersion
}

// Load implements Store. Hits return a copy so callers cannot alter the
// memoized tree.
func (m *MemoryStore) Load(ctx context.Context, key Key, wantHash string) (*Snapshot, error) {
	if v, ok := m.store.Get(memoryKey(key, wantHash)); ok {
		return clone(v.(*Snapshot)), nil
	}
	if m.next == nil {
		return nil, errors.NewCacheMissError(key.String(), errors.CacheMissAbsent, nil)
	}
	snap, err := m.next.Load(ctx, key, wantHash)
	if err != nil {
		return nil, err
	}
	m.store.Set(memoryKey(key, wantHash), clone(snap), gocache.DefaultExpiration)
	return snap, nil
}

// Save implements Store. The entry is only memoized once the next store
// accepted it.
func (m *MemoryStore) Save(ctx context.Context, key Key, snap *Snapshot) error {
	if m.next != nil {
		if err := m.next.Save(ctx, key, snap); err != nil {
			return err
		}
	} else if err := checkKey(key, snap); err != nil {
		return errors.NewCacheWriteError(key.String(), "", err)
	}
	m.store.Set(memoryKey(key, snap.TabHash), clone(snap), gocache.DefaultExpiration)
	return nil
}

// Flush drops every memoized snapshot.
func (m *MemoryStore) Flush() {
	m.store.Flush()
}

// ItemCount returns the number of memoized snapshots.
func (m *MemoryStore) ItemCount() int {
	return m.store.ItemCount()
}

func clone(s *Snapshot) *Snapshot {
	cp := *s
	cp.Tree = s.Tree.Clone()
	return &cp
}
