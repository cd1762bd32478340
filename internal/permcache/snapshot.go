// Package permcache holds the derived permission cache: a persisted table of
// per-(account, project) grants plus an in-memory snapshot published by
// copy-and-swap so the read path never blocks on a rebuild.
package permcache

import (
	"sync"
	"sync/atomic"

	"construct-authz/core/internal/permcache/domain"
)

// snapshot is an immutable view of the cache. Lookups read whichever snapshot
// was current when they started; a rebuild builds a new map and swaps the
// pointer, never mutating a published map.
type snapshot struct {
	records map[domain.Key]domain.PermissionRecord
}

// Store publishes cache snapshots. Writers serialize on mu so two publishes
// never derive from the same old snapshot and drop each other's rows; readers
// stay lock-free on the atomic pointer. The zero Store is not usable; call
// NewStore.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[snapshot]
}

// NewStore returns a Store holding an empty snapshot. Absence of a record
// means deny, so an empty snapshot is the safe starting state.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(&snapshot{records: map[domain.Key]domain.PermissionRecord{}})
	return s
}

// Lookup returns the record for (account, project) from the last published
// snapshot. ok is false when no record exists; callers must treat that as deny.
func (s *Store) Lookup(accountID, projectID string) (domain.PermissionRecord, bool) {
	snap := s.current.Load()
	rec, ok := snap.records[domain.Key{AccountID: accountID, ProjectID: projectID}]
	return rec, ok
}

// Len returns the number of records in the current snapshot.
func (s *Store) Len() int {
	return len(s.current.Load().records)
}

// ReplaceAccount publishes a new snapshot in which the account's rows are
// exactly records; every other account's rows are carried over unchanged.
func (s *Store) ReplaceAccount(accountID string, records []*domain.PermissionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.current.Load()
	next := make(map[domain.Key]domain.PermissionRecord, len(old.records)+len(records))
	for k, v := range old.records {
		if k.AccountID == accountID {
			continue
		}
		next[k] = v
	}
	for _, rec := range records {
		next[rec.Key()] = *rec
	}
	s.current.Store(&snapshot{records: next})
}

// ReplaceAll publishes a snapshot holding exactly records. Used to warm the
// store from the persisted table at startup.
func (s *Store) ReplaceAll(records []*domain.PermissionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[domain.Key]domain.PermissionRecord, len(records))
	for _, rec := range records {
		next[rec.Key()] = *rec
	}
	s.current.Store(&snapshot{records: next})
}
