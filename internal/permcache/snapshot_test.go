package permcache

import (
	"fmt"
	"sync"
	"testing"

	"construct-authz/core/internal/permcache/domain"
)

func rec(accountID, projectID string, costs bool) *domain.PermissionRecord {
	return &domain.PermissionRecord{
		AccountID:      accountID,
		ProjectID:      projectID,
		CanViewProject: true,
		CanViewScope:   true,
		CanViewCosts:   costs,
		CanViewTasks:   true,
	}
}

func TestStore_EmptyByDefault(t *testing.T) {
	s := NewStore()

	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if _, ok := s.Lookup("a", "p"); ok {
		t.Error("Lookup on empty store returned ok = true")
	}
}

func TestStore_ReplaceAccountKeepsOtherAccounts(t *testing.T) {
	s := NewStore()
	s.ReplaceAll([]*domain.PermissionRecord{
		rec("alice", "p1", true),
		rec("alice", "p2", true),
		rec("bob", "p1", false),
	})

	s.ReplaceAccount("alice", []*domain.PermissionRecord{rec("alice", "p3", false)})

	if _, ok := s.Lookup("alice", "p1"); ok {
		t.Error("stale record (alice, p1) survived ReplaceAccount")
	}
	if _, ok := s.Lookup("alice", "p2"); ok {
		t.Error("stale record (alice, p2) survived ReplaceAccount")
	}
	got, ok := s.Lookup("alice", "p3")
	if !ok {
		t.Fatal("new record (alice, p3) missing after ReplaceAccount")
	}
	if got.CanViewCosts {
		t.Error("record (alice, p3) should not grant cost visibility")
	}
	if _, ok := s.Lookup("bob", "p1"); !ok {
		t.Error("unrelated record (bob, p1) lost during ReplaceAccount")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestStore_ReplaceAccountWithEmptyRevokesAll(t *testing.T) {
	s := NewStore()
	s.ReplaceAll([]*domain.PermissionRecord{rec("alice", "p1", true)})

	s.ReplaceAccount("alice", nil)

	if _, ok := s.Lookup("alice", "p1"); ok {
		t.Error("record survived replacement with empty set")
	}
}

func TestStore_PublishedSnapshotIsImmutable(t *testing.T) {
	s := NewStore()
	input := []*domain.PermissionRecord{rec("alice", "p1", true)}
	s.ReplaceAll(input)

	// Mutating the slice the caller passed in must not affect the snapshot.
	input[0].CanViewCosts = false

	got, ok := s.Lookup("alice", "p1")
	if !ok {
		t.Fatal("record missing")
	}
	if !got.CanViewCosts {
		t.Error("published snapshot changed through the caller's slice")
	}
}

func TestStore_ConcurrentPublishesKeepEveryAccount(t *testing.T) {
	s := NewStore()
	base := make([]*domain.PermissionRecord, 0, 2000)
	for i := 0; i < 2000; i++ {
		base = append(base, rec(fmt.Sprintf("base-%d", i), "p1", false))
	}
	s.ReplaceAll(base)

	// Each account publishes its own rebuild concurrently. Two publishes
	// deriving from the same old snapshot would drop each other's rows.
	const accounts = 128
	var wg sync.WaitGroup
	for i := 0; i < accounts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("acc-%d", i)
			s.ReplaceAccount(id, []*domain.PermissionRecord{rec(id, "p1", false)})
		}(i)
	}
	wg.Wait()

	var lost int
	for i := 0; i < accounts; i++ {
		if _, ok := s.Lookup(fmt.Sprintf("acc-%d", i), "p1"); !ok {
			lost++
		}
	}
	if lost != 0 {
		t.Fatalf("%d of %d concurrently published accounts lost their rows", lost, accounts)
	}
	if s.Len() != len(base)+accounts {
		t.Errorf("Len() = %d, want %d", s.Len(), len(base)+accounts)
	}
}

func TestStore_ConcurrentPublishCannotResurrectRevokedRows(t *testing.T) {
	s := NewStore()
	s.ReplaceAll([]*domain.PermissionRecord{
		rec("revoked", "p1", false),
		rec("other", "p1", false),
	})

	// The revocation (empty set) races with another account's rebuild. Once
	// both publishes complete, the revoked rows must be gone regardless of
	// interleaving.
	for i := 0; i < 500; i++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.ReplaceAccount("revoked", nil)
		}()
		go func() {
			defer wg.Done()
			s.ReplaceAccount("other", []*domain.PermissionRecord{rec("other", "p1", false)})
		}()
		wg.Wait()

		if _, ok := s.Lookup("revoked", "p1"); ok {
			t.Fatal("revoked account's row reappeared after a concurrent publish")
		}
		s.ReplaceAccount("revoked", []*domain.PermissionRecord{rec("revoked", "p1", false)})
	}
}

func TestStore_LookupDuringReplaceSeesOldOrNew(t *testing.T) {
	s := NewStore()
	s.ReplaceAll([]*domain.PermissionRecord{rec("alice", "p1", true)})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			s.ReplaceAccount("alice", []*domain.PermissionRecord{rec("alice", "p1", i%2 == 0)})
		}
	}()
	for i := 0; i < 1000; i++ {
		if _, ok := s.Lookup("alice", "p1"); !ok {
			t.Fatal("Lookup observed a partially published snapshot")
		}
	}
	<-done
}
