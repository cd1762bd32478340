package permcache

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	accountrepo "construct-authz/core/internal/account/repository"
	assignmentrepo "construct-authz/core/internal/assignment/repository"
	"construct-authz/core/internal/permcache/domain"
	permrepo "construct-authz/core/internal/permcache/repository"
	projectrepo "construct-authz/core/internal/project/repository"
	"construct-authz/core/internal/role"
)

// Rebuilder recomputes permission records from the account's role and its
// active assignments, persists them, and publishes the new snapshot. Rebuilds
// are idempotent: the derivation is a pure function of committed state, so
// re-running one with unchanged inputs produces identical records.
type Rebuilder struct {
	accounts    accountrepo.Repository
	assignments assignmentrepo.Repository
	projects    projectrepo.Repository
	records     permrepo.Repository
	store       *Store

	// nowF is the clock; replaced in tests.
	nowF func() time.Time

	// locks serializes concurrent rebuilds per account. Last writer wins is
	// fine (the derivation is pure), but interleaved persist+publish is not.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRebuilder returns a Rebuilder over the given repositories and snapshot store.
func NewRebuilder(
	accounts accountrepo.Repository,
	assignments assignmentrepo.Repository,
	projects projectrepo.Repository,
	records permrepo.Repository,
	store *Store,
) *Rebuilder {
	return &Rebuilder{
		accounts:    accounts,
		assignments: assignments,
		projects:    projects,
		records:     records,
		store:       store,
		nowF:        func() time.Time { return time.Now().UTC() },
		locks:       map[string]*sync.Mutex{},
	}
}

// Warm loads the persisted records into the snapshot store. Call once at
// startup before serving lookups.
func (b *Rebuilder) Warm(ctx context.Context) error {
	all, err := b.records.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("warm permission cache: %w", err)
	}
	b.store.ReplaceAll(all)
	return nil
}

// Rebuild recomputes every record for the account, persists the set, and
// publishes it. On any failure the previous snapshot stays authoritative and
// the error is returned for the caller to log; nothing partial is published.
func (b *Rebuilder) Rebuild(ctx context.Context, accountID string) error {
	lock := b.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	records, err := b.derive(ctx, accountID)
	if err != nil {
		return fmt.Errorf("derive records for account %s: %w", accountID, err)
	}
	if err := b.records.ReplaceForAccount(ctx, accountID, records); err != nil {
		return fmt.Errorf("persist records for account %s: %w", accountID, err)
	}
	b.store.ReplaceAccount(accountID, records)
	return nil
}

// RebuildForProject recomputes records for every account with any assignment
// on the project, including inactive ones so revocations converge to deny.
// Accounts that fail are logged and skipped; the first error is returned after
// all accounts were attempted.
func (b *Rebuilder) RebuildForProject(ctx context.Context, projectID string) error {
	accountIDs, err := b.assignments.ListAccountIDsByProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("list accounts for project %s: %w", projectID, err)
	}
	var firstErr error
	for _, id := range accountIDs {
		if err := b.Rebuild(ctx, id); err != nil {
			log.Printf("permcache: rebuild account %s for project %s: %v", id, projectID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// derive computes the account's records from committed state. Returns an empty
// set for missing, inactive, unknown-role, and client-role accounts: clients
// are evaluated live against the client link, everyone else with no grants
// simply has no rows, and absence means deny.
func (b *Rebuilder) derive(ctx context.Context, accountID string) ([]*domain.PermissionRecord, error) {
	account, err := b.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil || !account.Active {
		return nil, nil
	}
	caps := role.Capabilities(account.Role)
	if caps.Empty() && !account.Role.Valid() {
		log.Printf("permcache: account %s has unknown role %q, deriving no grants", accountID, account.Role)
		return nil, nil
	}
	if caps.IsExternalClient {
		return nil, nil
	}

	projectIDs, err := b.linkedProjects(ctx, accountID, caps)
	if err != nil {
		return nil, err
	}

	now := b.nowF()
	records := make([]*domain.PermissionRecord, 0, len(projectIDs))
	for _, projectID := range projectIDs {
		records = append(records, &domain.PermissionRecord{
			AccountID:      accountID,
			ProjectID:      projectID,
			CanViewProject: true,
			CanViewScope:   true,
			CanViewCosts:   caps.SeesCosts,
			CanViewTasks:   true,
			RebuiltAt:      now,
		})
	}
	return records, nil
}

// linkedProjects returns the sorted, deduplicated project ids the account is
// linked to: every active project for sees-all roles, otherwise the projects
// of its active assignments.
func (b *Rebuilder) linkedProjects(ctx context.Context, accountID string, caps role.CapabilitySet) ([]string, error) {
	if caps.SeesAllProjects {
		return b.projects.ListActiveIDs(ctx)
	}
	assignments, err := b.assignments.ListActiveByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var ids []string
	for _, a := range assignments {
		if seen[a.ProjectID] {
			continue
		}
		seen[a.ProjectID] = true
		ids = append(ids, a.ProjectID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (b *Rebuilder) accountLock(accountID string) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	lock, ok := b.locks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		b.locks[accountID] = lock
	}
	return lock
}
