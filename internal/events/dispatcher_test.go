package events

import (
	"context"
	"errors"
	"testing"

	accountdomain "construct-authz/core/internal/account/domain"
	assignmentdomain "construct-authz/core/internal/assignment/domain"
	"construct-authz/core/internal/claims"
	claimsdomain "construct-authz/core/internal/claims/domain"
	"construct-authz/core/internal/permcache"
	permdomain "construct-authz/core/internal/permcache/domain"
	projectdomain "construct-authz/core/internal/project/domain"
	"construct-authz/core/internal/role"
)

// The dispatcher fixture wires real claim and cache components over in-memory
// repositories, with a shared op log so tests can assert ordering.

type opLog struct{ ops []string }

type memAccounts struct {
	byID map[string]*accountdomain.Account
}

func (m *memAccounts) GetByID(ctx context.Context, id string) (*accountdomain.Account, error) {
	return m.byID[id], nil
}
func (m *memAccounts) GetByEmail(ctx context.Context, email string) (*accountdomain.Account, error) {
	return nil, nil
}
func (m *memAccounts) Create(ctx context.Context, a *accountdomain.Account) error { return nil }
func (m *memAccounts) UpdateRole(ctx context.Context, id string, newRole role.Role) (*accountdomain.Account, error) {
	return nil, nil
}
func (m *memAccounts) Deactivate(ctx context.Context, id string) error { return nil }

type memAssignments struct {
	assignments []*assignmentdomain.Assignment
}

func (m *memAssignments) GetByID(ctx context.Context, id string) (*assignmentdomain.Assignment, error) {
	return nil, nil
}
func (m *memAssignments) ListActiveByAccount(ctx context.Context, accountID string) ([]*assignmentdomain.Assignment, error) {
	var out []*assignmentdomain.Assignment
	for _, a := range m.assignments {
		if a.AccountID == accountID && a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}
func (m *memAssignments) ListActiveByProject(ctx context.Context, projectID string) ([]*assignmentdomain.Assignment, error) {
	return nil, nil
}
func (m *memAssignments) ListAccountIDsByProject(ctx context.Context, projectID string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, a := range m.assignments {
		if a.ProjectID != projectID || seen[a.AccountID] {
			continue
		}
		seen[a.AccountID] = true
		out = append(out, a.AccountID)
	}
	return out, nil
}
func (m *memAssignments) Create(ctx context.Context, a *assignmentdomain.Assignment) error {
	return nil
}
func (m *memAssignments) Deactivate(ctx context.Context, accountID, projectID string, capacity assignmentdomain.Capacity) error {
	return nil
}
func (m *memAssignments) HasActiveWriteCapacity(ctx context.Context, accountID, projectID string) (bool, error) {
	return false, nil
}

type memProjects struct{}

func (m *memProjects) GetByID(ctx context.Context, id string) (*projectdomain.Project, error) {
	return nil, nil
}
func (m *memProjects) ListActiveIDs(ctx context.Context) ([]string, error) { return nil, nil }

type memRecords struct {
	log       *opLog
	byAccount map[string][]*permdomain.PermissionRecord
	err       error
}

func (m *memRecords) ReplaceForAccount(ctx context.Context, accountID string, records []*permdomain.PermissionRecord) error {
	m.log.ops = append(m.log.ops, "rebuild:"+accountID)
	if m.err != nil {
		return m.err
	}
	m.byAccount[accountID] = records
	return nil
}
func (m *memRecords) ListByAccount(ctx context.Context, accountID string) ([]*permdomain.PermissionRecord, error) {
	return m.byAccount[accountID], nil
}
func (m *memRecords) ListAll(ctx context.Context) ([]*permdomain.PermissionRecord, error) {
	return nil, nil
}

type memClaims struct {
	log    *opLog
	claims map[string]*claimsdomain.Claim
	err    error
}

func (m *memClaims) Get(ctx context.Context, accountID string) (*claimsdomain.Claim, error) {
	return m.claims[accountID], nil
}
func (m *memClaims) Upsert(ctx context.Context, c *claimsdomain.Claim) error {
	m.log.ops = append(m.log.ops, "claim:"+c.AccountID)
	if m.err != nil {
		return m.err
	}
	m.claims[c.AccountID] = c
	return nil
}

type memProducer struct {
	events []*ChangeEvent
	err    error
}

func (m *memProducer) Emit(ctx context.Context, event *ChangeEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

type dispatcherFixture struct {
	log         *opLog
	accounts    *memAccounts
	assignments *memAssignments
	claims      *memClaims
	records     *memRecords
	producer    *memProducer
	store       *permcache.Store
	scheduler   *permcache.Scheduler
	sync        *claims.Synchronizer
}

func newDispatcherFixture(withProducer bool) (*dispatcherFixture, *Dispatcher) {
	log := &opLog{}
	f := &dispatcherFixture{
		log:         log,
		accounts:    &memAccounts{byID: map[string]*accountdomain.Account{}},
		assignments: &memAssignments{},
		claims:      &memClaims{log: log, claims: map[string]*claimsdomain.Claim{}},
		records:     &memRecords{log: log, byAccount: map[string][]*permdomain.PermissionRecord{}},
		store:       permcache.NewStore(),
	}
	rebuilder := permcache.NewRebuilder(f.accounts, f.assignments, &memProjects{}, f.records, f.store)
	f.scheduler = permcache.NewScheduler(rebuilder)
	f.sync = claims.NewSynchronizer(f.claims)

	var producer Producer
	if withProducer {
		f.producer = &memProducer{}
		producer = f.producer
	}
	return f, NewDispatcher(f.sync, rebuilder, f.scheduler, producer)
}

func TestOnRoleChanged_SyncsClaimBeforeRebuild(t *testing.T) {
	f, d := newDispatcherFixture(false)
	f.accounts.byID["acc-1"] = &accountdomain.Account{ID: "acc-1", Email: "a@example.com", Role: role.PurchaseManager, Active: true}

	if err := d.OnRoleChanged(context.Background(), "acc-1", role.TechnicalLead, role.PurchaseManager); err != nil {
		t.Fatalf("OnRoleChanged: %v", err)
	}

	want := []string{"claim:acc-1", "rebuild:acc-1"}
	if len(f.log.ops) != len(want) {
		t.Fatalf("ops = %v, want %v", f.log.ops, want)
	}
	for i := range want {
		if f.log.ops[i] != want[i] {
			t.Fatalf("ops = %v, want %v (claim must commit before the cache rebuild)", f.log.ops, want)
		}
	}
	claim, _ := f.sync.Current(context.Background(), "acc-1")
	if claim == nil || claim.Role != role.PurchaseManager {
		t.Errorf("claim = %+v, want purchase_manager", claim)
	}
}

func TestOnRoleChanged_ClaimSyncFailureStopsEverything(t *testing.T) {
	f, d := newDispatcherFixture(false)
	f.claims.err = errors.New("connection refused")

	if err := d.OnRoleChanged(context.Background(), "acc-1", role.TechnicalLead, role.Management); err == nil {
		t.Fatal("OnRoleChanged with failing claim store returned nil error")
	}
	for _, op := range f.log.ops {
		if op == "rebuild:acc-1" {
			t.Error("cache rebuilt even though the claim sync failed")
		}
	}
}

func TestOnRoleChanged_RebuildFailureIsRetriedNotFatal(t *testing.T) {
	f, d := newDispatcherFixture(false)
	f.accounts.byID["acc-1"] = &accountdomain.Account{ID: "acc-1", Email: "a@example.com", Role: role.Management, Active: true}
	f.records.err = errors.New("connection reset")

	// The role change itself succeeded; a failed rebuild must not undo it.
	if err := d.OnRoleChanged(context.Background(), "acc-1", role.TechnicalLead, role.Management); err != nil {
		t.Fatalf("OnRoleChanged: %v", err)
	}

	// The scheduler converges once the store recovers.
	f.records.err = nil
	f.scheduler.Flush(context.Background())
	if len(f.records.byAccount["acc-1"]) != 0 {
		// Management with no active projects derives no rows; the point is
		// that the retry ran without error.
		t.Errorf("unexpected records after retry: %v", f.records.byAccount["acc-1"])
	}
}

func TestOnAccountDeactivated_FlipsClaimAndClearsCache(t *testing.T) {
	f, d := newDispatcherFixture(false)
	f.accounts.byID["acc-1"] = &accountdomain.Account{ID: "acc-1", Email: "a@example.com", Role: role.Management, Active: false}
	f.store.ReplaceAll([]*permdomain.PermissionRecord{
		{AccountID: "acc-1", ProjectID: "p1", CanViewProject: true},
	})

	if err := d.OnAccountDeactivated(context.Background(), "acc-1", role.Management); err != nil {
		t.Fatalf("OnAccountDeactivated: %v", err)
	}

	claim, _ := f.sync.Current(context.Background(), "acc-1")
	if claim == nil || claim.Active {
		t.Errorf("claim = %+v, want inactive", claim)
	}
	if _, ok := f.store.Lookup("acc-1", "p1"); ok {
		t.Error("deactivated account still has a snapshot record")
	}
}

func TestOnAssignmentChanged_EmitsDeferredProjectRebuild(t *testing.T) {
	f, d := newDispatcherFixture(true)
	f.accounts.byID["acc-1"] = &accountdomain.Account{ID: "acc-1", Email: "a@example.com", Role: role.TechnicalLead, Active: true}

	if err := d.OnAssignmentChanged(context.Background(), "acc-1", "p1", true); err != nil {
		t.Fatalf("OnAssignmentChanged: %v", err)
	}

	if len(f.producer.events) != 1 {
		t.Fatalf("emitted %d events, want 1", len(f.producer.events))
	}
	e := f.producer.events[0]
	if e.Type != TypeAssignmentChanged || e.AccountID != "acc-1" || e.ProjectID != "p1" || !e.Active {
		t.Errorf("event = %+v", e)
	}
	if e.OccurredAt.IsZero() {
		t.Error("event missing timestamp")
	}
}

func TestOnAssignmentChanged_ProducerFailureFallsBackInProcess(t *testing.T) {
	f, d := newDispatcherFixture(true)
	f.accounts.byID["acc-1"] = &accountdomain.Account{ID: "acc-1", Email: "a@example.com", Role: role.TechnicalLead, Active: true}
	f.assignments.assignments = append(f.assignments.assignments, &assignmentdomain.Assignment{
		ID: "asg-1", AccountID: "acc-1", ProjectID: "p1",
		Capacity: assignmentdomain.CapacitySiteEngineer, Active: true,
	})
	f.producer.err = errors.New("broker unreachable")

	if err := d.OnAssignmentChanged(context.Background(), "acc-1", "p1", true); err != nil {
		t.Fatalf("OnAssignmentChanged: %v", err)
	}

	// The project scope landed on the in-process scheduler instead.
	before := len(f.log.ops)
	f.scheduler.Flush(context.Background())
	if len(f.log.ops) <= before {
		t.Error("scheduler did not run the fallback scope")
	}
}

func TestOnAssignmentChanged_NoProducerUsesScheduler(t *testing.T) {
	f, d := newDispatcherFixture(false)
	f.accounts.byID["acc-1"] = &accountdomain.Account{ID: "acc-1", Email: "a@example.com", Role: role.TechnicalLead, Active: true}

	if err := d.OnAssignmentChanged(context.Background(), "acc-1", "p1", true); err != nil {
		t.Fatalf("OnAssignmentChanged: %v", err)
	}
	// Flushing must converge without error; the project scope fans out over
	// the assignment table.
	f.scheduler.Flush(context.Background())
}
