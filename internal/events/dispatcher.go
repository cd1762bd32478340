package events

import (
	"context"
	"log"
	"time"

	"construct-authz/core/internal/claims"
	"construct-authz/core/internal/permcache"
	"construct-authz/core/internal/role"
)

// Producer publishes change events for deferred processing. May be nil, in
// which case all rebuilds run in-process.
type Producer interface {
	Emit(ctx context.Context, event *ChangeEvent) error
}

// Dispatcher is the entry point the business layer calls after every committed
// mutation of an account role or an assignment.
type Dispatcher struct {
	sync      *claims.Synchronizer
	rebuilder *permcache.Rebuilder
	scheduler *permcache.Scheduler
	producer  Producer
	nowF      func() time.Time
}

// NewDispatcher returns a Dispatcher. producer may be nil; then project-wide
// rebuilds go through the in-process scheduler instead of the queue.
func NewDispatcher(sync *claims.Synchronizer, rebuilder *permcache.Rebuilder, scheduler *permcache.Scheduler, producer Producer) *Dispatcher {
	return &Dispatcher{
		sync:      sync,
		rebuilder: rebuilder,
		scheduler: scheduler,
		producer:  producer,
		nowF:      func() time.Time { return time.Now().UTC() },
	}
}

// OnRoleChanged converges claim and cache after a committed role mutation.
// The claim is synced first so the evaluator's self-referential checks see the
// new role before the cache does; the single-account rebuild then runs inline,
// with a scheduler retry if it fails. Callers must invoke this after commit.
func (d *Dispatcher) OnRoleChanged(ctx context.Context, accountID string, oldRole, newRole role.Role) error {
	if err := d.sync.SyncOnRoleChange(ctx, accountID, newRole, true); err != nil {
		return err
	}
	if err := d.rebuilder.Rebuild(ctx, accountID); err != nil {
		log.Printf("events: inline rebuild for account %s failed, scheduling retry: %v", accountID, err)
		d.scheduler.ScheduleAccount(accountID)
	}
	return nil
}

// OnAccountDeactivated converges claim and cache after an account is soft
// deactivated: the claim flips to inactive and the rebuild clears the
// account's rows.
func (d *Dispatcher) OnAccountDeactivated(ctx context.Context, accountID string, lastRole role.Role) error {
	if err := d.sync.SyncOnRoleChange(ctx, accountID, lastRole, false); err != nil {
		return err
	}
	if err := d.rebuilder.Rebuild(ctx, accountID); err != nil {
		log.Printf("events: inline rebuild for account %s failed, scheduling retry: %v", accountID, err)
		d.scheduler.ScheduleAccount(accountID)
	}
	return nil
}

// OnAssignmentChanged converges the cache after a committed assignment
// mutation. The directly affected account rebuilds inline so the common case
// converges fast; the project-wide recomputation is deferred to the queue when
// a producer is configured, otherwise to the in-process scheduler.
func (d *Dispatcher) OnAssignmentChanged(ctx context.Context, accountID, projectID string, active bool) error {
	if err := d.rebuilder.Rebuild(ctx, accountID); err != nil {
		log.Printf("events: inline rebuild for account %s failed, scheduling retry: %v", accountID, err)
		d.scheduler.ScheduleAccount(accountID)
	}
	event := &ChangeEvent{
		Type:       TypeAssignmentChanged,
		AccountID:  accountID,
		ProjectID:  projectID,
		Active:     active,
		OccurredAt: d.nowF(),
	}
	if d.producer != nil {
		if err := d.producer.Emit(ctx, event); err != nil {
			log.Printf("events: emit assignment change failed, falling back to in-process rebuild: %v", err)
			d.scheduler.ScheduleProject(projectID)
		}
		return nil
	}
	d.scheduler.ScheduleProject(projectID)
	return nil
}
