// Package authz assembles the authorization core and exposes the boundary the
// business layer consumes: capability lookup, the single Authorize call, and
// the mutation hooks that keep claim store and permission cache converged.
package authz

import (
	"context"
	"database/sql"
	"time"

	accountrepo "construct-authz/core/internal/account/repository"
	assignmentrepo "construct-authz/core/internal/assignment/repository"
	"construct-authz/core/internal/audit"
	clientrepo "construct-authz/core/internal/client/repository"
	"construct-authz/core/internal/claims"
	claimsrepo "construct-authz/core/internal/claims/repository"
	"construct-authz/core/internal/events"
	"construct-authz/core/internal/permcache"
	permrepo "construct-authz/core/internal/permcache/repository"
	"construct-authz/core/internal/policy/domain"
	"construct-authz/core/internal/policy/engine"
	projectrepo "construct-authz/core/internal/project/repository"
	"construct-authz/core/internal/role"
	"construct-authz/core/internal/telemetry"
)

// Engine is the assembled authorization core. Construct with New, call Warm
// once, then run Scheduler in a background goroutine.
type Engine struct {
	authorizer *engine.Authorizer
	dispatcher *events.Dispatcher
	rebuilder  *permcache.Rebuilder
	scheduler  *permcache.Scheduler
	store      *permcache.Store
	auditLog   *audit.Logger
	metrics    *telemetry.Metrics
}

// Options carries the optional collaborators. Zero value disables all of them.
type Options struct {
	// Producer defers project-wide rebuilds to a queue. Nil keeps them in-process.
	Producer events.Producer
	// AuditLog records denials, redactions, and rebuild outcomes. Nil disables audit.
	AuditLog *audit.Logger
	// Metrics records decision and rebuild instruments. Nil disables metrics.
	Metrics *telemetry.Metrics
}

// New assembles the core over the given database handle.
func New(ctx context.Context, db *sql.DB, opts Options) *Engine {
	accounts := accountrepo.NewPostgresRepository(db)
	assignments := assignmentrepo.NewPostgresRepository(db)
	projects := projectrepo.NewPostgresRepository(db)
	records := permrepo.NewPostgresRepository(db)
	clientLinks := clientrepo.NewPostgresRepository(db)

	store := permcache.NewStore()
	rebuilder := permcache.NewRebuilder(accounts, assignments, projects, records, store)
	scheduler := permcache.NewScheduler(rebuilder)
	synchronizer := claims.NewSynchronizer(claimsrepo.NewPostgresRepository(db))
	rules := engine.NewRules(ctx)
	authorizer := engine.NewAuthorizer(synchronizer, store, assignments, clientLinks, rules)
	dispatcher := events.NewDispatcher(synchronizer, rebuilder, scheduler, opts.Producer)

	return &Engine{
		authorizer: authorizer,
		dispatcher: dispatcher,
		rebuilder:  rebuilder,
		scheduler:  scheduler,
		store:      store,
		auditLog:   opts.AuditLog,
		metrics:    opts.Metrics,
	}
}

// Warm loads the persisted permission records into the snapshot store. Call
// once at startup before serving Authorize.
func (e *Engine) Warm(ctx context.Context) error {
	return e.rebuilder.Warm(ctx)
}

// RunScheduler processes deferred rebuilds until ctx is cancelled. Run it in
// its own goroutine.
func (e *Engine) RunScheduler(ctx context.Context) {
	e.scheduler.Run(ctx)
}

// Scheduler exposes the rebuild scheduler for the queue consumer binary.
func (e *Engine) Scheduler() *permcache.Scheduler {
	return e.scheduler
}

// Authorizer exposes the decision point for guard helpers.
func (e *Engine) Authorizer() *engine.Authorizer {
	return e.authorizer
}

// GetCapabilities returns the account's capability set derived from its
// synced claim; the empty set when the account has none.
func (e *Engine) GetCapabilities(ctx context.Context, accountID string) (role.CapabilitySet, error) {
	return e.authorizer.GetCapabilities(ctx, accountID)
}

// Authorize is the single decision call every data-access path routes
// through. Denials and redactions are audited and counted; the verdict is
// valid even when the returned error reports an infrastructure failure.
func (e *Engine) Authorize(ctx context.Context, accountID string, ref domain.ResourceRef, op domain.Operation, field string) (domain.Decision, error) {
	decision, err := e.authorizer.Authorize(ctx, accountID, ref, op, field)
	e.auditLog.LogDecision(ctx, accountID, ref, op, decision)
	e.metrics.RecordDecision(ctx, decision.String(), string(ref.Kind))
	return decision, err
}

// OnRoleChanged must be called after every committed mutation of an account's
// role. It syncs the claim first, then converges the cache.
func (e *Engine) OnRoleChanged(ctx context.Context, accountID string, oldRole, newRole role.Role) error {
	start := time.Now()
	err := e.dispatcher.OnRoleChanged(ctx, accountID, oldRole, newRole)
	e.metrics.RecordRebuild(ctx, time.Since(start), err != nil)
	e.auditLog.LogRebuild(ctx, accountID, err)
	return err
}

// OnAccountDeactivated must be called after an account is soft deactivated.
func (e *Engine) OnAccountDeactivated(ctx context.Context, accountID string, lastRole role.Role) error {
	start := time.Now()
	err := e.dispatcher.OnAccountDeactivated(ctx, accountID, lastRole)
	e.metrics.RecordRebuild(ctx, time.Since(start), err != nil)
	e.auditLog.LogRebuild(ctx, accountID, err)
	return err
}

// OnAssignmentChanged must be called after every committed assignment
// mutation, with active reporting the new state.
func (e *Engine) OnAssignmentChanged(ctx context.Context, accountID, projectID string, active bool) error {
	start := time.Now()
	err := e.dispatcher.OnAssignmentChanged(ctx, accountID, projectID, active)
	e.metrics.RecordRebuild(ctx, time.Since(start), err != nil)
	e.auditLog.LogRebuild(ctx, accountID, err)
	return err
}
