package permcache

import (
	"context"
	"log"
	"sync"
	"time"
)

// rebuildTimeout bounds a single scope rebuild. A rebuild that overruns is
// abandoned (nothing partial is published) and retried on the next pass.
const rebuildTimeout = 30 * time.Second

// maxAttempts is how many times a failing scope is retried before it is
// dropped with a loud log. The next mutation on the scope re-schedules it.
const maxAttempts = 3

// Scope identifies what a scheduled rebuild covers: exactly one of AccountID
// or ProjectID is set.
type Scope struct {
	AccountID string
	ProjectID string
}

// Scheduler coalesces rebuild requests so a bulk mutation schedules one
// rebuild per affected scope rather than one per row. Schedule* may be called
// from any goroutine; Run drains pending scopes until ctx is cancelled.
type Scheduler struct {
	rebuilder *Rebuilder

	mu       sync.Mutex
	pending  map[Scope]int // scope -> attempts so far
	kick     chan struct{}
}

// NewScheduler returns a Scheduler over the given rebuilder.
func NewScheduler(rebuilder *Rebuilder) *Scheduler {
	return &Scheduler{
		rebuilder: rebuilder,
		pending:   map[Scope]int{},
		kick:      make(chan struct{}, 1),
	}
}

// ScheduleAccount queues a rebuild of every record for the account.
// Duplicate scopes queued before the next pass collapse into one rebuild.
func (s *Scheduler) ScheduleAccount(accountID string) {
	s.schedule(Scope{AccountID: accountID})
}

// ScheduleProject queues a rebuild for every account assigned to the project.
func (s *Scheduler) ScheduleProject(projectID string) {
	s.schedule(Scope{ProjectID: projectID})
}

func (s *Scheduler) schedule(scope Scope) {
	s.mu.Lock()
	if _, ok := s.pending[scope]; !ok {
		s.pending[scope] = 0
	}
	s.mu.Unlock()
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run processes scheduled rebuilds until ctx is cancelled. Failed scopes are
// retried up to maxAttempts with the previous snapshot staying authoritative
// in between.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.kick:
			s.Flush(ctx)
		}
	}
}

// Flush synchronously drains all currently pending scopes. Used by Run and by
// callers that need the cache converged before returning (e.g. tests and the
// inline small-scope path).
func (s *Scheduler) Flush(ctx context.Context) {
	for {
		scope, attempts, ok := s.take()
		if !ok {
			return
		}
		if err := s.runOne(ctx, scope); err != nil {
			if ctx.Err() != nil {
				return
			}
			attempts++
			if attempts >= maxAttempts {
				log.Printf("permcache: giving up on scope %+v after %d attempts: %v", scope, attempts, err)
				continue
			}
			log.Printf("permcache: rebuild scope %+v failed (attempt %d): %v", scope, attempts, err)
			s.mu.Lock()
			if _, queued := s.pending[scope]; !queued {
				s.pending[scope] = attempts
			}
			s.mu.Unlock()
		}
	}
}

func (s *Scheduler) take() (Scope, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for scope, attempts := range s.pending {
		delete(s.pending, scope)
		return scope, attempts, true
	}
	return Scope{}, 0, false
}

func (s *Scheduler) runOne(ctx context.Context, scope Scope) error {
	runCtx, cancel := context.WithTimeout(ctx, rebuildTimeout)
	defer cancel()
	if scope.AccountID != "" {
		return s.rebuilder.Rebuild(runCtx, scope.AccountID)
	}
	return s.rebuilder.RebuildForProject(runCtx, scope.ProjectID)
}
