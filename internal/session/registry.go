package session

import (
	"context"
	"log"
	"sync"
	"time"

	"rentflow-backend/internal/confirmations"
	"rentflow-backend/internal/flow"
	"rentflow-backend/internal/metrics"
	"rentflow-backend/internal/models"
	"rentflow-backend/internal/notify"
	"rentflow-backend/internal/receipts"
	"rentflow-backend/internal/schedule"
	"rentflow-backend/internal/timeutil"
)

// TenantBackend is what a tenant session needs from upstream
type TenantBackend interface {
	flow.PaymentGateway
	schedule.Source
}

// AuditLogger persists workflow decisions
type AuditLogger interface {
	Record(ctx context.Context, entry *models.AuditEntry) error
}

// Deps are shared by every session. Audit and Archive may be nil.
type Deps struct {
	Tenant   TenantBackend
	Payments confirmations.PaymentSource
	Notifier notify.Notifier
	Audit    AuditLogger
	Archive  receipts.Archive
}

// Session holds one user's state containers
type Session struct {
	Actor         models.Actor
	Flow          *flow.Controller
	Confirmations *confirmations.Store
	Dashboard     *schedule.Dashboard

	lastSeen time.Time
}

// Registry owns the sessions of all signed-in users
type Registry struct {
	deps    Deps
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(deps Deps, idleTTL time.Duration) *Registry {
	if deps.Notifier == nil {
		deps.Notifier = notify.Discard{}
	}
	return &Registry{
		deps:     deps,
		idleTTL:  idleTTL,
		now:      timeutil.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the actor's session, creating it on first use.
// A role change for the same user starts a fresh session.
func (r *Registry) Get(actor models.Actor) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[actor.UserID]
	if !ok || s.Actor.Role != actor.Role {
		s = r.newSession(actor)
		r.sessions[actor.UserID] = s
		metrics.ActiveSessions.Set(float64(len(r.sessions)))
	}
	s.lastSeen = r.now()
	return s
}

func (r *Registry) newSession(actor models.Actor) *Session {
	var flowOpts []flow.Option
	var storeOpts []confirmations.Option
	if r.deps.Audit != nil {
		flowOpts = append(flowOpts, flow.WithAudit(r.deps.Audit))
		storeOpts = append(storeOpts, confirmations.WithAudit(r.deps.Audit))
	}
	if r.deps.Archive != nil {
		flowOpts = append(flowOpts, flow.WithArchive(r.deps.Archive))
	}

	return &Session{
		Actor:         actor,
		Flow:          flow.NewController(r.deps.Tenant, r.deps.Notifier, actor, flowOpts...),
		Confirmations: confirmations.NewStore(r.deps.Payments, r.deps.Notifier, actor, storeOpts...),
		Dashboard:     schedule.NewDashboard(r.deps.Tenant, r.deps.Notifier, actor),
	}
}

// Remove drops a user's session, resetting its flow so in-flight results are discarded
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	s, ok := r.sessions[userID]
	delete(r.sessions, userID)
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	if ok {
		s.Flow.Reset()
	}
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many went
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	for _, s := range expired {
		s.Flow.Reset()
	}
	return len(expired)
}

// Run sweeps idle sessions every interval until ctx is done
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				log.Printf("[Session] swept %d idle sessions", n)
			}
		}
	}
}
