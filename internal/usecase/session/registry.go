package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/johnquangdev/sales-mentor/internal/usecase/cooldown"
)

// Close reasons used when the server ends a session
const (
	ReasonReplaced = "Replaced by new connection"
	ReasonCallEnd  = "Call ended"
	ReasonShutdown = "Server shutting down"
)

// Handle lets the registry stop a session it does not own
type Handle struct {
	CallID    string
	CompanyID string
	AgentID   string
	Cancel    func(reason string)
}

type registeredSession struct {
	handle Handle
	once   sync.Once
}

// Registry is the process-wide table of authenticated sessions, one per call.
// It owns the cooldown lifecycle: when the current session of a call goes
// away its cooldown state is cleared, unless state is configured to outlive
// connections.
type Registry struct {
	mu                sync.Mutex
	sessions          map[string]*registeredSession
	wg                sync.WaitGroup
	cooldowns         *cooldown.Manager
	resetOnDisconnect bool
	logger            *zap.Logger
}

// NewRegistry creates a session registry
func NewRegistry(cooldowns *cooldown.Manager, resetOnDisconnect bool, logger *zap.Logger) *Registry {
	return &Registry{
		sessions:          make(map[string]*registeredSession),
		cooldowns:         cooldowns,
		resetOnDisconnect: resetOnDisconnect,
		logger:            logger,
	}
}

// Register makes h the current session of its call. A previous session for the
// same call is cancelled. The returned func unregisters exactly once.
func (r *Registry) Register(h Handle) (unregister func()) {
	entry := &registeredSession{handle: h}

	r.mu.Lock()
	old := r.sessions[h.CallID]
	r.sessions[h.CallID] = entry
	r.wg.Add(1)
	r.mu.Unlock()

	if old != nil {
		if r.logger != nil {
			r.logger.Info("🔁 Replacing session for call", zap.String("call_id", h.CallID))
		}
		if old.handle.Cancel != nil {
			old.handle.Cancel(ReasonReplaced)
		}
	}

	return func() { r.unregister(h.CallID, entry) }
}

func (r *Registry) unregister(callID string, entry *registeredSession) {
	entry.once.Do(func() {
		r.mu.Lock()
		current := r.sessions[callID] == entry
		if current {
			delete(r.sessions, callID)
		}
		r.mu.Unlock()

		if current && r.resetOnDisconnect && r.cooldowns != nil {
			r.cooldowns.Clear(callID)
		}
		r.wg.Done()
	})
}

// Terminate cancels the live session of a call, if any, and drops its cooldown state
func (r *Registry) Terminate(callID, reason string) bool {
	r.mu.Lock()
	entry := r.sessions[callID]
	r.mu.Unlock()

	if r.cooldowns != nil {
		r.cooldowns.Clear(callID)
	}
	if entry == nil {
		return false
	}
	if entry.handle.Cancel != nil {
		entry.handle.Cancel(reason)
	}
	return true
}

// Active reports whether a call has a live session
func (r *Registry) Active(callID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[callID]
	return ok
}

// Count returns the number of live sessions
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CancelAll cancels every live session
func (r *Registry) CancelAll(reason string) (canceled int) {
	var cancels []func(string)
	r.mu.Lock()
	for _, entry := range r.sessions {
		if entry.handle.Cancel != nil {
			cancels = append(cancels, entry.handle.Cancel)
		}
	}
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel(reason)
		canceled++
	}
	return canceled
}

// Wait blocks until every registered session has unregistered or ctx is done
func (r *Registry) Wait(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.wg.Wait()
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
