package cooldown

import (
	"sync"
	"time"

	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
)

// DefaultGlobalWindow is the minimum gap between any two insights of a call
const DefaultGlobalWindow = 30 * time.Second

// Verdict explains the outcome of a trigger attempt
type Verdict string

const (
	VerdictAllowed   Verdict = "allowed"
	VerdictGlobal    Verdict = "global"
	VerdictCategory  Verdict = "category"
	VerdictDuplicate Verdict = "duplicate"
	VerdictInFlight  Verdict = "in_flight"
)

type callState struct {
	categories map[entities.Category]time.Time
	lastGlobal time.Time
	lastKeys   map[entities.Category]string
	inFlight   bool
	touched    time.Time
}

// Manager tracks per-call cooldowns at two layers: one window per category
// and one global window shared by every category of the call.
type Manager struct {
	mu     sync.Mutex
	calls  map[string]*callState
	global time.Duration
	now    func() time.Time
}

// NewManager creates a cooldown manager. A non-positive window uses DefaultGlobalWindow.
func NewManager(globalWindow time.Duration) *Manager {
	if globalWindow <= 0 {
		globalWindow = DefaultGlobalWindow
	}
	return &Manager{
		calls:  make(map[string]*callState),
		global: globalWindow,
		now:    time.Now,
	}
}

// GlobalWindow returns the configured global cooldown
func (m *Manager) GlobalWindow() time.Duration {
	return m.global
}

// state returns the call state, creating it on first use. Caller holds m.mu.
func (m *Manager) state(callID string, now time.Time) *callState {
	st, ok := m.calls[callID]
	if !ok {
		st = &callState{
			categories: make(map[entities.Category]time.Time),
			lastKeys:   make(map[entities.Category]string),
		}
		m.calls[callID] = st
	}
	st.touched = now
	return st
}

func (m *Manager) globalBlocked(st *callState, now time.Time) bool {
	return !st.lastGlobal.IsZero() && now.Sub(st.lastGlobal) < m.global
}

func categoryBlocked(st *callState, category entities.Category, cd time.Duration, now time.Time) bool {
	at, ok := st.categories[category]
	return ok && now.Sub(at) < cd
}

// CanTrigger reports whether category may fire for the call right now.
// It does not consider in-flight generations; use Begin for that.
func (m *Manager) CanTrigger(callID string, category entities.Category, cd time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.calls[callID]
	if !ok {
		return true
	}
	now := m.now()
	return !m.globalBlocked(st, now) && !categoryBlocked(st, category, cd, now)
}

// MarkTriggered records now as the last trigger of category and of the call
func (m *Manager) MarkTriggered(callID string, category entities.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	st := m.state(callID, now)
	st.categories[category] = now
	st.lastGlobal = now
}

// Clear drops every window of the call
func (m *Manager) Clear(callID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.calls, callID)
}

// Begin atomically checks the global and category windows and the in-flight
// flag. A repeat of the category's last quote inside its window reports
// VerdictDuplicate; once the window lapses the same quote may fire again.
// On VerdictAllowed the returned ticket holds the call's single generation
// slot until Commit or Abort.
func (m *Manager) Begin(callID string, category entities.Category, cd time.Duration, dedupeKey string) (*Ticket, Verdict) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	st := m.state(callID, now)
	switch {
	case st.inFlight:
		return nil, VerdictInFlight
	case m.globalBlocked(st, now):
		return nil, VerdictGlobal
	case categoryBlocked(st, category, cd, now):
		if dedupeKey != "" && st.lastKeys[category] == dedupeKey {
			return nil, VerdictDuplicate
		}
		return nil, VerdictCategory
	}

	st.inFlight = true
	return &Ticket{m: m, st: st, callID: callID, category: category, key: dedupeKey}, VerdictAllowed
}

// BeginGlobal is Begin for the categoryless channel: only the global window
// and the in-flight flag apply.
func (m *Manager) BeginGlobal(callID string) (*Ticket, Verdict) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	st := m.state(callID, now)
	if st.inFlight {
		return nil, VerdictInFlight
	}
	if m.globalBlocked(st, now) {
		return nil, VerdictGlobal
	}

	st.inFlight = true
	return &Ticket{m: m, st: st, callID: callID, global: true}, VerdictAllowed
}

// EvictIdle drops state untouched for longer than olderThan. In-flight calls are kept.
func (m *Manager) EvictIdle(olderThan time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	evicted := 0
	for id, st := range m.calls {
		if !st.inFlight && now.Sub(st.touched) > olderThan {
			delete(m.calls, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of calls with cooldown state
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Ticket is an exclusive claim on a call's generation slot
type Ticket struct {
	m        *Manager
	st       *callState
	callID   string
	category entities.Category
	key      string
	global   bool
	done     bool
}

// Commit consumes the cooldown windows and releases the slot. If the call was
// cleared while the ticket was held, nothing is recorded.
func (t *Ticket) Commit() {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	if t.done {
		return
	}
	t.done = true
	t.st.inFlight = false

	if t.m.calls[t.callID] != t.st {
		return
	}
	now := t.m.now()
	t.st.touched = now
	t.st.lastGlobal = now
	if !t.global {
		t.st.categories[t.category] = now
		t.st.lastKeys[t.category] = t.key
	}
}

// Abort releases the slot without consuming any window
func (t *Ticket) Abort() {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	if t.done {
		return
	}
	t.done = true
	t.st.inFlight = false
}
