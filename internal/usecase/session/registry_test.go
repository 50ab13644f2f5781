package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
	"github.com/johnquangdev/sales-mentor/internal/usecase/cooldown"
)

type cancelRecorder struct {
	mu      sync.Mutex
	reasons []string
}

func (c *cancelRecorder) cancel(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reasons = append(c.reasons, reason)
}

func (c *cancelRecorder) got() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.reasons...)
}

func primeCooldown(t *testing.T, m *cooldown.Manager, callID string) {
	t.Helper()
	ticket, verdict := m.Begin(callID, entities.CategoryPrice, time.Minute, "PRICE:x")
	require.Equal(t, cooldown.VerdictAllowed, verdict)
	ticket.Commit()
}

func TestRegistry_RegisterReplacesPrevious(t *testing.T) {
	cds := cooldown.NewManager(time.Minute)
	r := NewRegistry(cds, true, nil)
	primeCooldown(t, cds, "call-1")

	first := &cancelRecorder{}
	second := &cancelRecorder{}
	unregisterFirst := r.Register(Handle{CallID: "call-1", Cancel: first.cancel})
	unregisterSecond := r.Register(Handle{CallID: "call-1", Cancel: second.cancel})

	assert.Equal(t, []string{ReasonReplaced}, first.got())
	assert.Empty(t, second.got())
	assert.Equal(t, 1, r.Count())

	// the replaced session going away must not touch the new one
	unregisterFirst()
	assert.True(t, r.Active("call-1"))
	assert.Equal(t, 1, cds.Len())

	unregisterSecond()
	assert.False(t, r.Active("call-1"))
	assert.Equal(t, 0, cds.Len())
}

func TestRegistry_UnregisterRunsOnce(t *testing.T) {
	r := NewRegistry(cooldown.NewManager(time.Minute), true, nil)
	unregister := r.Register(Handle{CallID: "call-1"})

	unregister()
	unregister()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.True(t, r.Wait(ctx))
	assert.Equal(t, 0, r.Count())
}

func TestRegistry_KeepsCooldownsWhenResetDisabled(t *testing.T) {
	cds := cooldown.NewManager(time.Minute)
	r := NewRegistry(cds, false, nil)
	primeCooldown(t, cds, "call-1")

	unregister := r.Register(Handle{CallID: "call-1"})
	unregister()

	assert.Equal(t, 1, cds.Len())
	assert.False(t, cds.CanTrigger("call-1", entities.CategoryPrice, time.Minute))
}

func TestRegistry_Terminate(t *testing.T) {
	cds := cooldown.NewManager(time.Minute)
	r := NewRegistry(cds, false, nil)
	primeCooldown(t, cds, "call-1")

	rec := &cancelRecorder{}
	r.Register(Handle{CallID: "call-1", Cancel: rec.cancel})

	assert.True(t, r.Terminate("call-1", ReasonCallEnd))
	assert.Equal(t, []string{ReasonCallEnd}, rec.got())
	assert.Equal(t, 0, cds.Len(), "terminate clears cooldowns regardless of policy")

	primeCooldown(t, cds, "call-2")
	assert.False(t, r.Terminate("call-2", ReasonCallEnd))
	assert.Equal(t, 0, cds.Len())
}

func TestRegistry_CancelAllAndWait(t *testing.T) {
	r := NewRegistry(cooldown.NewManager(time.Minute), true, nil)

	var unregisters []func()
	recs := make([]*cancelRecorder, 3)
	for i, id := range []string{"a", "b", "c"} {
		recs[i] = &cancelRecorder{}
		unregisters = append(unregisters, r.Register(Handle{CallID: id, Cancel: recs[i].cancel}))
	}

	assert.Equal(t, 3, r.CancelAll(ReasonShutdown))
	for _, rec := range recs {
		assert.Equal(t, []string{ReasonShutdown}, rec.got())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.False(t, r.Wait(ctx), "sessions still registered")

	for _, u := range unregisters {
		u()
	}
	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	assert.True(t, r.Wait(ctx2))
}
