package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
	"github.com/johnquangdev/sales-mentor/internal/usecase/cooldown"
	"github.com/johnquangdev/sales-mentor/internal/usecase/insight"
	"github.com/johnquangdev/sales-mentor/internal/usecase/rules"
	"github.com/johnquangdev/sales-mentor/pkg/jwt"
)

// fakeCalls is an in-memory CallRepository. When gate is set, FindByID waits for it.
type fakeCalls struct {
	mu    sync.Mutex
	calls map[uuid.UUID]*entities.Call
	err   error
	gate  chan struct{}
}

func newFakeCalls() *fakeCalls {
	return &fakeCalls{calls: make(map[uuid.UUID]*entities.Call)}
}

func (r *fakeCalls) Create(ctx context.Context, call *entities.Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[call.ID] = call
	return nil
}

func (r *fakeCalls) FindByID(ctx context.Context, id uuid.UUID) (*entities.Call, error) {
	r.mu.Lock()
	gate := r.gate
	r.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	call, ok := r.calls[id]
	if !ok {
		return nil, nil
	}
	c := *call
	return &c, nil
}

func (r *fakeCalls) MarkEnded(ctx context.Context, id uuid.UUID) (*entities.Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	call, ok := r.calls[id]
	if !ok {
		return nil, nil
	}
	call.Status = entities.CallStatusEnded
	return call, nil
}

func (r *fakeCalls) FindCompany(ctx context.Context, id uuid.UUID) (*entities.Company, error) {
	return &entities.Company{ID: id}, nil
}

func (r *fakeCalls) FindAgent(ctx context.Context, id uuid.UUID) (*entities.Agent, error) {
	return &entities.Agent{ID: id}, nil
}

type fakeSegments struct {
	mu      sync.Mutex
	items   []*entities.Segment
	err     error
	counted int
}

func (r *fakeSegments) Create(ctx context.Context, segment *entities.Segment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	segment.ID = uuid.New()
	segment.CreatedAt = time.Now()
	r.items = append(r.items, segment)
	return nil
}

func (r *fakeSegments) ListRecentClient(ctx context.Context, callID uuid.UUID, limit int) ([]*entities.Segment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*entities.Segment
	for _, s := range r.items {
		if s.CallID == callID && s.Speaker == entities.SpeakerClient {
			out = append(out, s)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *fakeSegments) ListByCall(ctx context.Context, callID uuid.UUID) ([]*entities.Segment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Segment
	for _, s := range r.items {
		if s.CallID == callID {
			out = append(out, s)
		}
	}
	return out, r.err
}

func (r *fakeSegments) CountClient(ctx context.Context, callID uuid.UUID) (int64, error) {
	r.mu.Lock()
	r.counted++
	r.mu.Unlock()
	segs, err := r.ListRecentClient(ctx, callID, 1<<30)
	return int64(len(segs)), err
}

func (r *fakeSegments) countCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counted
}

func (r *fakeSegments) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

type fakeInsights struct {
	mu    sync.Mutex
	items []*entities.Insight
}

func (r *fakeInsights) Create(ctx context.Context, in *entities.Insight) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, in)
	return nil
}

func (r *fakeInsights) ListByCall(ctx context.Context, callID uuid.UUID, limit int) ([]*entities.Insight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items, nil
}

// scriptedGenerator returns a fixed card per category and an optional contextual card
type scriptedGenerator struct {
	mu         sync.Mutex
	contextual *entities.InsightCard
	err        error
	calls      int
}

func (g *scriptedGenerator) GenerateInsightCard(ctx context.Context, category entities.Category, quote string, recent []string) (*entities.InsightCard, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &entities.InsightCard{
		Title:       "Card " + string(category),
		Urgency:     entities.UrgencyMedium,
		Context:     "context",
		Suggestions: []string{"s1", "s2"},
		Question:    "q?",
		Pitfalls:    []string{"p1"},
	}, nil
}

func (g *scriptedGenerator) GenerateContextualInsight(ctx context.Context, segments []string) (*entities.InsightCard, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	if g.contextual == nil {
		return nil, nil
	}
	c := *g.contextual
	return &c, nil
}

func (g *scriptedGenerator) Describe() (string, string) { return "scripted", "v1" }

func (g *scriptedGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type harness struct {
	t         *testing.T
	server    *httptest.Server
	tokens    *jwt.Manager
	calls     *fakeCalls
	segments  *fakeSegments
	insights  *fakeInsights
	generator *scriptedGenerator
	cooldowns *cooldown.Manager
	registry  *Registry
	cfg       Config
	reset     bool
}

type harnessOption func(*harness)

func withContextualInterval(d time.Duration) harnessOption {
	return func(h *harness) { h.cfg.ContextualInterval = d }
}

func withResetOnDisconnect(reset bool) harnessOption {
	return func(h *harness) { h.reset = reset }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	h := &harness{
		t:         t,
		tokens:    jwt.NewManager("test-secret", time.Hour),
		calls:     newFakeCalls(),
		segments:  &fakeSegments{},
		insights:  &fakeInsights{},
		generator: &scriptedGenerator{},
		cooldowns: cooldown.NewManager(30 * time.Second),
		cfg: Config{
			ContextualInterval:    time.Hour,
			ContextualWindow:      6,
			MinContextualSegments: 2,
			RecentContextLines:    3,
			PersistTimeout:        2 * time.Second,
			WriteTimeout:          2 * time.Second,
		},
		reset: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.registry = NewRegistry(h.cooldowns, h.reset, nil)

	auth := NewAuthenticator(h.tokens, h.calls, nil)
	dispatcher := insight.NewDispatcher(h.generator, h.insights, time.Second, time.Second, nil, nil)
	table := rules.DefaultTable()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := ExtractParams(r)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		sess, err := New(context.Background(), Dependencies{
			Conn:          conn,
			Params:        params,
			Config:        h.cfg,
			Authenticator: auth,
			Registry:      h.registry,
			Cooldowns:     h.cooldowns,
			Rules:         table,
			Segments:      h.segments,
			Dispatcher:    dispatcher,
		})
		if err != nil {
			_ = conn.Close()
			return
		}
		_ = sess.Run()
	}))
	t.Cleanup(func() {
		h.registry.CancelAll(ReasonShutdown)
		h.server.Close()
	})
	return h
}

func (h *harness) addCall(status entities.CallStatus) *entities.Call {
	call := &entities.Call{
		ID:        uuid.New(),
		CompanyID: uuid.New(),
		AgentID:   uuid.New(),
		Status:    status,
		StartedAt: time.Now(),
	}
	require.NoError(h.t, h.calls.Create(context.Background(), call))
	return call
}

func (h *harness) token(call *entities.Call) string {
	token, _, err := h.tokens.GenerateSessionToken(call.ID.String(), call.CompanyID.String(), call.AgentID.String())
	require.NoError(h.t, err)
	return token
}

func (h *harness) dial(callID, token string) *websocket.Conn {
	h.t.Helper()
	q := url.Values{}
	if callID != "" {
		q.Set("call_id", callID)
	}
	if token != "" {
		q.Set("token", token)
	}
	u := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/v1/ws?" + q.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// connect dials a running call and consumes the "connected" status
func (h *harness) connect(call *entities.Call) *websocket.Conn {
	h.t.Helper()
	conn := h.dial(call.ID.String(), h.token(call))
	expectStatus(h.t, conn, true, MsgConnected)
	require.Eventually(h.t, func() bool { return h.registry.Active(call.ID.String()) }, 2*time.Second, 5*time.Millisecond)
	return conn
}

func segmentFrame(callID uuid.UUID, text string) map[string]interface{} {
	return map[string]interface{}{
		"event":   EventClientSegment,
		"call_id": callID.String(),
		"speaker": "CLIENTE",
		"text":    text,
		"source":  "TAB",
	}
}

func send(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

func readFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func expectStatus(t *testing.T, conn *websocket.Conn, ok bool, msg string) map[string]interface{} {
	t.Helper()
	frame := readFrame(t, conn, 2*time.Second)
	require.Equal(t, EventStatus, frame["event"], "frame: %v", frame)
	require.Equal(t, ok, frame["ok"], "frame: %v", frame)
	require.Equal(t, msg, frame["msg"], "frame: %v", frame)
	return frame
}

func expectInsight(t *testing.T, conn *websocket.Conn, category entities.Category) map[string]interface{} {
	t.Helper()
	frame := readFrame(t, conn, 2*time.Second)
	require.Equal(t, "insight", frame["type"], "frame: %v", frame)
	require.Equal(t, string(category), frame["category"], "frame: %v", frame)
	return frame
}

// expectSilence asserts nothing arrives within d. The connection is unusable afterwards.
func expectSilence(t *testing.T, conn *websocket.Conn, d time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(d)))
	_, data, err := conn.ReadMessage()
	require.Error(t, err, "unexpected frame: %s", string(data))
	netErr, ok := err.(interface{ Timeout() bool })
	require.True(t, ok && netErr.Timeout(), "expected timeout, got %v", err)
}

func expectClose(t *testing.T, conn *websocket.Conn, code int, reason string) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		if err == nil {
			var frame map[string]interface{}
			_ = json.Unmarshal(data, &frame)
			require.NotEqual(t, MsgConnected, frame["msg"], "connected sent before close")
			continue
		}
		closeErr, ok := err.(*websocket.CloseError)
		require.True(t, ok, "expected close error, got %v", err)
		require.Equal(t, code, closeErr.Code)
		require.Equal(t, reason, closeErr.Text)
		return
	}
}
