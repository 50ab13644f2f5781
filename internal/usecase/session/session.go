package session

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/johnquangdev/sales-mentor/internal/domain/repositories"
	"github.com/johnquangdev/sales-mentor/internal/usecase/cooldown"
	"github.com/johnquangdev/sales-mentor/internal/usecase/insight"
	"github.com/johnquangdev/sales-mentor/internal/usecase/rules"
	"github.com/johnquangdev/sales-mentor/pkg/metrics"
)

// State of a call session connection
type State int32

const (
	StateConnecting State = iota
	StateAuthenticating
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateClosed:
		return "CLOSED"
	}
	return "UNKNOWN"
}

// Conn is the subset of *websocket.Conn a session uses
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Config tunes a session
type Config struct {
	ContextualInterval    time.Duration
	ContextualWindow      int
	MinContextualSegments int
	RecentContextLines    int
	PersistTimeout        time.Duration
	WriteTimeout          time.Duration
	PingInterval          time.Duration
	ReadLimit             int64
}

func (c Config) withDefaults() Config {
	if c.ContextualInterval <= 0 {
		c.ContextualInterval = DefaultContextualInterval
	}
	if c.ContextualWindow <= 0 {
		c.ContextualWindow = 6
	}
	if c.MinContextualSegments <= 0 {
		c.MinContextualSegments = 2
	}
	if c.RecentContextLines < 0 {
		c.RecentContextLines = 0
	}
	if c.PersistTimeout <= 0 {
		c.PersistTimeout = 5 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	return c
}

// Dependencies wires a session to the shared engine components
type Dependencies struct {
	Conn          Conn
	Params        Params
	Config        Config
	Authenticator *Authenticator
	Registry      *Registry
	Cooldowns     *cooldown.Manager
	Rules         *rules.Table
	Ingestor      *Ingestor
	Segments      repositories.SegmentRepository
	Dispatcher    *insight.Dispatcher
	Metrics       *metrics.Metrics
	Logger        *zap.Logger
}

type inboundFrame struct {
	messageType int
	data        []byte
	err         error
}

// CallSession is the actor serving one coaching connection. Only the goroutine
// running Run writes to the connection.
type CallSession struct {
	conn       Conn
	params     Params
	cfg        Config
	auth       *Authenticator
	registry   *Registry
	cooldowns  *cooldown.Manager
	rules      *rules.Table
	ingestor   *Ingestor
	segments   repositories.SegmentRepository
	dispatcher *insight.Dispatcher
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	state      atomic.Int32
	identity   *Identity
	scheduler  *scheduler
	recent     []string
	dispatchCh chan *insight.Event
	inflight   sync.WaitGroup

	unregister  func()
	started     time.Time
	reasonMu    sync.Mutex
	closeReason string
	cleanupOnce sync.Once
}

// New creates a session in CONNECTING state
func New(parent context.Context, deps Dependencies) (*CallSession, error) {
	if deps.Conn == nil || deps.Authenticator == nil || deps.Registry == nil ||
		deps.Cooldowns == nil || deps.Rules == nil || deps.Segments == nil || deps.Dispatcher == nil {
		return nil, fmt.Errorf("session: missing dependency")
	}
	if deps.Ingestor == nil {
		deps.Ingestor = NewIngestor(nil)
	}
	cfg := deps.Config.withDefaults()

	ctx, cancel := context.WithCancel(parent)
	s := &CallSession{
		conn:       deps.Conn,
		params:     deps.Params,
		cfg:        cfg,
		auth:       deps.Authenticator,
		registry:   deps.Registry,
		cooldowns:  deps.Cooldowns,
		rules:      deps.Rules,
		ingestor:   deps.Ingestor,
		segments:   deps.Segments,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
		scheduler:  newScheduler(cfg.ContextualInterval),
		dispatchCh: make(chan *insight.Event, 4),
	}
	s.state.Store(int32(StateConnecting))
	return s, nil
}

// State returns the current connection state
func (s *CallSession) State() State {
	return State(s.state.Load())
}

func (s *CallSession) setState(st State) {
	s.state.Store(int32(st))
}

// Cancel asks the session to close with reason. Safe from any goroutine.
func (s *CallSession) Cancel(reason string) {
	s.reasonMu.Lock()
	if s.closeReason == "" {
		s.closeReason = reason
	}
	s.reasonMu.Unlock()
	s.cancel()
}

func (s *CallSession) reason() string {
	s.reasonMu.Lock()
	defer s.reasonMu.Unlock()
	return s.closeReason
}

// Run authenticates the connection and serves it until it closes. It returns
// nil on any orderly close, including handshake rejections.
func (s *CallSession) Run() error {
	defer s.cleanup()

	s.setState(StateAuthenticating)
	identity, err := s.auth.Verify(s.params)
	if err != nil {
		s.reject(err)
		return nil
	}
	s.identity = identity

	if s.cfg.ReadLimit > 0 {
		s.conn.SetReadLimit(s.cfg.ReadLimit)
	}
	if s.cfg.PingInterval > 0 {
		wait := 2*s.cfg.PingInterval + s.cfg.WriteTimeout
		_ = s.conn.SetReadDeadline(s.now().Add(wait))
		s.conn.SetPongHandler(func(string) error {
			return s.conn.SetReadDeadline(time.Now().Add(wait))
		})
	}

	readCh := make(chan inboundFrame, 64)
	go s.readLoop(readCh)

	authCh := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.cfg.PersistTimeout)
		defer cancel()
		authCh <- s.auth.Lookup(ctx, identity)
	}()

	var pingC <-chan time.Time
	if s.cfg.PingInterval > 0 {
		ping := time.NewTicker(s.cfg.PingInterval)
		defer ping.Stop()
		pingC = ping.C
	}

	for {
		select {
		case <-s.ctx.Done():
			s.closeForCancel()
			return nil

		case err := <-authCh:
			authCh = nil
			if err != nil {
				if _, ok := Rejection(err); ok {
					s.reject(err)
					return nil
				}
				s.logError("❌ Session setup failed", err)
				_ = s.writeJSON(failStatus(MsgServerError))
				s.closeWith(websocket.CloseInternalServerErr, "server error")
				return err
			}
			if err := s.authenticated(); err != nil {
				return nil
			}

		case frame, ok := <-readCh:
			if !ok || frame.err != nil {
				return nil
			}
			if s.State() != StateAuthenticated {
				s.metrics.RecordSegment("unauthenticated")
				if err := s.writeJSON(failStatus(MsgNotAuthenticated)); err != nil {
					return nil
				}
				continue
			}
			if err := s.handleFrame(frame.data); err != nil {
				return nil
			}

		case <-s.scheduler.C():
			s.handleTick()

		case ev := <-s.dispatchCh:
			if err := s.writeJSON(ev); err != nil {
				return nil
			}

		case <-pingC:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, s.now().Add(s.cfg.WriteTimeout)); err != nil {
				return nil
			}
		}
	}
}

// authenticated moves the session into steady state
func (s *CallSession) authenticated() error {
	s.setState(StateAuthenticated)
	if err := s.writeJSON(okStatus(MsgConnected)); err != nil {
		return err
	}

	s.started = s.now()
	s.unregister = s.registry.Register(Handle{
		CallID:    s.callKey(),
		CompanyID: s.identity.CompanyID,
		AgentID:   s.identity.AgentID,
		Cancel:    s.Cancel,
	})
	s.scheduler.start()
	s.metrics.RecordSessionStart()

	if s.logger != nil {
		s.logger.Info("✅ Session authenticated", s.fields()...)
	}
	return nil
}

// handleFrame runs the keyword path for one inbound frame. A non-nil error
// means the connection is unusable.
func (s *CallSession) handleFrame(raw []byte) error {
	msg, err := s.ingestor.Parse(raw, s.identity.CallID)
	if err != nil {
		var ingestErr *IngestError
		if !stdErrors.As(err, &ingestErr) {
			return s.writeJSON(failStatus(MsgInvalidPayload))
		}
		s.metrics.RecordSegment(ingestErr.Msg)
		if s.logger != nil {
			s.logger.Debug("Rejected frame", append(s.fields(),
				zap.String("reason", ingestErr.Msg),
				zap.Strings("fields", ingestErr.Fields),
			)...)
		}
		return s.writeJSON(failStatus(ingestErr.Msg))
	}

	if err := s.writeJSON(okStatus(MsgReceived)); err != nil {
		return err
	}

	started := s.now()
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.PersistTimeout)
	err = s.segments.Create(ctx, msg.ToEntity(s.identity.CallID))
	cancel()
	elapsed := s.now().Sub(started)
	if err != nil {
		s.metrics.RecordSegment("persist_failed")
		s.logError("❌ Failed to persist segment", err)
		return s.writeJSON(failStatus(MsgServerError))
	}
	s.metrics.RecordPersist(elapsed)
	s.metrics.RecordSegment("saved")
	if err := s.writeJSON(savedStatus(elapsed.Milliseconds())); err != nil {
		return err
	}

	recent := s.rememberClientLine(msg.Text)
	s.scheduler.noteSegment()

	category, ok := s.rules.Detect(msg.Text)
	if !ok {
		return nil
	}

	cand := insight.NewCandidate(s.callKey(), category, msg.Text, recent, s.now())
	ticket, verdict := s.cooldowns.Begin(s.callKey(), category, s.rules.CooldownFor(category), cand.DedupeKey)
	if verdict != cooldown.VerdictAllowed {
		s.metrics.RecordCooldownBlock(string(insight.ChannelKeyword), string(verdict))
		if s.logger != nil {
			s.logger.Debug("Insight suppressed", append(s.fields(),
				zap.String("category", string(category)),
				zap.String("verdict", string(verdict)),
			)...)
		}
		return nil
	}

	if s.logger != nil {
		s.logger.Info("🎯 Generating insight", append(s.fields(), zap.String("category", string(category)))...)
	}
	s.dispatch(func(ctx context.Context) (*insight.Event, error) {
		return s.dispatcher.Dispatch(ctx, cand, ticket)
	})
	return nil
}

// handleTick runs the contextual path
func (s *CallSession) handleTick() {
	if s.State() != StateAuthenticated || !s.scheduler.due() {
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.PersistTimeout)
	n, err := s.segments.CountClient(ctx, s.identity.CallID)
	cancel()
	if err != nil {
		s.logError("❌ Failed to count client segments", err)
		return
	}
	if n < int64(s.cfg.MinContextualSegments) {
		return
	}

	ticket, verdict := s.cooldowns.BeginGlobal(s.callKey())
	if verdict != cooldown.VerdictAllowed {
		s.metrics.RecordCooldownBlock(string(insight.ChannelContextual), string(verdict))
		return
	}

	ctx, cancel = context.WithTimeout(s.ctx, s.cfg.PersistTimeout)
	segs, err := s.segments.ListRecentClient(ctx, s.identity.CallID, s.cfg.ContextualWindow)
	cancel()
	if err != nil {
		ticket.Abort()
		s.logError("❌ Failed to load recent segments", err)
		return
	}
	if len(segs) < s.cfg.MinContextualSegments {
		ticket.Abort()
		return
	}

	lines := make([]string, 0, len(segs))
	for _, seg := range segs {
		lines = append(lines, seg.Text)
	}
	s.scheduler.analyzed()

	callID := s.callKey()
	s.dispatch(func(ctx context.Context) (*insight.Event, error) {
		return s.dispatcher.DispatchContextual(ctx, callID, lines, ticket)
	})
}

// dispatch runs a generation off the actor and hands the event back to it
func (s *CallSession) dispatch(fn func(ctx context.Context) (*insight.Event, error)) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ev, err := fn(s.ctx)
		if err != nil || ev == nil {
			return
		}
		select {
		case s.dispatchCh <- ev:
		case <-s.ctx.Done():
		}
	}()
}

// rememberClientLine records text and returns the lines said before it
func (s *CallSession) rememberClientLine(text string) []string {
	if s.cfg.RecentContextLines == 0 {
		return nil
	}
	before := make([]string, len(s.recent))
	copy(before, s.recent)

	s.recent = append(s.recent, text)
	if len(s.recent) > s.cfg.RecentContextLines {
		s.recent = s.recent[len(s.recent)-s.cfg.RecentContextLines:]
	}
	return before
}

func (s *CallSession) readLoop(out chan<- inboundFrame) {
	defer close(out)
	for {
		mt, data, err := s.conn.ReadMessage()
		select {
		case out <- inboundFrame{messageType: mt, data: data, err: err}:
		case <-s.ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

func (s *CallSession) writeJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = s.conn.SetWriteDeadline(s.now().Add(s.cfg.WriteTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *CallSession) closeWith(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, s.now().Add(s.cfg.WriteTimeout))
}

func (s *CallSession) closeForCancel() {
	reason := s.reason()
	code := websocket.CloseNormalClosure
	if reason == ReasonShutdown {
		code = websocket.CloseGoingAway
	}
	s.closeWith(code, reason)
}

// reject closes the connection with a policy violation before it is usable
func (s *CallSession) reject(err error) {
	reason, ok := Rejection(err)
	if !ok {
		reason = "Invalid token"
	}
	s.metrics.RecordAuthRejection(reason)
	if s.logger != nil {
		s.logger.Warn("🚫 Session rejected",
			zap.String("call_id", s.params.CallID),
			zap.String("reason", reason),
			zap.Error(err),
		)
	}
	s.closeWith(websocket.ClosePolicyViolation, reason)
}

// cleanup releases everything the session holds. Runs exactly once.
func (s *CallSession) cleanup() {
	s.cleanupOnce.Do(func() {
		wasAuthenticated := s.State() == StateAuthenticated
		s.setState(StateClosed)
		s.scheduler.stop()
		s.cancel()
		_ = s.conn.Close()
		s.inflight.Wait()

		if s.unregister != nil {
			s.unregister()
		}
		if wasAuthenticated {
			s.metrics.RecordSessionEnd("closed")
			if s.logger != nil {
				s.logger.Info("👋 Session closed", append(s.fields(),
					zap.Duration("duration", s.now().Sub(s.started)),
					zap.String("reason", s.reason()),
				)...)
			}
		}
	})
}

func (s *CallSession) callKey() string {
	if s.identity == nil {
		return s.params.CallID
	}
	return s.identity.CallID.String()
}

func (s *CallSession) fields() []zap.Field {
	fields := []zap.Field{zap.String("call_id", s.callKey())}
	if s.identity != nil {
		fields = append(fields,
			zap.String("company_id", s.identity.CompanyID),
			zap.String("agent_id", s.identity.AgentID),
		)
	}
	return fields
}

func (s *CallSession) logError(msg string, err error) {
	if s.logger != nil {
		s.logger.Error(msg, append(s.fields(), zap.Error(err))...)
	}
}
