package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/sales-mentor/internal/usecase/session"
)

// Realtime upgrades coaching connections and hands them to a session actor
type Realtime struct {
	baseCtx  context.Context
	upgrader websocket.Upgrader
	deps     session.Dependencies
	logger   *zap.Logger
}

// NewRealtimeHandler creates the websocket handler. deps is a template: Conn
// and Params are filled per connection. Sessions are children of ctx.
func NewRealtimeHandler(ctx context.Context, allowedOrigins []string, deps session.Dependencies, logger *zap.Logger) *Realtime {
	return &Realtime{
		baseCtx: ctx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		deps:   deps,
		logger: logger,
	}
}

// Serve handles GET /v1/ws
func (h *Realtime) Serve(c echo.Context) error {
	params := session.ExtractParams(c.Request())

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		if h.logger != nil {
			h.logger.Warn("⚠️ WebSocket upgrade failed",
				zap.String("request_id", getRequestID(c)),
				zap.Error(err),
			)
		}
		return nil
	}

	deps := h.deps
	deps.Conn = conn
	deps.Params = params

	s, err := session.New(h.baseCtx, deps)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("❌ Failed to create session", zap.Error(err))
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "server error"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return nil
	}

	if err := s.Run(); err != nil && h.logger != nil {
		h.logger.Warn("⚠️ Session ended with error",
			zap.String("call_id", params.CallID),
			zap.Error(err),
		)
	}
	return nil
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}
