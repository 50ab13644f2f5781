package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/sales-mentor/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg             *config.Config
	callHandler     *Call
	realtimeHandler *Realtime
	metricsHandler  http.Handler
	callAuth        echo.MiddlewareFunc
}

// NewRouter creates a new router with all handlers. callAuth guards the
// per-call routes; nil leaves them open.
func NewRouter(cfg *config.Config, callHandler *Call, realtimeHandler *Realtime, metricsHandler http.Handler, callAuth echo.MiddlewareFunc) *Router {
	return &Router{
		cfg:             cfg,
		callHandler:     callHandler,
		realtimeHandler: realtimeHandler,
		metricsHandler:  metricsHandler,
		callAuth:        callAuth,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)
	if rt.metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(rt.metricsHandler))
	}

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupRealtimeRoutes(v1)
	rt.setupCallRoutes(v1)
}

// setupRealtimeRoutes configures the coaching websocket
func (rt *Router) setupRealtimeRoutes(g *echo.Group) {
	if rt.realtimeHandler != nil {
		g.GET("/ws", rt.realtimeHandler.Serve)
	} else {
		g.GET("/ws", rt.notImplemented)
	}
}

// setupCallRoutes configures call lifecycle routes
func (rt *Router) setupCallRoutes(g *echo.Group) {
	callGroup := g.Group("/calls")

	var perCall []echo.MiddlewareFunc
	if rt.callAuth != nil {
		perCall = append(perCall, rt.callAuth)
	}

	if rt.callHandler != nil {
		callGroup.POST("", rt.callHandler.CreateCall)
		callGroup.GET("/:call_id", rt.callHandler.GetCall, perCall...)
		callGroup.POST("/:call_id/stop", rt.callHandler.StopCall, perCall...)
		callGroup.GET("/:call_id/insights", rt.callHandler.ListInsights, perCall...)
		callGroup.GET("/:call_id/report", rt.callHandler.GetReport, perCall...)
	} else {
		callGroup.POST("", rt.notImplemented)
		callGroup.GET("/:call_id", rt.notImplemented)
		callGroup.POST("/:call_id/stop", rt.notImplemented)
		callGroup.GET("/:call_id/insights", rt.notImplemented)
		callGroup.GET("/:call_id/report", rt.notImplemented)
	}
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":   "This endpoint is not yet implemented",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
		"message": "Please initialize the required handler in main.go",
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	env := "development"
	if rt.cfg != nil {
		env = rt.cfg.Server.Environment
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":          true,
		"status":      "ok",
		"environment": env,
	})
}
