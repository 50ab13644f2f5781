package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/sales-mentor/internal/adapter/repository"
	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
	httpmw "github.com/johnquangdev/sales-mentor/internal/infrastructure/http/middleware"
	callUsecase "github.com/johnquangdev/sales-mentor/internal/usecase/call"
	"github.com/johnquangdev/sales-mentor/internal/usecase/cooldown"
	"github.com/johnquangdev/sales-mentor/internal/usecase/insight"
	"github.com/johnquangdev/sales-mentor/internal/usecase/rules"
	"github.com/johnquangdev/sales-mentor/internal/usecase/session"
	"github.com/johnquangdev/sales-mentor/pkg/ai"
	"github.com/johnquangdev/sales-mentor/pkg/config"
	"github.com/johnquangdev/sales-mentor/pkg/jwt"
	"github.com/johnquangdev/sales-mentor/pkg/validator"
)

type stack struct {
	server   *httptest.Server
	db       *gorm.DB
	registry *session.Registry
	company  *entities.Company
	agent    *entities.Agent
}

// newStack serves the full API over sqlite with the static fallback generator
func newStack(t *testing.T) *stack {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&entities.Company{}, &entities.Agent{}, &entities.Call{}, &entities.Segment{}, &entities.Insight{}, &entities.Report{},
	))

	company := &entities.Company{Name: "Acme"}
	require.NoError(t, db.Create(company).Error)
	agent := &entities.Agent{CompanyID: company.ID, Name: "Ana"}
	require.NoError(t, db.Create(agent).Error)

	e := echo.New()
	e.Validator = validator.New()
	server := httptest.NewServer(e)

	callRepo := repository.NewCallRepository(db)
	segmentRepo := repository.NewSegmentRepository(db)
	insightRepo := repository.NewInsightRepository(db)
	tokens := jwt.NewManager("ws-test-secret", time.Hour)
	cooldowns := cooldown.NewManager(30 * time.Second)
	registry := session.NewRegistry(cooldowns, true, nil)
	dispatcher := insight.NewDispatcher(ai.NewFallback(), insightRepo, time.Second, time.Second, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	realtime := NewRealtimeHandler(ctx, []string{"https://app.example.com"}, session.Dependencies{
		Config:        session.Config{ContextualInterval: time.Hour},
		Authenticator: session.NewAuthenticator(tokens, callRepo, nil),
		Registry:      registry,
		Cooldowns:     cooldowns,
		Rules:         rules.DefaultTable(),
		Ingestor:      session.NewIngestor(validator.New()),
		Segments:      segmentRepo,
		Dispatcher:    dispatcher,
	}, nil)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/ws"
	reporter := callUsecase.NewReporter(segmentRepo, insightRepo, repository.NewReportRepository(db), ai.NewFallback(), time.Second, nil)
	calls := callUsecase.NewCallService(callRepo, insightRepo, reporter, tokens, registry, wsURL, nil)
	NewRouter(&config.Config{}, NewCallHandler(calls, nil), realtime, nil, httpmw.CallTokenAuth(tokens)).Setup(e)

	t.Cleanup(func() {
		registry.CancelAll(session.ReasonShutdown)
		cancel()
		server.Close()
		_ = sqlDB.Close()
	})
	return &stack{server: server, db: db, registry: registry, company: company, agent: agent}
}

func (s *stack) createCall(t *testing.T) (callID, token, wsURL string) {
	t.Helper()
	body := fmt.Sprintf(`{"company_id":%q,"agent_id":%q,"title":"Discovery"}`, s.company.ID, s.agent.ID)
	resp, err := http.Post(s.server.URL+"/v1/calls", echo.MIMEApplicationJSON, strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var env struct {
		Data struct {
			Call struct {
				ID string `json:"id"`
			} `json:"call"`
			Token string `json:"token"`
			WSURL string `json:"ws_url"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env.Data.Call.ID, env.Data.Token, env.Data.WSURL
}

func (s *stack) request(t *testing.T, method, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.server.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func readClose(t *testing.T, conn *websocket.Conn) *websocket.CloseError {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			var closeErr *websocket.CloseError
			require.ErrorAs(t, err, &closeErr)
			return closeErr
		}
	}
}

func TestRealtime_EndToEnd(t *testing.T) {
	s := newStack(t)
	callID, token, wsURL := s.createCall(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	connected := readJSON(t, conn)
	assert.Equal(t, "status", connected["event"])
	assert.Equal(t, "connected", connected["msg"])

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"event":   "client_segment",
		"call_id": callID,
		"speaker": "CLIENTE",
		"text":    "quanto custa isso por mês?",
		"source":  "TAB",
	}))
	assert.Equal(t, "received", readJSON(t, conn)["msg"])
	assert.Equal(t, "segment saved", readJSON(t, conn)["msg"])

	ev := readJSON(t, conn)
	assert.Equal(t, "insight", ev["type"])
	assert.Equal(t, "PRICE", ev["category"])
	assert.Equal(t, "quanto custa isso por mês?", ev["quote"])

	resp := s.request(t, http.MethodGet, "/v1/calls/"+callID+"/insights", token)
	var list struct {
		Data struct {
			Total int `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	assert.Equal(t, 1, list.Data.Total)

	resp = s.request(t, http.MethodPost, "/v1/calls/"+callID+"/stop", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.request(t, http.MethodPost, "/v1/calls/"+callID+"/stop", token)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	closeErr := readClose(t, conn)
	assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
	assert.Equal(t, "Call ended", closeErr.Text)

	resp = s.request(t, http.MethodGet, "/v1/calls/"+callID+"/report", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.request(t, http.MethodGet, "/v1/calls/"+callID+"/report", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report struct {
		Data struct {
			ReportMD   string `json:"report_md"`
			ReportJSON struct {
				InsightsByCategory map[string]int `json:"insights_by_category"`
			} `json:"report_json"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	resp.Body.Close()
	assert.Contains(t, report.Data.ReportMD, "quanto custa isso por mês?")
	assert.Equal(t, 1, report.Data.ReportJSON.InsightsByCategory["PRICE"])

	again, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer again.Close()
	closeErr = readClose(t, again)
	assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
	assert.Equal(t, "Call ended", closeErr.Text)
}

func TestRealtime_RejectsMissingCredentials(t *testing.T) {
	s := newStack(t)
	wsURL := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/v1/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	closeErr := readClose(t, conn)
	assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
	assert.Equal(t, "Missing call_id or token", closeErr.Text)
}

func TestRealtime_ForbiddenOrigin(t *testing.T) {
	s := newStack(t)
	_, _, wsURL := s.createCall(t)

	header := http.Header{}
	header.Set("Origin", "https://evil.example.com")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestOriginChecker(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/v1/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	assert.True(t, originChecker(nil)(req("https://any.example.com")))
	assert.True(t, originChecker([]string{"*"})(req("https://any.example.com")))
	assert.True(t, originChecker([]string{"https://app.example.com"})(req("")))
	assert.True(t, originChecker([]string{"https://app.example.com"})(req("https://APP.example.com")))
	assert.False(t, originChecker([]string{"https://app.example.com"})(req("https://other.example.com")))
}
