package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/johnquangdev/sales-mentor/pkg/validator"

	"github.com/johnquangdev/sales-mentor/internal/adapter/handler"
	"github.com/johnquangdev/sales-mentor/internal/adapter/repository"
	"github.com/johnquangdev/sales-mentor/internal/infrastructure/database"
	httpmw "github.com/johnquangdev/sales-mentor/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/sales-mentor/internal/usecase/call"
	"github.com/johnquangdev/sales-mentor/internal/usecase/cooldown"
	"github.com/johnquangdev/sales-mentor/internal/usecase/insight"
	"github.com/johnquangdev/sales-mentor/internal/usecase/rules"
	"github.com/johnquangdev/sales-mentor/internal/usecase/session"
	pkgai "github.com/johnquangdev/sales-mentor/pkg/ai"
	"github.com/johnquangdev/sales-mentor/pkg/config"
	"github.com/johnquangdev/sales-mentor/pkg/jwt"
	"github.com/johnquangdev/sales-mentor/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Root context of every live session
	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(appCtx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping migrations; run `coachctl migrate up` to manage the schema")
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	callRepo := repository.NewCallRepository(db)
	segmentRepo := repository.NewSegmentRepository(db)
	insightRepo := repository.NewInsightRepository(db)

	// Keyword rules
	log.Println("📋 Loading keyword rules...")
	ruleTable, err := rules.NewTable(rules.DefaultTable().Rules(), cfg.Insights.DefaultCategoryCooldown)
	if err != nil {
		log.Fatalf("Failed to build rule table: %v", err)
	}
	if cfg.Insights.RulesFile != "" {
		ruleTable, err = rules.LoadFile(cfg.Insights.RulesFile, cfg.Insights.DefaultCategoryCooldown)
		if err != nil {
			log.Fatalf("Failed to load rules file: %v", err)
		}
		log.Printf("✅ Loaded %d rules from %s", len(ruleTable.Rules()), cfg.Insights.RulesFile)
	}

	// Cooldown state
	cooldowns := cooldown.NewManager(cfg.Insights.GlobalCooldown)
	var janitor *cooldown.Janitor
	if !cfg.Insights.ResetCooldownOnDisconnect {
		janitor, err = cooldown.NewJanitor(cooldowns, cfg.Insights.JanitorSchedule, cfg.Insights.CooldownRetention, logger)
		if err != nil {
			log.Fatalf("Failed to schedule cooldown janitor: %v", err)
		}
		janitor.Start()
		log.Printf("🧹 Cooldown janitor scheduled (%s)", cfg.Insights.JanitorSchedule)
	}

	// Metrics
	m := metrics.New("sales_mentor")

	// Initialize generation capability
	log.Println("🤖 Initializing AI components...")
	var generator insight.Generator
	var reportWriter call.ReportWriter
	chatClient := pkgai.NewChatClient(&cfg.LLM)
	if chatClient.Configured() {
		generator = pkgai.NewCoach(chatClient, logger)
		// Reports are long-form, so they get their own HTTP deadline
		reportLLM := cfg.LLM
		reportLLM.Timeout = cfg.Insights.ReportTimeout
		reportWriter = pkgai.NewCoach(pkgai.NewChatClient(&reportLLM), logger)
		log.Printf("✅ LLM coach using model %s", chatClient.Model())
	} else {
		fallback := pkgai.NewFallback()
		generator = fallback
		reportWriter = fallback
		log.Println("⚠️  LLM_API_KEY not set, serving static fallback cards")
	}
	dispatcher := insight.NewDispatcher(
		generator,
		insightRepo,
		cfg.Insights.GenerationTimeout,
		cfg.Insights.PersistTimeout,
		m,
		logger,
	)

	// Initialize JWT manager
	log.Println("🔑 Initializing JWT manager...")
	jwtManager := jwt.NewManager(cfg.JWT.SessionSecret, cfg.JWT.SessionExpiry)

	// Session engine
	log.Println("🎧 Initializing session engine...")
	registry := session.NewRegistry(cooldowns, cfg.Insights.ResetCooldownOnDisconnect, logger)
	realtimeHandler := handler.NewRealtimeHandler(appCtx, cfg.Server.AllowedOrigins, session.Dependencies{
		Config: session.Config{
			ContextualInterval:    cfg.Insights.ContextualInterval,
			ContextualWindow:      cfg.Insights.ContextualWindow,
			MinContextualSegments: cfg.Insights.MinContextualSegments,
			RecentContextLines:    cfg.Insights.RecentContextLines,
			PersistTimeout:        cfg.Insights.PersistTimeout,
			WriteTimeout:          cfg.WebSocket.WriteTimeout,
			PingInterval:          cfg.WebSocket.PingInterval,
			ReadLimit:             cfg.WebSocket.ReadLimit,
		},
		Authenticator: session.NewAuthenticator(jwtManager, callRepo, logger),
		Registry:      registry,
		Cooldowns:     cooldowns,
		Rules:         ruleTable,
		Ingestor:      session.NewIngestor(pkgvalidator.New()),
		Segments:      segmentRepo,
		Dispatcher:    dispatcher,
		Metrics:       m,
		Logger:        logger,
	}, logger)

	// Initialize call service
	log.Println("📞 Initializing call service...")
	reporter := call.NewReporter(segmentRepo, insightRepo, repository.NewReportRepository(db), reportWriter, cfg.Insights.ReportTimeout, logger)
	callService := call.NewCallService(callRepo, insightRepo, reporter, jwtManager, registry, cfg.Server.PublicWSURL, logger)
	callHandler := handler.NewCallHandler(callService, logger)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, callHandler, realtimeHandler, m.Handler(), httpmw.CallTokenAuth(jwtManager))
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)
		log.Printf("🔌 Coaching socket: %s", cfg.Server.PublicWSURL)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// Hijacked websocket connections are not tracked by e.Shutdown
	if n := registry.CancelAll(session.ReasonShutdown); n > 0 {
		log.Printf("👋 Closing %d live sessions...", n)
	}
	if !registry.Wait(ctx) {
		log.Println("⚠️  Live sessions did not drain before the deadline")
	}
	stopApp()

	if janitor != nil {
		<-janitor.Stop().Done()
	}

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
