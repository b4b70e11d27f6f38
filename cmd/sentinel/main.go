package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"sentinel/internal/classifier"
	"sentinel/internal/config"
	"sentinel/internal/handlers"
	"sentinel/internal/middleware"
	"sentinel/internal/session"
	"sentinel/internal/storage"
	"sentinel/internal/telemetry"
	"sentinel/internal/utils"
	"sentinel/internal/version"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type App struct {
	cfg         *config.Config
	logger      *utils.Logger
	adapter     *classifier.Adapter
	source      *telemetry.Source
	store       storage.Store
	registry    *session.Registry
	sessions    *middleware.SessionService
	wsHub       *middleware.Hub
	rateLimiter *middleware.RateLimiter
	handlers    *handlers.Handlers
}

func main() {
	// Set Gin mode
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := utils.NewLogger(cfg.LogFile)
	defer logger.Close()

	// Load the classifier artifact once. Absence is non-fatal: the process
	// serves a degraded "model unavailable" state instead of refusing to start.
	var adapter *classifier.Adapter
	if model, err := classifier.Load(cfg.ModelPath); err != nil {
		logger.Writef("classifier artifact not loaded (%v); predictions will report model unavailable", err)
		adapter = classifier.NewAdapter(nil)
	} else {
		logger.Writef("classifier artifact loaded from %s", cfg.ModelPath)
		adapter = classifier.NewAdapter(model)
	}

	// Prediction history is best effort: a store that cannot be opened only
	// costs the history feed, never predictions.
	var store storage.Store
	if cfg.HistoryDSN != "" {
		s, err := storage.NewSQLite(cfg.HistoryDSN)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err = s.Init(ctx)
			cancel()
		}
		if err != nil {
			logger.Writef("history store unavailable (%v); continuing without history", err)
		} else {
			store = s
			defer store.Close()
		}
	}

	source := telemetry.NewSource()
	wsHub := middleware.NewHub(logger)
	go wsHub.Run()

	registry := session.NewRegistry(session.Deps{
		Sampler:   source,
		Predictor: adapter,
		Recorder:  store,
		Publisher: wsHub,
		Interval:  cfg.PollInterval(),
		Logger:    logger,
	}, cfg.SessionTTL())

	app := &App{
		cfg:         cfg,
		logger:      logger,
		adapter:     adapter,
		source:      source,
		store:       store,
		registry:    registry,
		sessions:    middleware.NewSessionService(logger.Write),
		wsHub:       wsHub,
		rateLimiter: middleware.NewRateLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), cfg.RateBurst),
	}
	app.handlers = handlers.New(registry, adapter, source, store, logger, cfg.PollInterval())

	r := setupRouter(app)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		log.Printf("Starting sentinel %s on port %d", version.String(), cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop live monitors before the listener so no tick publishes into a
	// closing hub.
	app.registry.Stop()
	app.rateLimiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

func setupRouter(app *App) *gin.Engine {
	r := gin.New()

	// Add recovery middleware
	r.Use(gin.Recovery())

	// Add custom logging middleware
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))

	// Security middleware
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	r.Use(app.rateLimiter.Middleware())

	r.LoadHTMLGlob("templates/*")
	r.Static("/static", "./static")

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.String(), "model_loaded": app.adapter.Available()})
	})

	// Stateless scoring endpoint; no session required.
	r.POST("/predict", app.handlers.PredictPOST)

	// Everything interactive runs under a session cookie.
	web := r.Group("/")
	web.Use(app.sessions.EnsureSession())
	{
		web.GET("/", app.handlers.Dashboard)
		web.GET("/ws", app.wsHub.HandleWebSocket())

		api := web.Group("/api")
		{
			api.GET("/session", app.handlers.SessionGET)
			api.POST("/session/mode", app.handlers.SessionModePOST)
			api.POST("/session/start", app.handlers.SessionStartPOST)
			api.POST("/session/stop", app.handlers.SessionStopPOST)
			api.POST("/session/analyze", app.handlers.SessionAnalyzePOST)
			api.GET("/metrics", app.handlers.MetricsGET)
			api.GET("/history", app.handlers.HistoryGET)
		}
	}

	return r
}
