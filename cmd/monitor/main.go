package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"insiderwatch/internal/client/edgar"
	"insiderwatch/internal/client/marketdata"
	"insiderwatch/internal/config"
	cronrunner "insiderwatch/internal/cron"
	"insiderwatch/internal/db"
	"insiderwatch/internal/handler"
	"insiderwatch/internal/logger"
	gormrepository "insiderwatch/internal/repository/gorm"
	"insiderwatch/internal/resolver"
	"insiderwatch/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("IW_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	envOnly := false
	if envOnlyRaw := os.Getenv("IW_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.Ping(dbConn); err != nil {
		logger.Fatal("db unreachable", zap.Error(err))
	}
	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	archiveClient := edgar.NewClient(cfg.Edgar)
	marketClient := marketdata.NewClient(cfg.MarketData)
	tickerResolver := &resolver.Resolver{Source: archiveClient, Logger: logger}

	settingsSvc := &service.FilterSettingsService{
		Repo:     store,
		Defaults: cfg.Filters,
		Logger:   logger,
	}
	if err := settingsSvc.EnsureDefaults(context.Background()); err != nil {
		logger.Warn("seeding filter settings failed", zap.Error(err))
	}

	poller := &service.Poller{
		Archive:  archiveClient,
		Market:   marketClient,
		Resolver: tickerResolver,
		Repo:     store,
		Settings: settingsSvc,
		Logger:   logger,
		Config:   cfg.Poller,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	oppHandler := &handler.OpportunityHandler{Repo: store}
	oppHandler.Register(engine)
	pollerHandler := &handler.PollerHandler{Poller: poller}
	pollerHandler.Register(engine)
	settingsHandler := &handler.SettingsHandler{Settings: settingsSvc}
	settingsHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := poller.Start(ctx, cfg.Poller.Interval); err != nil {
		logger.Fatal("poller start failed", zap.Error(err))
	}
	defer poller.Stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.Add(cfg.Cron.DailyCatchup, "daily-index-catchup", func(ctx context.Context) {
			// Sweep yesterday; today's index is usually still incomplete.
			day := time.Now().UTC().AddDate(0, 0, -1)
			if err := poller.CatchUpDailyIndex(ctx, day); err != nil {
				logger.Warn("daily index catch-up failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register daily catch-up failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
