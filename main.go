package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/lootsim/api/rest"
	"github.com/kasuganosora/lootsim/audit"
	"github.com/kasuganosora/lootsim/cache"
	"github.com/kasuganosora/lootsim/config"
	dbadapter "github.com/kasuganosora/lootsim/db"
	"github.com/kasuganosora/lootsim/game/sim"
	"github.com/kasuganosora/lootsim/logging"
	mw "github.com/kasuganosora/lootsim/middleware"
	"github.com/kasuganosora/lootsim/model"
	"github.com/kasuganosora/lootsim/resource"
	"github.com/kasuganosora/lootsim/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	logger, err := logging.New(cfg.Log, cfg.Server.Debug)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}
	if cfg.Security.JWTSecret == "" {
		logger.Fatal("security.jwt_secret must be set")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database, logger)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	if err := model.AutoMigrate(db); err != nil {
		logger.Fatal("db migrate failed", zap.Error(err))
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Run log ----
	runLog := audit.New(db, logger, audit.Options{
		BatchSize:     cfg.Audit.BatchSize,
		FlushInterval: cfg.Audit.FlushInterval,
	})
	defer runLog.Stop(context.Background())

	// ---- Cache ----
	c, err := cache.NewCache(cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
	})
	if err != nil {
		logger.Fatal("cache init failed", zap.Error(err))
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Game data ----
	res := resource.NewLoader(cfg.Game.DataPath)
	if cfg.Game.CurrencyItemID != "" {
		res.CurrencyItemID = cfg.Game.CurrencyItemID
	}
	if err := res.Load(); err != nil {
		logger.Fatal("game data load failed", zap.String("path", cfg.Game.DataPath), zap.Error(err))
	}
	if err := res.Validate(); err != nil {
		logger.Warn("game data has dangling references", zap.Error(err))
	}
	zones, monsters, items, market := res.Counts()
	logger.Info("game data loaded",
		zap.Int("zones", zones), zap.Int("monsters", monsters),
		zap.Int("items", items), zap.Int("market", market))

	// ---- Simulation ----
	engine := sim.NewEngine(res, cfg.Game.Seed, logger)
	store := sim.NewSnapshotStore(c, res, cfg.Game.SnapshotTTL, logger)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()
	if cfg.Game.MarketRefresh > 0 {
		sched.AddTicker("market_refresh", cfg.Game.MarketRefresh, res.ReloadMarket)
	}

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok", "market_time": res.MarketTime()})
	})

	authH := apirest.NewAuthHandler(db, c, cfg.Security, cfg.Game.MaxKPH)
	zoneH := apirest.NewZoneHandler(res)
	simH := apirest.NewSimHandler(db, res, engine, store, runLog, cfg.Game, logger)
	priceH := apirest.NewPriceHandler(db, res)
	adminH := apirest.NewAdminHandler(res, sched, runLog, logger)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(cfg.Security, c), authH.Refresh)

		accountG := api.Group("/account")
		accountG.Use(mw.Auth(cfg.Security, c))
		accountG.GET("", authH.Me)
		accountG.PUT("", authH.UpdateSettings)

		zonesG := api.Group("/zones")
		zonesG.Use(mw.Auth(cfg.Security, c))
		zonesG.GET("", zoneH.List)
		zonesG.GET("/:zone", zoneH.Get)
		zonesG.GET("/:zone/encounters", simH.Encounters)
		zonesG.GET("/:zone/loot", simH.Loot)

		pricesG := api.Group("/prices")
		pricesG.Use(mw.Auth(cfg.Security, c))
		pricesG.GET("", priceH.List)
		pricesG.PUT("/:item", priceH.Put)
		pricesG.DELETE("/:item", priceH.Delete)

		adminG := api.Group("/admin")
		adminG.Use(mw.IPWhitelist(cfg.Server.AdminIPs), mw.AdminKey(cfg.Server.AdminKey))
		adminG.POST("/reload", adminH.Reload)
		adminG.POST("/market/refresh", adminH.RefreshMarket)
		adminG.GET("/runs", adminH.ListRuns)
		adminG.GET("/scheduler", adminH.ListSchedulerTasks)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}
