package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"myfridge-api/internal/api"
	"myfridge-api/internal/core/cache"
	"myfridge-api/internal/core/detection"
	"myfridge-api/internal/core/image"
	"myfridge-api/internal/core/recipe"
	"myfridge-api/internal/infrastructure/config"
	"myfridge-api/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.Server.Port),
		zap.String("catalog_path", cfg.Catalog.Path),
		zap.Float64("min_match", cfg.Matching.MinMatch),
		zap.Bool("detector_enabled", cfg.Detector.Enabled),
		zap.String("detector_api_key", config.MaskAPIKey(cfg.Detector.APIKey)),
		zap.String("cache_backend", cfg.Cache.Backend),
	)

	// 載入食譜目錄，失敗時無法提供服務
	catalog, err := recipe.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		common.LogFatal("Failed to load recipe catalog",
			zap.String("path", cfg.Catalog.Path),
			zap.Error(err),
		)
	}
	recipes := recipe.NewService(catalog, cfg.Matching)

	// 初始化快取
	store, err := cache.NewStore(cfg)
	if err != nil {
		common.LogFatal("Failed to initialize cache", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
	}

	// 初始化辨識服務
	deps := api.Dependencies{
		Recipes: recipes,
		Cache:   store,
	}

	var queue *detection.Queue
	if cfg.Detector.Enabled {
		detector := detection.NewRemoteDetector(cfg.Detector, cfg.Breaker)
		queue = detection.NewQueue(cfg.Queue, detector)
		queue.Start()
		deps.Breaker = detector
	} else {
		common.LogWarn("Food detection disabled, /api/detect will return 503")
	}
	deps.Detection = detection.NewService(image.NewService(cfg.Image), store, queue)

	// 設置路由
	router, err := api.SetupRouter(cfg, deps)
	if err != nil {
		common.LogFatal("Failed to setup router", zap.Error(err))
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.App.Version),
			zap.Bool("debug", cfg.App.Debug),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	if queue != nil {
		queue.Stop()
	}

	common.LogInfo("Server exited")
}
