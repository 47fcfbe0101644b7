package api

import (
	"context"
	"fmt"
	"time"

	"myfridge-api/internal/api/handlers"
	"myfridge-api/internal/api/handlers/detection"
	"myfridge-api/internal/api/handlers/health"
	recipeHandler "myfridge-api/internal/api/handlers/recipe"
	"myfridge-api/internal/api/middleware"
	"myfridge-api/internal/core/cache"
	detectionService "myfridge-api/internal/core/detection"
	recipeService "myfridge-api/internal/core/recipe"
	"myfridge-api/internal/infrastructure/config"
	"myfridge-api/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	// 超時設置
	timeoutDuration = 120 * time.Second
	// multipart 表頭等額外開銷
	multipartOverhead = 1 << 20
)

// Dependencies 路由需要的服務
type Dependencies struct {
	Recipes   *recipeService.Service
	Detection *detectionService.Service
	Cache     cache.Store
	Breaker   health.Breaker
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	if deps.Recipes == nil {
		return nil, fmt.Errorf("recipe service is required")
	}
	if deps.Detection == nil {
		return nil, fmt.Errorf("detection service is required")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(common.GenerateUUID))) // 自動生成請求 ID
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:   []string{"Content-Length", "X-Request-ID"},
		MaxAge:          12 * time.Hour,
	}))

	// 請求體大小限制
	maxBodySize := cfg.Image.MaxSizeBytes + multipartOverhead
	router.Use(middleware.BodySizeLimit(maxBodySize))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	// 請求超時
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			common.LogWarn("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeoutDuration),
			)
		}
	})

	healthHandler := health.NewHandler(cfg.App.Name, cfg.App.Version, deps.Recipes, deps.Detection, deps.Cache, deps.Breaker)

	// 健康檢查路由
	router.GET("/", healthHandler.Root)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	recipes := recipeHandler.NewHandler(deps.Recipes, cfg.App.Debug)
	detect := detection.NewHandler(deps.Detection, cfg.Image.MaxSizeBytes, cfg.App.Debug)

	// API 路由組
	api := router.Group("/api")
	api.Use(middleware.Deduplication(cfg.DedupWindow))
	{
		api.POST("/detect", detect.HandleDetect)

		api.POST("/recipes/match", recipes.HandleMatch)
		api.GET("/recipes", recipes.HandleList)
		api.GET("/recipes/:id", recipes.HandleGet)

		api.GET("/ingredients", recipes.HandleIngredients)
	}

	router.NoRoute(func(c *gin.Context) {
		handlers.RespondError(c, common.ErrNotFound, cfg.App.Debug)
	})

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.Bool("detector_enabled", deps.Detection.Enabled()),
		zap.Bool("cache_enabled", deps.Cache != nil),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Int("catalog_size", deps.Recipes.CatalogSize()),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
