package health

import (
	"net/http"
	"runtime"
	"time"

	"myfridge-api/internal/core/cache"
	"myfridge-api/internal/core/detection"
	"myfridge-api/internal/core/recipe"
	"myfridge-api/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Version     string                 `json:"version"`
	Uptime      string                 `json:"uptime"`
	CatalogSize int                    `json:"catalog_size"`
	Detector    DetectorStatus         `json:"detector"`
	Runtime     map[string]interface{} `json:"runtime"`
	Queue       *detection.Status      `json:"queue,omitempty"`
	Cache       map[string]interface{} `json:"cache,omitempty"`
}

// DetectorStatus 辨識功能狀態
type DetectorStatus struct {
	Enabled bool   `json:"enabled"`
	Breaker string `json:"breaker,omitempty"`
}

// Breaker 可回報斷路器狀態的元件
type Breaker interface {
	State() string
}

// Handler 健康檢查處理程序
type Handler struct {
	name      string
	version   string
	started   time.Time
	recipes   *recipe.Service
	detection *detection.Service
	cache     cache.Store
	breaker   Breaker
}

// NewHandler 創建健康檢查處理程序；cache 與 breaker 可為 nil
func NewHandler(name, version string, recipes *recipe.Service, det *detection.Service, store cache.Store, breaker Breaker) *Handler {
	return &Handler{
		name:      name,
		version:   version,
		started:   time.Now(),
		recipes:   recipes,
		detection: det,
		cache:     store,
		breaker:   breaker,
	}
}

// Root 服務資訊
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": h.name,
		"status":  "running",
		"version": h.version,
	})
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now(),
		Version:     h.version,
		Uptime:      time.Since(h.started).Round(time.Second).String(),
		CatalogSize: h.recipes.CatalogSize(),
		Detector: DetectorStatus{
			Enabled: h.detection.Enabled(),
			Breaker: h.breakerState(),
		},
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Queue: h.detection.QueueStatus(),
	}

	if h.cache != nil {
		response.Cache = h.cache.Stats()
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器：目錄已載入且辨識服務斷路器未開啟
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.recipes == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "recipe catalog not loaded",
		})
		return
	}

	if h.breakerState() == "open" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "detector circuit breaker open",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (h *Handler) breakerState() string {
	if h.breaker == nil {
		return ""
	}
	return h.breaker.State()
}
