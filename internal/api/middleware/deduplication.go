package middleware

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"time"

	"myfridge-api/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 預設去重時間窗口
const defaultDedupWindow = time.Second

// deduplicator 記錄近期 POST 請求的指紋
type deduplicator struct {
	mu       sync.Mutex
	window   time.Duration
	requests map[string]time.Time
}

func newDeduplicator(window time.Duration) *deduplicator {
	if window <= 0 {
		window = defaultDedupWindow
	}
	return &deduplicator{
		window:   window,
		requests: make(map[string]time.Time),
	}
}

// seen 回報指紋是否在時間窗口內出現過，並記錄本次請求
func (d *deduplicator) seen(fingerprint string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.requests[fingerprint]; ok && now.Sub(last) <= d.window {
		return true
	}
	d.requests[fingerprint] = now
	return false
}

func (d *deduplicator) cleanup(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for k, t := range d.requests {
		if now.Sub(t) > 10*d.window {
			delete(d.requests, k)
		}
	}
}

// Deduplication 請求去重中間件：同一路徑與內容的 POST 在 window 內只處理一次
func Deduplication(window time.Duration) gin.HandlerFunc {
	d := newDeduplicator(window)

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for now := range ticker.C {
			d.cleanup(now)
		}
	}()

	return func(c *gin.Context) {
		// 只處理 POST 請求
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		// 生成請求指紋
		fingerprint := c.Request.Method + ":" + c.Request.URL.Path
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogWarn("Failed to read request body", zap.Error(err))
				abortWithError(c, common.ErrPayloadTooLarge)
				return
			}

			// 恢復請求體
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
			fingerprint += ":" + common.HashBytes(body)
		}

		if d.seen(fingerprint, time.Now()) {
			common.LogInfo("Duplicate request rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()),
			)
			abortWithError(c, common.ErrTooManyRequests.WithMessage("Request too frequent"))
			return
		}

		c.Next()
	}
}
