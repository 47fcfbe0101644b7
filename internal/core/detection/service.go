package detection

import (
	"context"
	"errors"

	"myfridge-api/internal/core/cache"
	"myfridge-api/internal/core/image"
	"myfridge-api/internal/infrastructure/metrics"
	"myfridge-api/internal/pkg/common"

	"go.uber.org/zap"
)

const cacheKeyPrefix = "detect:"

// Service 圖片辨識流程：驗證、快取、排隊、呼叫模型
type Service struct {
	images *image.Service
	cache  cache.Store
	queue  *Queue
}

// NewService 創建辨識服務；queue 為 nil 表示辨識功能關閉，cache 可為 nil
func NewService(images *image.Service, store cache.Store, queue *Queue) *Service {
	return &Service{
		images: images,
		cache:  store,
		queue:  queue,
	}
}

// Enabled 辨識功能是否開啟
func (s *Service) Enabled() bool {
	return s.queue != nil
}

// QueueStatus 隊列狀態；功能關閉時回傳 nil
func (s *Service) QueueStatus() *Status {
	if s.queue == nil {
		return nil
	}
	status := s.queue.Status()
	return &status
}

// Detect 辨識上傳圖片中的食材
func (s *Service) Detect(ctx context.Context, filename string, data []byte) ([]Detection, error) {
	upload, err := s.images.Validate(filename, data)
	if err != nil {
		return nil, err
	}

	if !s.Enabled() {
		return nil, common.ErrDetectorDisabled
	}

	key := cacheKeyPrefix + common.HashBytes(data)
	if cached, ok := s.lookup(ctx, key); ok {
		return cached, nil
	}

	imageB64, err := image.EncodeForDetector(upload)
	if err != nil {
		return nil, common.ErrInvalidImageFormat.Wrap(err)
	}

	resultCh, err := s.queue.Enqueue(ctx, imageB64)
	if err != nil {
		metrics.DetectionRequests.WithLabelValues("rejected").Inc()
		return nil, err
	}

	var result Result
	select {
	case result = <-resultCh:
	case <-ctx.Done():
		return nil, common.ErrRequestTimeout.Wrap(ctx.Err())
	}

	if result.Error != nil {
		var ce *common.CustomError
		if errors.As(result.Error, &ce) {
			return nil, result.Error
		}
		if errors.Is(result.Error, context.DeadlineExceeded) || errors.Is(result.Error, context.Canceled) {
			return nil, common.ErrRequestTimeout.Wrap(result.Error)
		}
		return nil, common.ErrDetectorUnavailable.Wrap(result.Error)
	}

	detections := result.Detections
	if detections == nil {
		detections = []Detection{}
	}

	s.store(ctx, key, detections)

	common.LogInfo("食材辨識完成",
		zap.String("filename", filename),
		zap.Int("detected", len(detections)),
		zap.Strings("ingredients", Ingredients(detections)),
	)

	return detections, nil
}

func (s *Service) lookup(ctx context.Context, key string) ([]Detection, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, common.ErrCacheMiss) {
			common.LogWarn("讀取辨識快取失敗", zap.Error(err))
		}
		metrics.DetectionCacheLookups.WithLabelValues("miss").Inc()
		common.LogCacheMiss("detection")
		return nil, false
	}

	var detections []Detection
	if err := common.ParseJSON(raw, &detections); err != nil {
		common.LogWarn("辨識快取內容無法解析", zap.Error(err))
		metrics.DetectionCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	metrics.DetectionCacheLookups.WithLabelValues("hit").Inc()
	common.LogCacheHit("detection")
	return detections, true
}

func (s *Service) store(ctx context.Context, key string, detections []Detection) {
	if s.cache == nil {
		return
	}

	raw, err := common.ToJSON(detections)
	if err != nil {
		common.LogWarn("辨識結果序列化失敗", zap.Error(err))
		return
	}

	if err := s.cache.Set(ctx, key, raw); err != nil {
		common.LogWarn("寫入辨識快取失敗", zap.Error(err))
	}
}
