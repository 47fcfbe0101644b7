package detection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myfridge-api/internal/infrastructure/config"
	"myfridge-api/internal/infrastructure/metrics"
	"myfridge-api/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const breakerName = "detector"

// predictRequest 模型服務請求
type predictRequest struct {
	Image     string  `json:"image"`
	Conf      float64 `json:"conf"`
	ImageSize int     `json:"imgsz"`
}

// predictResponse 模型服務回應
type predictResponse struct {
	Detections []struct {
		ClassID    int       `json:"class_id"`
		Confidence float64   `json:"confidence"`
		Box        []float64 `json:"box"`
	} `json:"detections"`
}

// RemoteDetector 透過 HTTP 呼叫外部辨識模型，並以斷路器保護
type RemoteDetector struct {
	config config.DetectorConfig
	client *resty.Client
	cb     *gobreaker.CircuitBreaker[[]Detection]
}

// NewRemoteDetector 創建外部辨識模型客戶端
func NewRemoteDetector(cfg config.DetectorConfig, breaker config.BreakerConfig) *RemoteDetector {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json")

	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	metrics.DetectorBreakerState.Set(0)

	cb := gobreaker.NewCircuitBreaker[[]Detection](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: breaker.MaxRequests,
		Interval:    breaker.Interval,
		Timeout:     breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= breaker.FailureThreshold
			if trip {
				common.LogWarn("辨識服務斷路器開啟",
					zap.Uint32("consecutive_failures", counts.ConsecutiveFailures),
				)
			}
			return trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			common.LogInfo("斷路器狀態轉換",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.DetectorBreakerState.Set(stateToFloat(to))
			metrics.DetectorBreakerTransitions.WithLabelValues(from.String(), to.String()).Inc()
		},
	})

	common.LogInfo("辨識服務客戶端已初始化",
		zap.String("base_url", cfg.BaseURL),
		zap.String("api_key", config.MaskAPIKey(cfg.APIKey)),
		zap.Duration("timeout", cfg.Timeout),
		zap.Int("max_retries", cfg.MaxRetries),
	)

	return &RemoteDetector{
		config: cfg,
		client: client,
		cb:     cb,
	}
}

// Detect 送出圖片並回傳信心值達門檻的偵測結果
func (d *RemoteDetector) Detect(ctx context.Context, imageB64 string) ([]Detection, error) {
	start := time.Now()

	detections, err := d.cb.Execute(func() ([]Detection, error) {
		return d.predict(ctx, imageB64)
	})

	duration := time.Since(start)
	metrics.DetectionDuration.Observe(duration.Seconds())
	common.LogDetectorCall(duration, len(detections), err)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.DetectionRequests.WithLabelValues("rejected").Inc()
			return nil, common.ErrDetectorUnavailable.Wrap(err)
		}
		metrics.DetectionRequests.WithLabelValues("error").Inc()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, common.ErrGatewayTimeout.Wrap(err)
		}
		return nil, common.ErrDetectorUnavailable.Wrap(err)
	}

	metrics.DetectionRequests.WithLabelValues("success").Inc()
	return detections, nil
}

// State 斷路器目前狀態
func (d *RemoteDetector) State() string {
	return d.cb.State().String()
}

func (d *RemoteDetector) predict(ctx context.Context, imageB64 string) ([]Detection, error) {
	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(predictRequest{
			Image:     imageB64,
			Conf:      d.config.ConfidenceThreshold,
			ImageSize: d.config.ImageSize,
		}).
		Post("/predict")
	if err != nil {
		return nil, fmt.Errorf("failed to send request to detector: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("detector returned status %d", resp.StatusCode())
	}

	var result predictResponse
	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse detector response: %w", err)
	}

	detections := make([]Detection, 0, len(result.Detections))
	for _, raw := range result.Detections {
		if raw.Confidence < d.config.ConfidenceThreshold {
			continue
		}
		detections = append(detections, newDetection(raw.ClassID, raw.Confidence, raw.Box))
	}

	return detections, nil
}

func newDetection(classID int, confidence float64, box []float64) Detection {
	class := LookupClass(classID)

	d := Detection{
		Name:       class.Name,
		NameUrdu:   class.NameUrdu,
		Confidence: confidence,
		ClassID:    classID,
	}
	if class != UnknownClass {
		d.Ingredient = IngredientID(class.Name)
	}
	if len(box) == 4 {
		d.BoundingBox = []float64{box[0], box[1], box[2], box[3]}
	} else {
		d.BoundingBox = []float64{0, 0, 0, 0}
	}
	return d
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
