package detection

import (
	"context"
	"sync"
	"sync/atomic"

	"myfridge-api/internal/infrastructure/config"
	"myfridge-api/internal/infrastructure/metrics"
	"myfridge-api/internal/pkg/common"

	"go.uber.org/zap"
)

// Job 隊列中的辨識工作
type Job struct {
	Context context.Context
	Image   string
	Result  chan Result
}

// Result 處理結果
type Result struct {
	Detections []Detection
	Error      error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int  `json:"queue_length"`
	ProcessedCount int  `json:"processed_count"`
	MaxQueueSize   int  `json:"max_queue_size"`
	Workers        int  `json:"workers"`
	Running        bool `json:"running"`
}

// Queue 有界的辨識工作隊列，由固定數量的 worker 消化
type Queue struct {
	config    config.QueueConfig
	detector  Detector
	jobs      chan *Job
	done      chan struct{}
	processed int64
	running   int32
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewQueue 創建新的隊列
func NewQueue(cfg config.QueueConfig, detector Detector) *Queue {
	return &Queue{
		config:   cfg,
		detector: detector,
		jobs:     make(chan *Job, cfg.MaxSize),
		done:     make(chan struct{}),
	}
}

// Start 啟動 worker
func (q *Queue) Start() {
	q.startOnce.Do(func() {
		atomic.StoreInt32(&q.running, 1)
		for i := 0; i < q.config.Workers; i++ {
			q.wg.Add(1)
			go q.worker(i)
		}
		common.LogInfo("辨識隊列已啟動",
			zap.Int("workers", q.config.Workers),
			zap.Int("max_queue_size", q.config.MaxSize),
		)
	})
}

// Enqueue 將工作加入隊列；隊列已滿時立即回傳 ErrQueueFull
func (q *Queue) Enqueue(ctx context.Context, imageB64 string) (<-chan Result, error) {
	select {
	case <-q.done:
		return nil, common.ErrServiceUnavailable.WithMessage("detection queue is closed")
	default:
	}

	job := &Job{
		Context: ctx,
		Image:   imageB64,
		Result:  make(chan Result, 1),
	}

	select {
	case q.jobs <- job:
		metrics.DetectionQueueLength.Set(float64(len(q.jobs)))
		common.LogDebug("Request enqueued",
			zap.Int("queue_length", len(q.jobs)),
			zap.Int("max_queue_size", q.config.MaxSize),
		)
		return job.Result, nil
	default:
		common.LogWarn("辨識隊列已滿",
			zap.Int("max_queue_size", q.config.MaxSize),
		)
		return nil, common.ErrQueueFull
	}
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()

	for {
		select {
		case <-q.done:
			return
		case job := <-q.jobs:
			metrics.DetectionQueueLength.Set(float64(len(q.jobs)))
			q.process(id, job)
		}
	}
}

func (q *Queue) process(id int, job *Job) {
	defer atomic.AddInt64(&q.processed, 1)

	// 呼叫端已放棄的工作不送出
	if err := job.Context.Err(); err != nil {
		common.LogDebug("Skipping cancelled detection job", zap.Int("worker", id))
		job.Result <- Result{Error: err}
		return
	}

	detections, err := q.detector.Detect(job.Context, job.Image)
	job.Result <- Result{Detections: detections, Error: err}
}

// Status 獲取隊列狀態
func (q *Queue) Status() Status {
	return Status{
		QueueLength:    len(q.jobs),
		ProcessedCount: int(atomic.LoadInt64(&q.processed)),
		MaxQueueSize:   q.config.MaxSize,
		Workers:        q.config.Workers,
		Running:        atomic.LoadInt32(&q.running) == 1,
	}
}

// Stop 停止 worker 並等待進行中的工作結束
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.done)
		q.wg.Wait()
		atomic.StoreInt32(&q.running, 0)

		// 尚未處理的工作直接回覆
		for {
			select {
			case job := <-q.jobs:
				job.Result <- Result{Error: common.ErrServiceUnavailable.WithMessage("detection queue is closed")}
				continue
			default:
			}
			break
		}
		metrics.DetectionQueueLength.Set(0)
		common.LogInfo("辨識隊列已停止",
			zap.Int64("processed", atomic.LoadInt64(&q.processed)),
		)
	})
}
