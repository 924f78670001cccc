package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"recipe-shoplist/internal/core/ai/provider"
	"recipe-shoplist/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Request 隊列請求
type Request struct {
	Context context.Context
	Request *provider.Request
	Result  chan Result
}

// Result 處理結果
type Result struct {
	Response *provider.Response
	Error    error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int `json:"queue_length"`
	ProcessedCount int `json:"processed_count"`
	MaxQueueSize   int `json:"max_queue_size"`
	Workers        int `json:"workers"`
}

// Manager AI 請求隊列管理器
// 固定數量的 worker 消化請求，全程序共用一個 rate.Limiter，
// 確保對提供者的 RPM 上限不因並行食材數而超出
type Manager struct {
	prov      provider.Provider
	limiter   *rate.Limiter
	queue     chan *Request
	done      chan struct{}
	workers   int
	maxSize   int
	processed int64
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewManager 創建隊列管理器並啟動 worker
func NewManager(prov provider.Provider, limiter *rate.Limiter, workers, maxSize int) *Manager {
	m := &Manager{
		prov:    prov,
		limiter: limiter,
		queue:   make(chan *Request, maxSize),
		done:    make(chan struct{}),
		workers: workers,
		maxSize: maxSize,
	}

	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}

	common.LogInfo("AI 隊列已啟動",
		zap.Int("workers", workers),
		zap.Int("max_queue_size", maxSize),
	)

	return m
}

// worker 消化隊列，先通過限流器再呼叫提供者
func (m *Manager) worker(id int) {
	defer m.wg.Done()

	for {
		select {
		case req, ok := <-m.queue:
			if !ok {
				return
			}
			m.process(req)
		case <-m.done:
			return
		}
	}
}

func (m *Manager) process(req *Request) {
	if err := m.limiter.Wait(req.Context); err != nil {
		req.Result <- Result{Error: err}
		return
	}

	resp, err := m.prov.Generate(req.Context, req.Request)
	atomic.AddInt64(&m.processed, 1)
	req.Result <- Result{Response: resp, Error: err}
}

// Enqueue 將請求加入隊列並等待結果
func (m *Manager) Enqueue(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	// 檢查隊列容量
	if len(m.queue) >= m.maxSize {
		return nil, common.WrapError(common.ErrProviderUnavailable, fmt.Errorf("queue is full"))
	}

	queueReq := &Request{
		Context: ctx,
		Request: req,
		Result:  make(chan Result, 1),
	}

	select {
	case m.queue <- queueReq:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.done:
		return nil, fmt.Errorf("queue manager is closed")
	}

	select {
	case res := <-queueReq.Result:
		return res.Response, res.Error
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		QueueLength:    len(m.queue),
		ProcessedCount: int(atomic.LoadInt64(&m.processed)),
		MaxQueueSize:   m.maxSize,
		Workers:        m.workers,
	}
}

// Close 關閉隊列管理器並等待 worker 結束
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
	})
}
