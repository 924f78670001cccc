package provider

import (
	"context"
	"sync/atomic"
	"time"
)

// Stub 確定性的測試用提供者
// GenerateFunc 未設定時回傳固定內容；Calls 記錄 Generate 呼叫次數
type Stub struct {
	GenerateFunc func(ctx context.Context, req *Request) (*Response, error)
	Model        string
	calls        int64
}

// NewStub 創建測試用提供者
func NewStub() *Stub {
	return &Stub{Model: "stub"}
}

// Generate 生成 AI 響應
func (s *Stub) Generate(ctx context.Context, req *Request) (*Response, error) {
	atomic.AddInt64(&s.calls, 1)
	if s.GenerateFunc != nil {
		return s.GenerateFunc(ctx, req)
	}
	return &Response{Content: "{}"}, nil
}

// Calls 回傳 Generate 被呼叫的次數
func (s *Stub) Calls() int {
	return int(atomic.LoadInt64(&s.calls))
}

// GetModel 獲取當前使用的模型名稱
func (s *Stub) GetModel() string {
	if s.Model == "" {
		return "stub"
	}
	return s.Model
}

// GetTimeout 獲取請求超時時間
func (s *Stub) GetTimeout() time.Duration {
	return time.Second
}

// Close 關閉提供者連接
func (s *Stub) Close() error {
	return nil
}
