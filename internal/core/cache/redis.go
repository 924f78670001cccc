package cache

import (
	"context"
	"fmt"

	"recipe-shoplist/internal/infrastructure/config"
	"recipe-shoplist/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Service Redis 緩存服務
type Service struct {
	client *redis.Client
	cfg    config.CacheConfig
}

// NewService 創建緩存服務
func NewService(cfg config.CacheConfig) (*Service, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("Redis 快取已連線",
		zap.String("addr", cfg.RedisAddr),
		zap.Duration("存活時間", cfg.TTL),
	)

	return &Service{
		client: client,
		cfg:    cfg,
	}, nil
}

// Get 獲取緩存，後端故障視為未命中
func (s *Service) Get(ctx context.Context, key string) (string, bool) {
	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			common.LogWarn("Redis 讀取失敗",
				zap.String("鍵", key),
				zap.Error(err),
			)
		}
		return "", false
	}
	return data, true
}

// Set 設置緩存
func (s *Service) Set(ctx context.Context, key string, value string) error {
	if err := s.client.Set(ctx, key, value, s.cfg.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Close 關閉連線
func (s *Service) Close() error {
	return s.client.Close()
}
