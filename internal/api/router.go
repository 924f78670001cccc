package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"recipe-shoplist/internal/api/handlers/health"
	shoplistHandler "recipe-shoplist/internal/api/handlers/shoplist"
	"recipe-shoplist/internal/api/middleware"
	aiService "recipe-shoplist/internal/core/ai/service"
	"recipe-shoplist/internal/core/cache"
	"recipe-shoplist/internal/core/shoplist"
	"recipe-shoplist/internal/core/store"
	"recipe-shoplist/internal/core/web"
	"recipe-shoplist/internal/infrastructure/config"
	"recipe-shoplist/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 超時設置：管線含多次 AI 呼叫
	timeoutDuration = 120 * time.Second
	// 請求體大小限制 (1MB)，請求只帶 URL 與策略
	maxBodySize = 1 << 20
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, cacheSvc cache.Cache, aiSvc *aiService.Service) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(maxBodySize))

	// 限流與去重
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	router.Use(middleware.Deduplication(cfg))

	common.LogInfo("Initializing services",
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Int("ai_workers", cfg.AI.Workers),
		zap.String("model", cfg.OpenRouter.Model),
		zap.String("region", cfg.Shop.Region),
	)

	// 商店轉接器
	stores := make([]common.Store, 0, len(cfg.Shop.Stores))
	for _, s := range cfg.Shop.Stores {
		stores = append(stores, common.Store(s))
	}
	adapters, err := store.NewAdapters(store.Region(cfg.Shop.Region), stores, cacheSvc, cfg.Shop.SearchTimeout, cfg.Shop.SearchLimit)
	if err != nil {
		common.LogError("Failed to initialize store adapters", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize store adapters: %w", err)
	}

	// 管線組件
	fetcher := web.NewFetcher(cacheSvc, cfg.Shop.SearchTimeout)
	matcher := shoplist.NewMatcher(aiSvc, cfg.Shop.MatchHighThreshold, cfg.Shop.MatchLowThreshold)
	optimizer := shoplist.NewOptimizer(cfg.Shop.TravelCost)
	shopSvc := shoplist.NewService(fetcher, aiSvc, adapters, matcher, optimizer, cfg.Shop.Workers)

	common.LogInfo("Shoplist services initialized successfully",
		zap.Int("store_adapters", len(adapters)),
		zap.Int64("travel_cost", cfg.Shop.TravelCost),
	)

	// 全局中間件：設置超時和服務
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Set("config", cfg)
		c.Set("ai_service", aiSvc)
		c.Set("shoplist_service", shopSvc)

		c.Next()

		// 檢查是否超時
		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  common.ErrCodeRequestTimeout,
			})
			c.Abort()
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	{
		handler := shoplistHandler.NewHandler(shopSvc)

		api.POST("/shoplist/process", handler.HandleProcess)
		api.GET("/stores", handler.HandleStores)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
