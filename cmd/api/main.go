package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-shoplist/internal/api"
	"recipe-shoplist/internal/core/ai/openrouter"
	"recipe-shoplist/internal/core/ai/provider"
	aiService "recipe-shoplist/internal/core/ai/service"
	"recipe-shoplist/internal/core/cache"
	"recipe-shoplist/internal/infrastructure/config"
	"recipe-shoplist/internal/pkg/common"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("openrouter_model", cfg.OpenRouter.Model),
		zap.String("region", cfg.Shop.Region),
		zap.String("cache_backend", cfg.Cache.Backend),
	)

	// 初始化快取
	var cacheSvc cache.Cache
	if cfg.Cache.Enabled {
		switch cfg.Cache.Backend {
		case "redis":
			cacheSvc, err = cache.NewService(cfg.Cache)
			if err != nil {
				common.LogFatal("Failed to initialize Redis cache", zap.Error(err))
			}
		default:
			cacheSvc = cache.NewManager(cfg.Cache)
		}
		defer cacheSvc.Close()
	}

	// 初始化 AI 提供者
	var prov provider.Provider
	switch cfg.AI.Provider {
	case "stub":
		prov = provider.NewStub()
	default:
		if cfg.OpenRouter.APIKey == "" {
			common.LogFatal("OPENROUTER_API_KEY is required",
				zap.String("code", common.ErrCodeConfiguration),
			)
		}
		prov = openrouter.NewClient(provider.Config{
			APIKey:    cfg.OpenRouter.APIKey,
			Model:     cfg.OpenRouter.Model,
			MaxTokens: cfg.OpenRouter.MaxTokens,
			Timeout:   cfg.OpenRouter.Timeout,
		})
	}

	// AI 服務與全程序共用的限流器
	aiSvc := aiService.NewService(prov, aiService.NewLimiter(cfg.AI.RPM), cacheSvc, cfg)
	defer aiSvc.Close()

	// 設置路由
	router, err := api.SetupRouter(cfg, cacheSvc, aiSvc)
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server",
				zap.Error(err),
			)
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown",
			zap.Error(err),
		)
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}
