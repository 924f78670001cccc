package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recipe-shoplist/internal/core/ai/provider"
	"recipe-shoplist/internal/core/ai/queue"
	"recipe-shoplist/internal/core/cache"
	"recipe-shoplist/internal/infrastructure/config"
	"recipe-shoplist/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Service AI 服務，對外提供兩個領域操作：
// Extract 從網頁文字擷取食譜，Choose 從候選商品中挑選最符合的一項
type Service struct {
	queueMgr *queue.Manager
	cache    cache.Cache
	retryCfg config.RetryConfig
	maxToken int
}

// NewService 創建 AI 服務
// limiter 為全程序共用的 RPM 限流器，由呼叫端注入
func NewService(prov provider.Provider, limiter *rate.Limiter, cacheSvc cache.Cache, cfg *config.Config) *Service {
	return &Service{
		queueMgr: queue.NewManager(prov, limiter, cfg.AI.Workers, cfg.AI.MaxQueueSize),
		cache:    cacheSvc,
		retryCfg: cfg.AI.Retry,
		maxToken: cfg.OpenRouter.MaxTokens,
	}
}

// NewLimiter 由 RPM 設定建立限流器
func NewLimiter(rpm int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
}

const extractPrompt = `You are a recipe extraction assistant. Extract the recipe from the page text below.
Respond with ONLY a JSON object, no other text, in this exact shape:
{"title": "...", "description": "...", "servings": 4, "prep_time": "...", "cook_time": "...",
 "ingredients": [{"name": "...", "quantity": "...", "unit": "...", "original_text": "..."}],
 "instructions": ["..."]}
Use the ingredient line verbatim as original_text. Leave quantity/unit empty when absent.

Page text:
%s`

// Extract 從網頁文字擷取食譜
func (s *Service) Extract(ctx context.Context, pageText string) (*common.Recipe, error) {
	// 檢查緩存
	key := cache.ExtractKey(pageText)
	if s.cache != nil {
		if val, ok := s.cache.Get(ctx, key); ok {
			common.LogCacheHit("extract", key)
			recipe, err := parseRecipe(val)
			if err == nil {
				return recipe, nil
			}
			// 快取內容損壞時重新產生
			common.LogWarn("快取擷取結果無法解析", zap.Error(err))
		} else {
			common.LogCacheMiss("extract", key)
		}
	}

	content, err := s.generate(ctx, "extract", fmt.Sprintf(extractPrompt, pageText))
	if err != nil {
		return nil, err
	}

	recipe, err := parseRecipe(content)
	if err != nil {
		return nil, common.WrapError(common.ErrExtractionFailed, err)
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, content)
	}

	return recipe, nil
}

const choosePrompt = `You are a grocery shopping assistant. A recipe needs the ingredient "%s".
Pick the candidate product that best matches the ingredient, preferring plain/basic products
over flavoured or processed variants. If none is a reasonable match, choose null.
Respond with ONLY a JSON object: {"chosen_index": <number or null>, "reasoning": "<one sentence>"}

Candidates:
%s`

// Choose 從候選商品中挑選最符合食材的一項
// 回傳結果具權威性；ChosenIndex 為 nil 表示模型判定皆不合適
func (s *Service) Choose(ctx context.Context, ingredientName string, candidates []common.Product) (*common.ChoiceResult, error) {
	if len(candidates) == 0 {
		return &common.ChoiceResult{}, nil
	}

	prompt := fmt.Sprintf(choosePrompt, ingredientName, common.FormatCandidates(candidates))
	content, err := s.generate(ctx, "choose", prompt)
	if err != nil {
		return nil, err
	}

	var result common.ChoiceResult
	cleaned := common.QuoteJSONKeys(common.ExtractJSONObject(content))
	if err := common.ParseJSON(cleaned, &result); err != nil {
		return nil, common.WrapError(common.ErrMatchingFailed, err)
	}

	// 越界索引視為格式錯誤
	if result.ChosenIndex != nil && (*result.ChosenIndex < 0 || *result.ChosenIndex >= len(candidates)) {
		return nil, common.WrapError(common.ErrMatchingFailed,
			fmt.Errorf("chosen_index %d out of range [0,%d)", *result.ChosenIndex, len(candidates)))
	}

	return &result, nil
}

// generate 經隊列送出請求，暫時性錯誤以指數退避重試
func (s *Service) generate(ctx context.Context, operation, prompt string) (string, error) {
	req := &provider.Request{
		Messages: []provider.Message{
			{Role: "user", Content: prompt},
		},
		MaxTokens: s.maxToken,
	}

	var lastErr error
	delay := s.retryCfg.BaseDelay

	for attempt := 1; attempt <= s.retryCfg.MaxAttempts; attempt++ {
		start := time.Now()
		resp, err := s.queueMgr.Enqueue(ctx, req)
		common.LogAICall(operation, time.Since(start), err, "")

		if err == nil {
			return resp.Content, nil
		}
		lastErr = err

		if !isTransient(err) || attempt == s.retryCfg.MaxAttempts {
			break
		}

		common.LogWarn("AI 請求暫時失敗，準備重試",
			zap.String("操作", operation),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		delay *= 2
		if delay > s.retryCfg.MaxDelay {
			delay = s.retryCfg.MaxDelay
		}
	}

	return "", lastErr
}

// isTransient 僅對提供者標記為暫時性的錯誤重試
func isTransient(err error) bool {
	var ce *common.CustomError
	if errors.As(err, &ce) {
		return ce.Code == common.ErrCodeProviderUnavailable
	}
	return false
}

// parseRecipe 解析模型回傳的食譜 JSON
func parseRecipe(content string) (*common.Recipe, error) {
	cleaned := common.QuoteJSONKeys(common.ExtractJSONObject(content))

	var recipe common.Recipe
	if err := common.ParseJSON(cleaned, &recipe); err != nil {
		return nil, fmt.Errorf("invalid recipe payload: %w", err)
	}

	if strings.TrimSpace(recipe.Title) == "" && len(recipe.Ingredients) == 0 {
		return nil, fmt.Errorf("recipe payload has no title and no ingredients")
	}

	return &recipe, nil
}

// Status 取得隊列狀態，供健康檢查使用
func (s *Service) Status() *queue.Status {
	return s.queueMgr.GetQueueStatus()
}

// Close 關閉服務
func (s *Service) Close() {
	s.queueMgr.Close()
}
