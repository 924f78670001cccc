package shoplist

import (
	"context"
	"fmt"
	"time"

	"recipe-shoplist/internal/core/store"
	"recipe-shoplist/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PageFetcher 網頁抓取能力，由 core/web 實作
type PageFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Extractor AI 擷取能力，由 ai/service 實作
type Extractor interface {
	Extract(ctx context.Context, pageText string) (*common.Recipe, error)
}

// Service 食譜到購物清單的完整管線
// 抓取 → 擷取 → 標準化 → 商店查詢 → 比對 → 最佳化
type Service struct {
	fetcher   PageFetcher
	extractor Extractor
	adapters  []store.Adapter
	matcher   *Matcher
	optimizer *Optimizer
	// 食材並行處理上限，避免一份長食譜吃光 AI 配額
	workers int
}

// NewService 創建購物清單服務
func NewService(fetcher PageFetcher, extractor Extractor, adapters []store.Adapter, matcher *Matcher, optimizer *Optimizer, workers int) *Service {
	if workers <= 0 {
		workers = 1
	}
	return &Service{
		fetcher:   fetcher,
		extractor: extractor,
		adapters:  adapters,
		matcher:   matcher,
		optimizer: optimizer,
		workers:   workers,
	}
}

// Result 一次處理的完整結果
type Result struct {
	Recipe *common.Recipe       `json:"recipe"`
	Plan   *common.ShoppingPlan `json:"plan"`
}

// ProcessRecipe 從食譜 URL 產生購物計畫
// stores 非空時只查詢指定的商店；頂層全有或全無：ctx 取消時不回傳部分結果；
// 單一商店或單一食材的 AI 失敗則被隔離，不影響其他食材
func (s *Service) ProcessRecipe(ctx context.Context, url string, strategy common.Strategy, stores []common.Store) (*Result, error) {
	start := time.Now()

	adapters, err := s.selectAdapters(stores)
	if err != nil {
		return nil, err
	}

	pageText, err := s.fetcher.FetchText(ctx, url)
	if err != nil {
		return nil, err
	}

	recipe, err := s.extractor.Extract(ctx, pageText)
	if err != nil {
		return nil, err
	}
	recipe.URL = url

	ingredients := NormalizeIngredients(recipe.Ingredients)
	if len(ingredients) == 0 {
		return nil, common.ErrNoIngredients
	}

	matches, err := s.matchAll(ctx, ingredients, adapters)
	if err != nil {
		return nil, err
	}

	anyMatched := false
	for _, m := range matches {
		if m.Matched() {
			anyMatched = true
			break
		}
	}
	if !anyMatched {
		return nil, common.ErrNoMatches
	}

	if strategy != common.StrategyMultiStore {
		strategy = common.StrategySingleStore
	}

	plan := s.optimizer.BuildPlan(ingredients, matches, strategy)
	plan.ID = common.GenerateUUID()

	common.LogInfo("購物清單處理完成",
		zap.String("url", url),
		zap.String("strategy", string(strategy)),
		zap.Int("食材數", len(ingredients)),
		zap.Int64("總價", plan.TotalCost),
		zap.Duration("耗時", time.Since(start)),
	)

	return &Result{Recipe: recipe, Plan: plan}, nil
}

// selectAdapters 依請求指定的商店過濾轉接器，空表示全部
func (s *Service) selectAdapters(stores []common.Store) ([]store.Adapter, error) {
	if len(stores) == 0 {
		return s.adapters, nil
	}

	wanted := make(map[common.Store]bool, len(stores))
	for _, st := range stores {
		wanted[st] = true
	}

	selected := make([]store.Adapter, 0, len(stores))
	for _, a := range s.adapters {
		if wanted[a.ID()] {
			selected = append(selected, a)
		}
	}
	if len(selected) == 0 {
		return nil, common.WrapError(common.ErrInvalidRequest,
			fmt.Errorf("no configured store matches the requested filter"))
	}
	return selected, nil
}

// matchAll 對每個食材做商店查詢與比對
// 食材之間並行（有上限），結果依輸入位置寫回，完成順序不影響輸出順序
func (s *Service) matchAll(ctx context.Context, ingredients []common.Ingredient, adapters []store.Adapter) ([]common.MatchResult, error) {
	matches := make([]common.MatchResult, len(ingredients))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, ing := range ingredients {
		i, ing := i, ing
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			matches[i] = s.matchOne(gctx, ing, adapters)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matches, nil
}

// matchOne 單一食材：對全部商店並行查詢後逐店比對
// 商店查詢失敗視為該店無候選商品，不中斷其他商店
func (s *Service) matchOne(ctx context.Context, ing common.Ingredient, adapters []store.Adapter) common.MatchResult {
	type storeResult struct {
		store    common.Store
		products []common.Product
	}

	results := make([]storeResult, len(adapters))

	g, gctx := errgroup.WithContext(ctx)
	for i, adapter := range adapters {
		i, adapter := i, adapter
		g.Go(func() error {
			products, err := adapter.Search(gctx, ing.Name)
			if err != nil {
				common.LogWarn("商店查詢失敗，該店視為無候選",
					zap.String("store", string(adapter.ID())),
					zap.String("食材", ing.Name),
					zap.Error(err),
				)
				products = nil
			}
			results[i] = storeResult{store: adapter.ID(), products: products}
			return nil
		})
	}
	_ = g.Wait()

	stores := make(map[common.Store]common.StoreMatch, len(results))
	for _, r := range results {
		if len(r.products) == 0 {
			continue
		}
		sm := s.matcher.Match(ctx, ing, r.products)
		if sm.Product != nil || sm.Reasoning != "" {
			stores[r.store] = sm
		}
	}

	return common.MatchResult{Ingredient: ing, Stores: stores}
}
