package store

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"recipe-shoplist/internal/core/cache"
	"recipe-shoplist/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Adapter 單一商店的查詢介面
// 查無商品回傳空切片，不是錯誤；傳輸或認證失敗才回傳錯誤
type Adapter interface {
	Search(ctx context.Context, query string) ([]common.Product, error)
	ID() common.Store
}

// HTTPAdapter 設定驅動的商店查詢轉接器
type HTTPAdapter struct {
	cfg    Config
	client *resty.Client
	cache  cache.Cache
	limit  int
}

// NewHTTPAdapter 創建商店查詢轉接器
func NewHTTPAdapter(cfg Config, cacheSvc cache.Cache, timeout time.Duration, limit int) *HTTPAdapter {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "recipe-shoplist/1.0")

	return &HTTPAdapter{
		cfg:    cfg,
		client: client,
		cache:  cacheSvc,
		limit:  limit,
	}
}

// ID 回傳商店識別
func (a *HTTPAdapter) ID() common.Store {
	return a.cfg.ID
}

// searchPayload 商店搜尋 API 的回應格式
type searchPayload struct {
	Products []struct {
		Name      string            `json:"name"`
		Price     common.FlexString `json:"price"` // 元，可能是字串或數字
		PriceUnit string            `json:"price_unit,omitempty"`
		URL       string            `json:"url,omitempty"`
		ImageURL  string            `json:"image_url,omitempty"`
	} `json:"products"`
}

// Search 以查詢字串搜尋商品
func (a *HTTPAdapter) Search(ctx context.Context, query string) ([]common.Product, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	key := cache.SearchKey(a.cfg.ID, query)

	// 檢查緩存
	if a.cache != nil {
		if val, ok := a.cache.Get(ctx, key); ok {
			common.LogCacheHit("search", key)
			var cached []common.Product
			if err := common.ParseJSON(val, &cached); err == nil {
				return cached, nil
			}
		} else {
			common.LogCacheMiss("search", key)
		}
	}

	start := time.Now()
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParam(a.cfg.SearchParam, query).
		Get(a.cfg.SearchURL)

	if err != nil {
		return nil, common.WrapError(common.ErrStoreQueryFailed,
			fmt.Errorf("%s search request failed: %w", a.cfg.ID, err))
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, common.WrapError(common.ErrStoreQueryFailed,
			fmt.Errorf("%s search returned %d", a.cfg.ID, resp.StatusCode()))
	}

	var payload searchPayload
	if err := common.ParseJSONBytes(resp.Body(), &payload); err != nil {
		return nil, common.WrapError(common.ErrStoreQueryFailed,
			fmt.Errorf("%s search payload invalid: %w", a.cfg.ID, err))
	}

	products := make([]common.Product, 0, len(payload.Products))
	for _, p := range payload.Products {
		if len(products) >= a.limit {
			break
		}
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		price, ok := parsePriceCents(p.Price.String())
		if !ok {
			// 無價格的商品對清單無用
			continue
		}
		products = append(products, common.Product{
			Name:      name,
			Store:     a.cfg.ID,
			Price:     price,
			PriceUnit: p.PriceUnit,
			URL:       p.URL,
			ImageURL:  p.ImageURL,
		})
	}

	common.LogStoreQuery(string(a.cfg.ID), query, len(products), time.Since(start))

	if a.cache != nil {
		if data, err := common.ToJSON(products); err == nil {
			_ = a.cache.Set(ctx, key, data)
		}
	}

	return products, nil
}

// parsePriceCents 將元為單位的價格字串轉為分
func parsePriceCents(raw string) (int64, bool) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	if raw == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() || d.IsZero() {
		return 0, false
	}
	return d.Shift(2).Round(0).IntPart(), true
}

// NewAdapters 為啟用的商店建立轉接器
// stores 為空時使用該地區全部已設定的商店
func NewAdapters(region Region, stores []common.Store, cacheSvc cache.Cache, timeout time.Duration, limit int) ([]Adapter, error) {
	if len(stores) == 0 {
		stores = StoresForRegion(region)
	}
	if len(stores) == 0 {
		return nil, fmt.Errorf("no stores configured for region %s", region)
	}

	adapters := make([]Adapter, 0, len(stores))
	for _, id := range stores {
		cfg, ok := GetConfig(id)
		if !ok {
			return nil, fmt.Errorf("unknown store: %s", id)
		}
		adapters = append(adapters, NewHTTPAdapter(cfg, cacheSvc, timeout, limit))
	}

	common.LogInfo("商店轉接器已建立",
		zap.Int("數量", len(adapters)),
		zap.String("region", string(region)),
	)

	return adapters, nil
}
