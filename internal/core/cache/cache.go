package cache

import (
	"context"
	"fmt"

	"recipe-shoplist/internal/pkg/common"
)

// Cache 統一的快取介面，由記憶體與 Redis 後端實作
// Get 未命中回傳 false；後端故障視為未命中，不阻斷管線
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string) error
	Close() error
}

// SearchKey 商店搜尋結果的快取鍵
func SearchKey(store common.Store, query string) string {
	return fmt.Sprintf("search:%s:%s", store, query)
}

// PageKey 網頁內容的快取鍵
func PageKey(url string) string {
	return fmt.Sprintf("page:%s", common.HashKey(url))
}

// ExtractKey 食譜擷取結果的快取鍵
func ExtractKey(pageText string) string {
	return fmt.Sprintf("extract:%s", common.HashKey(pageText))
}
