package store

import (
	"fmt"
	"net/url"
	"strings"

	"recipe-shoplist/internal/pkg/common"
)

// Region 商店所在地區
type Region string

const (
	RegionAU Region = "au"
	RegionUS Region = "us"
	RegionUK Region = "uk"
	RegionCA Region = "ca"
)

// Config 單一商店的查詢設定
type Config struct {
	ID          common.Store
	Name        string
	DisplayName string
	Region      Region
	BaseURL     string
	SearchURL   string
	SearchParam string
	// 未標示商品單價時的估價修正係數
	PriceMultiplier  float64
	SupportsDelivery bool
}

// SearchURLFor 產生查詢 URL
func (c Config) SearchURLFor(query string) string {
	return fmt.Sprintf("%s?%s=%s", c.SearchURL, c.SearchParam, url.QueryEscape(strings.TrimSpace(query)))
}

// configs 支援的商店設定表
var configs = map[common.Store]Config{
	common.StoreColes: {
		ID:               common.StoreColes,
		Name:             "Coles",
		DisplayName:      "Coles Supermarkets",
		Region:           RegionAU,
		BaseURL:          "https://www.coles.com.au",
		SearchURL:        "https://www.coles.com.au/search",
		SearchParam:      "q",
		PriceMultiplier:  1.0,
		SupportsDelivery: true,
	},
	common.StoreWoolworths: {
		ID:               common.StoreWoolworths,
		Name:             "Woolworths",
		DisplayName:      "Woolworths Supermarkets",
		Region:           RegionAU,
		BaseURL:          "https://www.woolworths.com.au",
		SearchURL:        "https://www.woolworths.com.au/shop/search/products",
		SearchParam:      "searchTerm",
		PriceMultiplier:  1.05,
		SupportsDelivery: true,
	},
	common.StoreALDI: {
		ID:              common.StoreALDI,
		Name:            "ALDI",
		DisplayName:     "ALDI Australia",
		Region:          RegionAU,
		BaseURL:         "https://www.aldi.com.au",
		SearchURL:       "https://www.aldi.com.au/products",
		SearchParam:     "q",
		PriceMultiplier: 0.85,
		// ALDI 多數地區不提供外送
		SupportsDelivery: false,
	},
	common.StoreIGA: {
		ID:               common.StoreIGA,
		Name:             "IGA",
		DisplayName:      "IGA (Independent Grocers of Australia)",
		Region:           RegionAU,
		BaseURL:          "https://www.iga.com.au",
		SearchURL:        "https://www.iga.com.au/search",
		SearchParam:      "term",
		PriceMultiplier:  1.15,
		SupportsDelivery: true,
	},
}

// regionStores 各地區啟用的商店
var regionStores = map[Region][]common.Store{
	RegionAU: {common.StoreColes, common.StoreWoolworths, common.StoreALDI, common.StoreIGA},
}

// GetConfig 取得商店設定
func GetConfig(id common.Store) (Config, bool) {
	cfg, ok := configs[id]
	return cfg, ok
}

// StoresForRegion 取得某地區啟用的商店，依宣告順序
func StoresForRegion(region Region) []common.Store {
	return regionStores[region]
}

// ValidStore 檢查商店 ID 是否有效
func ValidStore(id common.Store) bool {
	_, ok := configs[id]
	return ok
}

// DisplayNames 商店 ID 到顯示名稱的映射
func DisplayNames() map[common.Store]string {
	names := make(map[common.Store]string, len(configs))
	for id, cfg := range configs {
		names[id] = cfg.DisplayName
	}
	return names
}
