package common

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit 標準化後的數量單位
type Unit string

const (
	UnitGram       Unit = "g"
	UnitKilogram   Unit = "kg"
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "l"
	UnitPiece      Unit = "piece"
	UnitCup        Unit = "cup"
	UnitTablespoon Unit = "tbsp"
	UnitTeaspoon   Unit = "tsp"
	UnitClove      Unit = "clove"
	UnitUnknown    Unit = "unknown"
)

// IsMass 是否為重量單位
func (u Unit) IsMass() bool {
	return u == UnitGram || u == UnitKilogram
}

// IsVolume 是否為容量單位
func (u Unit) IsVolume() bool {
	return u == UnitMilliliter || u == UnitLiter
}

// Store 支援的商店
type Store string

const (
	StoreColes      Store = "coles"
	StoreWoolworths Store = "woolworths"
	StoreALDI       Store = "aldi"
	StoreIGA        Store = "iga"
)

// StoreOrder 商店宣告順序，平手時依此順序決定
var StoreOrder = []Store{StoreColes, StoreWoolworths, StoreALDI, StoreIGA}

// Strategy 購物清單最佳化策略
type Strategy string

const (
	StrategySingleStore Strategy = "single_store"
	StrategyMultiStore  Strategy = "multi_store"
)

// ExtractedIngredient 由 AI 擷取、尚未標準化的食材
// quantity 可能是數字、分數字串或範圍字串，交由 normalizer 處理
type ExtractedIngredient struct {
	Name         string     `json:"name"`
	Quantity     FlexString `json:"quantity,omitempty"`
	Unit         string     `json:"unit,omitempty"`
	OriginalText string     `json:"original_text"`
}

// Ingredient 標準化後的食材
// 標準化後不可再變動；Quantity 存在時 Unit 必定已設定（可能是 unknown）
type Ingredient struct {
	Name         string           `json:"name"`
	Quantity     *decimal.Decimal `json:"quantity,omitempty"`
	Unit         Unit             `json:"unit"`
	OriginalText string           `json:"original_text"`
}

// String 回傳人類可讀格式，用於 log 與 prompt
func (i Ingredient) String() string {
	if i.Quantity == nil {
		return i.Name
	}
	if i.Unit == UnitUnknown {
		return fmt.Sprintf("%s: %s", i.Name, i.Quantity.String())
	}
	return fmt.Sprintf("%s: %s %s", i.Name, i.Quantity.String(), i.Unit)
}

// Recipe 擷取到的食譜
type Recipe struct {
	Title        string                `json:"title"`
	URL          string                `json:"url,omitempty"`
	Description  string                `json:"description,omitempty"`
	Servings     *int                  `json:"servings,omitempty"`
	PrepTime     string                `json:"prep_time,omitempty"`
	CookTime     string                `json:"cook_time,omitempty"`
	Ingredients  []ExtractedIngredient `json:"ingredients"`
	Instructions []string              `json:"instructions,omitempty"`
}

// Product 商店查詢回傳的商品
// 價格以最小貨幣單位（分）表示，避免浮點誤差
type Product struct {
	Name      string `json:"name"`
	Store     Store  `json:"store"`
	Price     int64  `json:"price"`
	PriceUnit string `json:"price_unit,omitempty"`
	URL       string `json:"url,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
}

// PriceString 以元為單位的顯示字串
func (p Product) PriceString() string {
	return decimal.New(p.Price, -2).StringFixed(2)
}

// StoreMatch 單一商店的比對結果
// Product 為 nil 表示該商店無可接受的商品（正常結果，不是錯誤）
type StoreMatch struct {
	Product   *Product `json:"product,omitempty"`
	Score     float64  `json:"score"`
	Reasoning string   `json:"reasoning,omitempty"`
}

// MatchResult 一個食材在各商店的比對結果
type MatchResult struct {
	Ingredient Ingredient           `json:"ingredient"`
	Stores     map[Store]StoreMatch `json:"stores"`
}

// Matched 至少有一間商店比對成功
func (m MatchResult) Matched() bool {
	for _, sm := range m.Stores {
		if sm.Product != nil {
			return true
		}
	}
	return false
}

// ShoppingListItem 購物清單中的一項
// 全部商店皆未比對成功時 SelectedProduct 與 TotalCost 為 nil，
// 該項不列入費用加總但仍保留在清單中
type ShoppingListItem struct {
	Ingredient      Ingredient         `json:"ingredient"`
	SelectedProduct *Product           `json:"selected_product,omitempty"`
	StoreOptions    map[Store]*Product `json:"store_options,omitempty"`
	TotalCost       *int64             `json:"total_cost,omitempty"`
}

// TravelKey stores_breakdown 中合成的交通成本項目
const TravelKey = "travel"

// ShoppingPlan 一次最佳化的完整結果
// 項目順序與輸入食材順序一致
type ShoppingPlan struct {
	ID              string             `json:"id"`
	Strategy        Strategy           `json:"strategy"`
	Items           []ShoppingListItem `json:"items"`
	StoresBreakdown map[string]int64   `json:"stores_breakdown"`
	TotalCost       int64              `json:"total_cost"`
	Savings         int64              `json:"savings"`
}

// ChoiceResult AI 比對能力的回傳結果
type ChoiceResult struct {
	ChosenIndex *int   `json:"chosen_index"`
	Reasoning   string `json:"reasoning"`
}

// FormatCandidates 將候選商品格式化為 prompt 用的清單
func FormatCandidates(candidates []Product) string {
	var sb strings.Builder
	for i, c := range candidates {
		sb.WriteString(fmt.Sprintf("%d. %s ($%s", i, c.Name, c.PriceString()))
		if c.PriceUnit != "" {
			sb.WriteString(" " + c.PriceUnit)
		}
		sb.WriteString(")\n")
	}
	return sb.String()
}
