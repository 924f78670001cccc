package shoplist

import (
	"testing"

	"recipe-shoplist/internal/pkg/common"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMatches 以 名稱→商店→價格（分） 建立測試比對結果
func buildMatches(ingredients []common.Ingredient, prices map[string]map[common.Store]int64) []common.MatchResult {
	matches := make([]common.MatchResult, len(ingredients))
	for i, ing := range ingredients {
		stores := map[common.Store]common.StoreMatch{}
		for store, price := range prices[ing.Name] {
			stores[store] = common.StoreMatch{
				Product: &common.Product{Name: ing.Name, Store: store, Price: price},
				Score:   0.9,
			}
		}
		matches[i] = common.MatchResult{Ingredient: ing, Stores: stores}
	}
	return matches
}

func ingredients(names ...string) []common.Ingredient {
	out := make([]common.Ingredient, len(names))
	for i, n := range names {
		out[i] = common.Ingredient{Name: n, Unit: common.UnitUnknown, OriginalText: n}
	}
	return out
}

func TestSingleStoreCoveragePriority(t *testing.T) {
	ings := ingredients("a", "b", "c", "d")
	// coles 覆蓋 3/4 共 $20；woolworths 覆蓋 4/4 共 $25
	matches := buildMatches(ings, map[string]map[common.Store]int64{
		"a": {common.StoreColes: 500, common.StoreWoolworths: 600},
		"b": {common.StoreColes: 700, common.StoreWoolworths: 700},
		"c": {common.StoreColes: 800, common.StoreWoolworths: 800},
		"d": {common.StoreWoolworths: 400},
	})

	plan := NewOptimizer(500).BuildPlan(ings, matches, common.StrategySingleStore)

	assert.Equal(t, int64(2500), plan.TotalCost, "覆蓋數優先於價格")
	assert.Equal(t, int64(2500), plan.StoresBreakdown[string(common.StoreWoolworths)])
	_, hasColes := plan.StoresBreakdown[string(common.StoreColes)]
	assert.False(t, hasColes)
	for _, item := range plan.Items {
		require.NotNil(t, item.SelectedProduct)
		assert.Equal(t, common.StoreWoolworths, item.SelectedProduct.Store)
	}
}

func TestSingleStoreTieBreaksByDeclarationOrder(t *testing.T) {
	ings := ingredients("a")
	matches := buildMatches(ings, map[string]map[common.Store]int64{
		"a": {common.StoreWoolworths: 100, common.StoreColes: 100},
	})

	plan := NewOptimizer(0).BuildPlan(ings, matches, common.StrategySingleStore)
	assert.Equal(t, common.StoreColes, plan.Items[0].SelectedProduct.Store)
}

// 規格情境：A 店全覆蓋較貴，B 店部分覆蓋較便宜
func TestEndToEndScenario(t *testing.T) {
	ings := ingredients("tomatoes", "cucumber", "garlic")
	prices := map[string]map[common.Store]int64{
		"tomatoes": {common.StoreColes: 100, common.StoreWoolworths: 90},
		"cucumber": {common.StoreColes: 200, common.StoreWoolworths: 180},
		"garlic":   {common.StoreColes: 50},
	}
	matches := buildMatches(ings, prices)
	opt := NewOptimizer(100)

	single := opt.BuildPlan(ings, matches, common.StrategySingleStore)
	assert.Equal(t, int64(350), single.TotalCost, "單店策略選全覆蓋的 coles，雖然較貴")
	assert.Equal(t, int64(0), single.Savings)
	for _, item := range single.Items {
		assert.Equal(t, common.StoreColes, item.SelectedProduct.Store)
	}

	multi := opt.BuildPlan(ings, matches, common.StrategyMultiStore)
	// 90 + 180 + 50 = 320，跑兩間店多收一次交通成本
	assert.Equal(t, int64(420), multi.TotalCost)
	assert.Equal(t, int64(100), multi.StoresBreakdown[common.TravelKey])
	assert.Equal(t, int64(270), multi.StoresBreakdown[string(common.StoreWoolworths)])
	assert.Equal(t, int64(50), multi.StoresBreakdown[string(common.StoreColes)])
	assert.Equal(t, int64(0), multi.Savings, "多店含交通後較貴，節省下限為零")
}

func TestMultiStoreSavings(t *testing.T) {
	ings := ingredients("a", "b")
	matches := buildMatches(ings, map[string]map[common.Store]int64{
		"a": {common.StoreColes: 1000, common.StoreWoolworths: 200},
		"b": {common.StoreColes: 1000, common.StoreWoolworths: 200},
	})

	// 同一間店最便宜時不收交通成本
	plan := NewOptimizer(500).BuildPlan(ings, matches, common.StrategyMultiStore)
	assert.Equal(t, int64(400), plan.TotalCost)
	_, hasTravel := plan.StoresBreakdown[common.TravelKey]
	assert.False(t, hasTravel, "僅用一間商店不收交通成本")
	assert.Equal(t, int64(0), plan.Savings, "最佳單店即最便宜組合")
}

func TestUnmatchedIngredientVisibility(t *testing.T) {
	ings := ingredients("tomatoes", "unicorn dust")
	matches := buildMatches(ings, map[string]map[common.Store]int64{
		"tomatoes": {common.StoreColes: 100},
	})

	plan := NewOptimizer(0).BuildPlan(ings, matches, common.StrategySingleStore)
	require.Len(t, plan.Items, 2, "未比對的食材仍保留在清單中")

	unmatched := plan.Items[1]
	assert.Equal(t, "unicorn dust", unmatched.Ingredient.Name)
	assert.Nil(t, unmatched.SelectedProduct)
	assert.Nil(t, unmatched.TotalCost)
	assert.Equal(t, int64(100), plan.TotalCost, "未比對項不影響總價")
}

func TestNothingMatched(t *testing.T) {
	ings := ingredients("a", "b")
	matches := buildMatches(ings, nil)

	plan := NewOptimizer(500).BuildPlan(ings, matches, common.StrategyMultiStore)
	assert.Equal(t, int64(0), plan.TotalCost)
	assert.Equal(t, int64(0), plan.Savings)
	assert.Len(t, plan.Items, 2)
	assert.Empty(t, plan.StoresBreakdown)
}

func TestBuildPlanIdempotent(t *testing.T) {
	ings := ingredients("tomatoes", "cucumber", "garlic")
	matches := buildMatches(ings, map[string]map[common.Store]int64{
		"tomatoes": {common.StoreColes: 100, common.StoreWoolworths: 90},
		"cucumber": {common.StoreColes: 200, common.StoreWoolworths: 180},
		"garlic":   {common.StoreColes: 50},
	})
	opt := NewOptimizer(100)

	first := opt.BuildPlan(ings, matches, common.StrategyMultiStore)
	second := opt.BuildPlan(ings, matches, common.StrategyMultiStore)
	assert.Equal(t, first, second, "相同輸入必得相同計畫")
}

func TestItemCostScaling(t *testing.T) {
	half := decimal.NewFromFloat(0.5)
	grams := decimal.NewFromInt(250)

	tests := []struct {
		name string
		ing  common.Ingredient
		prod common.Product
		want int64
	}{
		{
			name: "公斤計價依重量換算",
			ing:  common.Ingredient{Name: "beef", Quantity: &half, Unit: common.UnitKilogram},
			prod: common.Product{Price: 2400, PriceUnit: "per kg"},
			want: 1200,
		},
		{
			name: "克轉公斤",
			ing:  common.Ingredient{Name: "flour", Quantity: &grams, Unit: common.UnitGram},
			prod: common.Product{Price: 400, PriceUnit: "per kg"},
			want: 100,
		},
		{
			name: "量綱不符用原價",
			ing:  common.Ingredient{Name: "milk", Quantity: &half, Unit: common.UnitCup},
			prod: common.Product{Price: 220, PriceUnit: "per l"},
			want: 220,
		},
		{
			name: "無數量用原價",
			ing:  common.Ingredient{Name: "salt", Unit: common.UnitUnknown},
			prod: common.Product{Price: 150, PriceUnit: "per kg"},
			want: 150,
		},
		{
			name: "無計價單位用原價",
			ing:  common.Ingredient{Name: "eggs", Quantity: &grams, Unit: common.UnitGram},
			prod: common.Product{Price: 700},
			want: 700,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, itemCost(tt.ing, &tt.prod))
		})
	}
}
