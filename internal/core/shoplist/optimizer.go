package shoplist

import (
	"strings"

	"recipe-shoplist/internal/pkg/common"

	"github.com/shopspring/decimal"
)

// Optimizer 將比對結果組合為購物計畫
type Optimizer struct {
	// 每多跑一間商店的固定交通成本（分）
	travelCost int64
}

// NewOptimizer 創建最佳化器
func NewOptimizer(travelCost int64) *Optimizer {
	return &Optimizer{travelCost: travelCost}
}

// BuildPlan 依策略組合購物計畫
// 每個食材恰好出現一次且維持輸入順序；未比對的食材保留在清單中
// 但不計入費用。結果不含隨機成分，相同輸入必得相同計畫
func (o *Optimizer) BuildPlan(ingredients []common.Ingredient, matches []common.MatchResult, strategy common.Strategy) *common.ShoppingPlan {
	bestStore, bestTotal, bestCoverage := o.bestSingleStore(ingredients, matches)

	var plan *common.ShoppingPlan
	switch strategy {
	case common.StrategyMultiStore:
		plan = o.buildMultiStore(ingredients, matches)
	default:
		plan = o.buildSingleStore(ingredients, matches, bestStore, bestCoverage)
	}

	// savings = 最佳單店總價 − 所選策略總價，下限為零
	if bestCoverage > 0 && bestTotal > plan.TotalCost {
		plan.Savings = bestTotal - plan.TotalCost
	}

	return plan
}

// bestSingleStore 找出覆蓋最多食材的最便宜商店
// 覆蓋數優先於價格；平手依商店宣告順序
func (o *Optimizer) bestSingleStore(ingredients []common.Ingredient, matches []common.MatchResult) (common.Store, int64, int) {
	var bestStore common.Store
	var bestTotal int64
	bestCoverage := 0

	for _, store := range common.StoreOrder {
		coverage := 0
		var total int64
		for i := range matches {
			sm, ok := matches[i].Stores[store]
			if !ok || sm.Product == nil {
				continue
			}
			coverage++
			total += itemCost(ingredients[i], sm.Product)
		}
		if coverage == 0 {
			continue
		}
		if coverage > bestCoverage || (coverage == bestCoverage && total < bestTotal) {
			bestStore = store
			bestTotal = total
			bestCoverage = coverage
		}
	}

	return bestStore, bestTotal, bestCoverage
}

// buildSingleStore 全部在同一間商店購買
func (o *Optimizer) buildSingleStore(ingredients []common.Ingredient, matches []common.MatchResult, store common.Store, coverage int) *common.ShoppingPlan {
	plan := &common.ShoppingPlan{
		Strategy:        common.StrategySingleStore,
		Items:           make([]common.ShoppingListItem, 0, len(ingredients)),
		StoresBreakdown: map[string]int64{},
	}

	for i, ing := range ingredients {
		item := common.ShoppingListItem{
			Ingredient:   ing,
			StoreOptions: storeOptions(matches[i]),
		}

		if coverage > 0 {
			if sm, ok := matches[i].Stores[store]; ok && sm.Product != nil {
				cost := itemCost(ing, sm.Product)
				item.SelectedProduct = sm.Product
				item.TotalCost = &cost
				plan.StoresBreakdown[string(store)] += cost
				plan.TotalCost += cost
			}
		}

		plan.Items = append(plan.Items, item)
	}

	return plan
}

// buildMultiStore 每個食材選最便宜的商店，加上一次性的交通成本
func (o *Optimizer) buildMultiStore(ingredients []common.Ingredient, matches []common.MatchResult) *common.ShoppingPlan {
	plan := &common.ShoppingPlan{
		Strategy:        common.StrategyMultiStore,
		Items:           make([]common.ShoppingListItem, 0, len(ingredients)),
		StoresBreakdown: map[string]int64{},
	}

	usedStores := map[common.Store]bool{}

	for i, ing := range ingredients {
		item := common.ShoppingListItem{
			Ingredient:   ing,
			StoreOptions: storeOptions(matches[i]),
		}

		// 依宣告順序掃描，平手時先宣告的商店勝出
		var cheapest *common.Product
		var cheapestStore common.Store
		var cheapestCost int64
		for _, store := range common.StoreOrder {
			sm, ok := matches[i].Stores[store]
			if !ok || sm.Product == nil {
				continue
			}
			cost := itemCost(ing, sm.Product)
			if cheapest == nil || cost < cheapestCost {
				cheapest = sm.Product
				cheapestStore = store
				cheapestCost = cost
			}
		}

		if cheapest != nil {
			item.SelectedProduct = cheapest
			item.TotalCost = &cheapestCost
			plan.StoresBreakdown[string(cheapestStore)] += cheapestCost
			plan.TotalCost += cheapestCost
			usedStores[cheapestStore] = true
		}

		plan.Items = append(plan.Items, item)
	}

	// 交通成本：第一間之後每多一間收一次固定罰金
	if n := len(usedStores); n > 1 {
		travel := o.travelCost * int64(n-1)
		plan.StoresBreakdown[common.TravelKey] = travel
		plan.TotalCost += travel
	}

	return plan
}

// storeOptions 收集各商店被考慮的商品，供結果透明呈現
func storeOptions(match common.MatchResult) map[common.Store]*common.Product {
	if len(match.Stores) == 0 {
		return nil
	}
	options := make(map[common.Store]*common.Product)
	for store, sm := range match.Stores {
		if sm.Product != nil {
			options[store] = sm.Product
		}
	}
	if len(options) == 0 {
		return nil
	}
	return options
}

// itemCost 單項費用
// 食材數量的量綱與商品計價單位相符時依數量換算，否則用商品原價
func itemCost(ing common.Ingredient, p *common.Product) int64 {
	if ing.Quantity == nil {
		return p.Price
	}
	factor, ok := scaleFactor(ing, p.PriceUnit)
	if !ok {
		return p.Price
	}
	cost := decimal.New(p.Price, 0).Mul(factor).Round(0).IntPart()
	if cost < 0 {
		return 0
	}
	return cost
}

// scaleFactor 由計價單位推導換算係數
func scaleFactor(ing common.Ingredient, priceUnit string) (decimal.Decimal, bool) {
	qty := *ing.Quantity
	unit := strings.ToLower(strings.TrimSpace(priceUnit))
	unit = strings.TrimPrefix(unit, "per ")

	switch unit {
	case "kg", "1kg":
		switch ing.Unit {
		case common.UnitKilogram:
			return qty, true
		case common.UnitGram:
			return qty.Div(decimal.NewFromInt(1000)), true
		}
	case "100g":
		switch ing.Unit {
		case common.UnitGram:
			return qty.Div(decimal.NewFromInt(100)), true
		case common.UnitKilogram:
			return qty.Mul(decimal.NewFromInt(10)), true
		}
	case "l", "litre", "1l":
		switch ing.Unit {
		case common.UnitLiter:
			return qty, true
		case common.UnitMilliliter:
			return qty.Div(decimal.NewFromInt(1000)), true
		}
	case "100ml":
		switch ing.Unit {
		case common.UnitMilliliter:
			return qty.Div(decimal.NewFromInt(100)), true
		case common.UnitLiter:
			return qty.Mul(decimal.NewFromInt(10)), true
		}
	case "each", "ea":
		if ing.Unit == common.UnitPiece {
			return qty, true
		}
	}

	return decimal.Decimal{}, false
}
