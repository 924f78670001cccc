package shoplist

import (
	"context"
	"fmt"
	"testing"

	"recipe-shoplist/internal/core/store"
	"recipe-shoplist/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	text string
	err  error
}

func (f *fakeFetcher) FetchText(ctx context.Context, url string) (string, error) {
	return f.text, f.err
}

type fakeExtractor struct {
	recipe *common.Recipe
	err    error
}

func (f *fakeExtractor) Extract(ctx context.Context, pageText string) (*common.Recipe, error) {
	return f.recipe, f.err
}

// fakeAdapter 以 查詢字串→商品 表回應，err 設定時一律失敗
type fakeAdapter struct {
	id       common.Store
	products map[string][]common.Product
	err      error
}

func (f *fakeAdapter) ID() common.Store { return f.id }

func (f *fakeAdapter) Search(ctx context.Context, query string) ([]common.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products[query], nil
}

func recipeWith(names ...string) *common.Recipe {
	r := &common.Recipe{Title: "Test Recipe"}
	for _, n := range names {
		r.Ingredients = append(r.Ingredients, common.ExtractedIngredient{
			Name: n, OriginalText: n,
		})
	}
	return r
}

func product(name string, s common.Store, price int64) common.Product {
	return common.Product{Name: name, Store: s, Price: price}
}

func newPipeline(extractor Extractor, adapters []store.Adapter) *Service {
	return NewService(
		&fakeFetcher{text: "page"},
		extractor,
		adapters,
		NewMatcher(&countingChooser{}, 0.8, 0.3),
		NewOptimizer(100),
		4,
	)
}

func TestProcessRecipe(t *testing.T) {
	adapters := []store.Adapter{
		&fakeAdapter{id: common.StoreColes, products: map[string][]common.Product{
			"tomatoes": {product("Cherry Tomatoes 400g", common.StoreColes, 100)},
			"cucumber": {product("Cucumber Each", common.StoreColes, 200)},
			"garlic":   {product("Garlic Loose", common.StoreColes, 50)},
		}},
		&fakeAdapter{id: common.StoreWoolworths, products: map[string][]common.Product{
			"tomatoes": {product("Cherry Tomatoes 250g", common.StoreWoolworths, 90)},
			"cucumber": {product("Cucumber Each", common.StoreWoolworths, 180)},
		}},
	}

	svc := newPipeline(&fakeExtractor{recipe: recipeWith("Tomatoes", "Cucumber", "Garlic")}, adapters)

	result, err := svc.ProcessRecipe(context.Background(), "https://example.com/salad", common.StrategyMultiStore, nil)
	require.NoError(t, err)
	require.NotNil(t, result.Plan)
	assert.NotEmpty(t, result.Plan.ID)
	assert.Equal(t, "https://example.com/salad", result.Recipe.URL)

	// 順序保證：輸出順序 = 食材輸入順序，與並行完成順序無關
	require.Len(t, result.Plan.Items, 3)
	assert.Equal(t, "tomatoes", result.Plan.Items[0].Ingredient.Name)
	assert.Equal(t, "cucumber", result.Plan.Items[1].Ingredient.Name)
	assert.Equal(t, "garlic", result.Plan.Items[2].Ingredient.Name)

	// 90 + 180 + 50 + 交通 100
	assert.Equal(t, int64(420), result.Plan.TotalCost)
}

func TestProcessRecipeNoIngredients(t *testing.T) {
	svc := newPipeline(&fakeExtractor{recipe: &common.Recipe{Title: "Empty"}}, nil)

	_, err := svc.ProcessRecipe(context.Background(), "https://example.com", common.StrategySingleStore, nil)
	require.Error(t, err)
	assert.Equal(t, common.ErrCodeNoIngredients, common.ErrorCode(err))
}

func TestProcessRecipeNoMatches(t *testing.T) {
	adapters := []store.Adapter{
		&fakeAdapter{id: common.StoreColes, products: map[string][]common.Product{
			"saffron": {product("Laundry Powder 2kg", common.StoreColes, 900)},
		}},
	}
	svc := newPipeline(&fakeExtractor{recipe: recipeWith("Saffron")}, adapters)

	_, err := svc.ProcessRecipe(context.Background(), "https://example.com", common.StrategySingleStore, nil)
	require.Error(t, err)
	assert.Equal(t, common.ErrCodeNoMatches, common.ErrorCode(err))
}

func TestProcessRecipeExtractionFailurePropagates(t *testing.T) {
	svc := newPipeline(&fakeExtractor{err: common.WrapError(common.ErrProviderUnavailable, fmt.Errorf("429"))}, nil)

	_, err := svc.ProcessRecipe(context.Background(), "https://example.com", common.StrategySingleStore, nil)
	require.Error(t, err)
	assert.Equal(t, common.ErrCodeProviderUnavailable, common.ErrorCode(err))
}

func TestProcessRecipeStoreFailureIsolated(t *testing.T) {
	adapters := []store.Adapter{
		&fakeAdapter{id: common.StoreColes, err: fmt.Errorf("store down")},
		&fakeAdapter{id: common.StoreWoolworths, products: map[string][]common.Product{
			"milk": {product("Milk 1L", common.StoreWoolworths, 220)},
		}},
	}
	svc := newPipeline(&fakeExtractor{recipe: recipeWith("Milk")}, adapters)

	result, err := svc.ProcessRecipe(context.Background(), "https://example.com", common.StrategySingleStore, nil)
	require.NoError(t, err, "單一商店失敗不應中斷管線")
	require.NotNil(t, result.Plan.Items[0].SelectedProduct)
	assert.Equal(t, common.StoreWoolworths, result.Plan.Items[0].SelectedProduct.Store)
}

func TestProcessRecipeCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adapters := []store.Adapter{
		&fakeAdapter{id: common.StoreColes, products: map[string][]common.Product{
			"milk": {product("Milk 1L", common.StoreColes, 220)},
		}},
	}
	svc := newPipeline(&fakeExtractor{recipe: recipeWith("Milk")}, adapters)

	_, err := svc.ProcessRecipe(ctx, "https://example.com", common.StrategySingleStore, nil)
	require.Error(t, err, "取消後不回傳部分結果")
}

func TestProcessRecipeStoreFilter(t *testing.T) {
	adapters := []store.Adapter{
		&fakeAdapter{id: common.StoreColes, products: map[string][]common.Product{
			"milk": {product("Milk 1L", common.StoreColes, 150)},
		}},
		&fakeAdapter{id: common.StoreWoolworths, products: map[string][]common.Product{
			"milk": {product("Milk 1L", common.StoreWoolworths, 120)},
		}},
	}
	svc := newPipeline(&fakeExtractor{recipe: recipeWith("Milk")}, adapters)

	// 只允許 coles，即使 woolworths 更便宜
	result, err := svc.ProcessRecipe(context.Background(), "https://example.com", common.StrategySingleStore,
		[]common.Store{common.StoreColes})
	require.NoError(t, err)
	assert.Equal(t, common.StoreColes, result.Plan.Items[0].SelectedProduct.Store)

	// 過濾後沒有任何已設定的商店
	_, err = svc.ProcessRecipe(context.Background(), "https://example.com", common.StrategySingleStore,
		[]common.Store{common.StoreALDI})
	require.Error(t, err)
	assert.Equal(t, common.ErrCodeInvalidRequest, common.ErrorCode(err))
}

func TestProcessRecipeDefaultStrategy(t *testing.T) {
	adapters := []store.Adapter{
		&fakeAdapter{id: common.StoreColes, products: map[string][]common.Product{
			"milk": {product("Milk 1L", common.StoreColes, 220)},
		}},
	}
	svc := newPipeline(&fakeExtractor{recipe: recipeWith("Milk")}, adapters)

	result, err := svc.ProcessRecipe(context.Background(), "https://example.com", "", nil)
	require.NoError(t, err)
	assert.Equal(t, common.StrategySingleStore, result.Plan.Strategy)
}
