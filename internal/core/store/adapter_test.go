package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recipe-shoplist/internal/core/cache"
	"recipe-shoplist/internal/infrastructure/config"
	"recipe-shoplist/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAdapter(t *testing.T, handler http.HandlerFunc, c cache.Cache) (*HTTPAdapter, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg, ok := GetConfig(common.StoreColes)
	require.True(t, ok)
	cfg.SearchURL = srv.URL

	return NewHTTPAdapter(cfg, c, 5*time.Second, 10), srv
}

func TestSearchParsesProducts(t *testing.T) {
	adapter, _ := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tomatoes", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"products": [
			{"name": "Cherry Tomatoes 400g", "price": 3.5, "price_unit": "per punnet", "url": "/p/1"},
			{"name": "Tomato Sauce 500ml", "price": "2.80"},
			{"name": "No Price Item"},
			{"name": "", "price": 1.0}
		]}`))
	}, nil)

	products, err := adapter.Search(context.Background(), "Tomatoes ")
	require.NoError(t, err)
	require.Len(t, products, 2, "無價格與無名稱的商品應被略過")

	assert.Equal(t, "Cherry Tomatoes 400g", products[0].Name)
	assert.Equal(t, int64(350), products[0].Price)
	assert.Equal(t, "3.50", products[0].PriceString())
	assert.Equal(t, common.StoreColes, products[0].Store)
	assert.Equal(t, int64(280), products[1].Price)
}

func TestSearchEmptyResultIsNotError(t *testing.T) {
	adapter, _ := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products": []}`))
	}, nil)

	products, err := adapter.Search(context.Background(), "unobtainium")
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestSearchTransportFailure(t *testing.T) {
	adapter, srv := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {}, nil)
	srv.Close()

	_, err := adapter.Search(context.Background(), "milk")
	require.Error(t, err)
	assert.Equal(t, common.ErrCodeStoreQueryFailed, common.ErrorCode(err))
}

func TestSearchServerError(t *testing.T) {
	adapter, _ := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, nil)

	_, err := adapter.Search(context.Background(), "milk")
	require.Error(t, err)
	assert.Equal(t, common.ErrCodeStoreQueryFailed, common.ErrorCode(err))
}

func TestSearchUsesCache(t *testing.T) {
	hits := 0
	mem := cache.NewManager(config.CacheConfig{
		Enabled: true, Backend: "memory", MaxSize: 10,
		TTL: time.Minute, CleanupInterval: time.Minute,
	})
	defer mem.Close()

	adapter, _ := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"products": [{"name": "Milk 1L", "price": 2.2}]}`))
	}, mem)

	first, err := adapter.Search(context.Background(), "milk")
	require.NoError(t, err)
	second, err := adapter.Search(context.Background(), "Milk")
	require.NoError(t, err)

	assert.Equal(t, 1, hits, "同一查詢（大小寫不計）應命中快取")
	assert.Equal(t, first, second)
}

func TestParsePriceCents(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
		ok   bool
	}{
		{"3.5", 350, true},
		{"3.50", 350, true},
		{"$4.95", 495, true},
		{"0.05", 5, true},
		{"0", 0, false},
		{"-1.00", 0, false},
		{"", 0, false},
		{"free", 0, false},
	}

	for _, tt := range tests {
		got, ok := parsePriceCents(tt.raw)
		assert.Equal(t, tt.ok, ok, "raw=%q", tt.raw)
		if ok {
			assert.Equal(t, tt.want, got, "raw=%q", tt.raw)
		}
	}
}

func TestStoreConfigTable(t *testing.T) {
	for _, id := range StoresForRegion(RegionAU) {
		cfg, ok := GetConfig(id)
		require.True(t, ok)
		assert.NotEmpty(t, cfg.SearchURL)
		assert.NotEmpty(t, cfg.SearchParam)
		assert.Contains(t, cfg.SearchURLFor("olive oil"), cfg.SearchParam+"=olive+oil")
	}

	assert.False(t, ValidStore(common.Store("costco")))
	assert.Len(t, DisplayNames(), 4)
}
