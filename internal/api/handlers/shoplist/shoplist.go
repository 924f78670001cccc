package shoplist

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"recipe-shoplist/internal/core/shoplist"
	"recipe-shoplist/internal/core/store"
	"recipe-shoplist/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 購物清單處理器
type Handler struct {
	svc *shoplist.Service
}

// NewHandler 創建購物清單處理器
func NewHandler(svc *shoplist.Service) *Handler {
	return &Handler{svc: svc}
}

// ProcessRequest 處理請求
// stores 非空時只查詢指定的商店
type ProcessRequest struct {
	URL      string   `json:"url" binding:"required"`
	Strategy string   `json:"strategy,omitempty"`
	Stores   []string `json:"stores,omitempty"`
}

// HandleProcess POST /api/v1/shoplist/process
// 從食譜 URL 產生購物計畫
func (h *Handler) HandleProcess(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "url is required",
		})
		return
	}

	parsed, err := url.Parse(req.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "url must be an absolute http(s) URL",
		})
		return
	}

	strategy := common.Strategy(strings.ToLower(strings.TrimSpace(req.Strategy)))
	switch strategy {
	case "", common.StrategySingleStore, common.StrategyMultiStore:
	default:
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "strategy must be single_store or multi_store",
		})
		return
	}

	stores := make([]common.Store, 0, len(req.Stores))
	for _, s := range req.Stores {
		id := common.Store(strings.ToLower(strings.TrimSpace(s)))
		if !store.ValidStore(id) {
			c.JSON(http.StatusBadRequest, common.ErrorResponse{
				Code:    common.ErrCodeInvalidRequest,
				Message: fmt.Sprintf("unknown store: %s", s),
			})
			return
		}
		stores = append(stores, id)
	}

	result, err := h.svc.ProcessRecipe(c.Request.Context(), req.URL, strategy, stores)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// StoreInfo 商店資訊
type StoreInfo struct {
	ID          common.Store `json:"id"`
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name"`
	Region      store.Region `json:"region"`
	BaseURL     string       `json:"base_url"`
	Delivery    bool         `json:"supports_delivery"`
}

// HandleStores GET /api/v1/stores
// 列出已設定的商店
func (h *Handler) HandleStores(c *gin.Context) {
	stores := make([]StoreInfo, 0, len(common.StoreOrder))
	for _, id := range common.StoreOrder {
		cfg, ok := store.GetConfig(id)
		if !ok {
			continue
		}
		stores = append(stores, StoreInfo{
			ID:          cfg.ID,
			Name:        cfg.Name,
			DisplayName: cfg.DisplayName,
			Region:      cfg.Region,
			BaseURL:     cfg.BaseURL,
			Delivery:    cfg.SupportsDelivery,
		})
	}

	c.JSON(http.StatusOK, gin.H{"stores": stores})
}

// writeError 將管線錯誤映射為 HTTP 響應
func writeError(c *gin.Context, err error) {
	var ce *common.CustomError
	if errors.As(err, &ce) {
		common.LogWarn("購物清單處理失敗",
			zap.String("code", ce.Code),
			zap.Error(err),
		)
		c.JSON(ce.Status, common.ErrorResponse{
			Code:    ce.Code,
			Message: ce.Message,
		})
		return
	}

	common.LogError("購物清單處理失敗", zap.Error(err))
	c.JSON(http.StatusInternalServerError, common.ErrorResponse{
		Code:    common.ErrCodeInternalError,
		Message: "internal error",
	})
}
