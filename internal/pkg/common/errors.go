package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap 支援 errors.Is / errors.As
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// WrapError 以預定義錯誤為模板包裝原始錯誤
func WrapError(template *CustomError, err error) *CustomError {
	return &CustomError{
		Code:    template.Code,
		Message: template.Message,
		Status:  template.Status,
		Err:     err,
	}
}

// ErrorCode 取出自定義錯誤代碼，非 CustomError 回傳 INTERNAL_ERROR
func ErrorCode(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrCodeInternalError
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 408
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504

	// 管線錯誤
	ErrCodeExtractionFailed    = "EXTRACTION_FAILED"    // AI 擷取失敗或格式錯誤
	ErrCodeStoreQueryFailed    = "STORE_QUERY_FAILED"   // 單一商店查詢失敗（可隔離）
	ErrCodeMatchingFailed      = "MATCHING_FAILED"      // AI 比對失敗（可隔離）
	ErrCodeNoIngredients       = "NO_INGREDIENTS"       // 食譜未擷取出任何食材
	ErrCodeNoMatches           = "NO_MATCHES"           // 有食材但所有商店皆無比對
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE" // 供應商暫時不可用，稍後重試
	ErrCodeConfiguration       = "CONFIGURATION_ERROR"  // 啟動時缺少必要設定
)

// 預定義錯誤
var (
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrRequestTimeout  = NewError(ErrCodeRequestTimeout, "請求超時", http.StatusRequestTimeout, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)

	ErrInternalError      = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "服務暫時不可用", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "網關超時", http.StatusGatewayTimeout, nil)

	// 業務錯誤
	ErrExtractionFailed    = NewError(ErrCodeExtractionFailed, "食譜擷取失敗", http.StatusBadGateway, nil)
	ErrStoreQueryFailed    = NewError(ErrCodeStoreQueryFailed, "商店查詢失敗", http.StatusBadGateway, nil)
	ErrMatchingFailed      = NewError(ErrCodeMatchingFailed, "商品比對失敗", http.StatusBadGateway, nil)
	ErrNoIngredients       = NewError(ErrCodeNoIngredients, "食譜未擷取出任何食材", http.StatusUnprocessableEntity, nil)
	ErrNoMatches           = NewError(ErrCodeNoMatches, "所有商店皆無符合的商品", http.StatusNotFound, nil)
	ErrProviderUnavailable = NewError(ErrCodeProviderUnavailable, "AI 供應商暫時不可用，請稍後重試", http.StatusServiceUnavailable, nil)
	ErrCacheFull           = NewError("CACHE_FULL", "緩存已滿", http.StatusServiceUnavailable, nil)
	ErrCacheDisabled       = NewError("CACHE_DISABLED", "緩存已禁用", http.StatusServiceUnavailable, nil)
)
