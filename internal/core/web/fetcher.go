package web

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"recipe-shoplist/internal/core/cache"
	"recipe-shoplist/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Fetcher 抓取食譜網頁並轉為純文字
type Fetcher struct {
	client *resty.Client
	cache  cache.Cache
	// 交給模型的文字上限，過長的頁面會被截斷
	maxTextLen int
}

// NewFetcher 創建網頁抓取器
func NewFetcher(cacheSvc cache.Cache, timeout time.Duration) *Fetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; recipe-shoplist/1.0)").
		SetHeader("Accept", "text/html,application/xhtml+xml")

	return &Fetcher{
		client:     client,
		cache:      cacheSvc,
		maxTextLen: 20000,
	}
}

// FetchText 抓取網頁並回傳去除標記的純文字
func (f *Fetcher) FetchText(ctx context.Context, url string) (string, error) {
	key := cache.PageKey(url)
	if f.cache != nil {
		if val, ok := f.cache.Get(ctx, key); ok {
			common.LogCacheHit("page", key)
			return val, nil
		}
		common.LogCacheMiss("page", key)
	}

	start := time.Now()
	resp, err := f.client.R().
		SetContext(ctx).
		Get(url)

	if err != nil {
		return "", common.WrapError(common.ErrExtractionFailed,
			fmt.Errorf("failed to fetch page: %w", err))
	}

	if resp.StatusCode() != http.StatusOK {
		return "", common.WrapError(common.ErrExtractionFailed,
			fmt.Errorf("page returned %d", resp.StatusCode()))
	}

	text := StripHTML(resp.String())
	if len(text) > f.maxTextLen {
		text = text[:f.maxTextLen]
	}

	common.LogInfo("網頁抓取完成",
		zap.String("url", url),
		zap.Int("文字長度", len(text)),
		zap.Duration("耗時", time.Since(start)),
	)

	if f.cache != nil {
		_ = f.cache.Set(ctx, key, text)
	}

	return text, nil
}

var (
	scriptPattern = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	tagPattern    = regexp.MustCompile(`(?s)<[^>]+>`)
	spacePattern  = regexp.MustCompile(`[ \t]+`)
	linePattern   = regexp.MustCompile(`\n{3,}`)
)

// StripHTML 去除 script/style 與標記，保留文字內容
func StripHTML(html string) string {
	text := scriptPattern.ReplaceAllString(html, " ")
	text = tagPattern.ReplaceAllString(text, "\n")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", `"`)
	text = strings.ReplaceAll(text, "&#39;", "'")

	text = spacePattern.ReplaceAllString(text, " ")

	// 去除每行前後空白並壓縮空行
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = linePattern.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
