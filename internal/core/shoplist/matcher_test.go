package shoplist

import (
	"context"
	"fmt"
	"testing"

	"recipe-shoplist/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingChooser 測試用的 AI 比對能力，記錄呼叫次數
type countingChooser struct {
	calls  int
	result *common.ChoiceResult
	err    error
}

func (c *countingChooser) Choose(ctx context.Context, name string, candidates []common.Product) (*common.ChoiceResult, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	if c.result != nil {
		return c.result, nil
	}
	idx := 0
	return &common.ChoiceResult{ChosenIndex: &idx, Reasoning: "stub"}, nil
}

func ingredient(name string) common.Ingredient {
	return common.Ingredient{Name: name, Unit: common.UnitUnknown, OriginalText: name}
}

func TestLexicalScore(t *testing.T) {
	// 核心食材詞重疊時分數高，僅修飾詞不同影響有限
	high := lexicalScore("tomatoes", "Cherry Tomatoes 400g")
	mid := lexicalScore("tomatoes", "Tomato Sauce 500ml")
	zero := lexicalScore("tomatoes", "Chocolate Biscuits")

	assert.GreaterOrEqual(t, high, 0.8, "同核心詞應達高信心")
	assert.Less(t, mid, 0.8)
	assert.GreaterOrEqual(t, mid, 0.3)
	assert.Less(t, zero, 0.3)

	// 大小寫與複數不敏感
	assert.Equal(t,
		lexicalScore("Tomatoes", "cherry tomato"),
		lexicalScore("tomato", "Cherry Tomatoes"),
	)
}

func TestMatchHighConfidenceSkipsAI(t *testing.T) {
	chooser := &countingChooser{}
	m := NewMatcher(chooser, 0.8, 0.3)

	candidates := []common.Product{
		{Name: "Cherry Tomatoes 400g", Store: common.StoreColes, Price: 350},
		{Name: "Tomato Sauce 500ml", Store: common.StoreColes, Price: 280},
	}

	match := m.Match(context.Background(), ingredient("tomatoes"), candidates)
	require.NotNil(t, match.Product)
	assert.Equal(t, "Cherry Tomatoes 400g", match.Product.Name)
	assert.GreaterOrEqual(t, match.Score, 0.8)
	assert.Zero(t, chooser.calls, "高信心比對不應呼叫 AI")
}

func TestMatchAmbiguousDelegatesToAI(t *testing.T) {
	idx := 1
	chooser := &countingChooser{result: &common.ChoiceResult{ChosenIndex: &idx, Reasoning: "plain paste is closer"}}
	m := NewMatcher(chooser, 0.8, 0.3)

	candidates := []common.Product{
		{Name: "Tomato Sauce 500ml", Store: common.StoreColes, Price: 280},
		{Name: "Tomato Paste 170g", Store: common.StoreColes, Price: 150},
	}

	match := m.Match(context.Background(), ingredient("tomatoes"), candidates)
	require.NotNil(t, match.Product)
	assert.Equal(t, 1, chooser.calls)
	assert.Equal(t, "Tomato Paste 170g", match.Product.Name, "AI 結果具權威性")
	assert.Equal(t, "plain paste is closer", match.Reasoning)
}

func TestMatchAIRejectsAll(t *testing.T) {
	chooser := &countingChooser{result: &common.ChoiceResult{Reasoning: "none suitable"}}
	m := NewMatcher(chooser, 0.8, 0.3)

	candidates := []common.Product{
		{Name: "Tomato Sauce 500ml"},
		{Name: "Tomato Paste 170g"},
	}

	match := m.Match(context.Background(), ingredient("tomatoes"), candidates)
	assert.Nil(t, match.Product, "AI 判定皆不合適時視為未比對")
	assert.Equal(t, "none suitable", match.Reasoning)
}

func TestMatchAIErrorFallsBackToLexical(t *testing.T) {
	chooser := &countingChooser{err: fmt.Errorf("provider down")}
	m := NewMatcher(chooser, 0.8, 0.3)

	candidates := []common.Product{
		{Name: "Tomato Sauce 500ml"},
		{Name: "Tomato Paste 170g"},
	}

	match := m.Match(context.Background(), ingredient("tomatoes"), candidates)
	require.NotNil(t, match.Product, "AI 失敗應退回詞彙最佳候選")
	assert.Equal(t, 1, chooser.calls)
}

func TestMatchSingleCandidateAboveFloor(t *testing.T) {
	chooser := &countingChooser{}
	m := NewMatcher(chooser, 0.8, 0.3)

	candidates := []common.Product{
		{Name: "Tomato Sauce 500ml"},
		{Name: "Chocolate Biscuits"},
	}

	match := m.Match(context.Background(), ingredient("tomatoes"), candidates)
	require.NotNil(t, match.Product)
	assert.Equal(t, "Tomato Sauce 500ml", match.Product.Name)
	assert.Zero(t, chooser.calls, "僅一個候選過門檻時沒有歧義可裁決")
}

func TestMatchNoCandidateAboveFloor(t *testing.T) {
	chooser := &countingChooser{}
	m := NewMatcher(chooser, 0.8, 0.3)

	candidates := []common.Product{
		{Name: "Chocolate Biscuits"},
		{Name: "Laundry Powder 2kg"},
	}

	match := m.Match(context.Background(), ingredient("saffron threads"), candidates)
	assert.Nil(t, match.Product)
	assert.Zero(t, chooser.calls)
}

func TestMatchEmptyCandidates(t *testing.T) {
	m := NewMatcher(&countingChooser{}, 0.8, 0.3)
	match := m.Match(context.Background(), ingredient("milk"), nil)
	assert.Nil(t, match.Product)
}

func TestMatchDeterministic(t *testing.T) {
	m := NewMatcher(nil, 0.8, 0.3)
	candidates := []common.Product{
		{Name: "Tomato Sauce 500ml", Price: 280},
		{Name: "Tomato Paste 170g", Price: 150},
	}

	first := m.Match(context.Background(), ingredient("tomatoes"), candidates)
	second := m.Match(context.Background(), ingredient("tomatoes"), candidates)
	assert.Equal(t, first, second)
}
