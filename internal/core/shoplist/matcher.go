package shoplist

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"recipe-shoplist/internal/pkg/common"

	"go.uber.org/zap"
)

// token 權重：核心食材詞比修飾詞重要
const (
	weightFood    = 3.0
	weightDefault = 1.0
)

// foodTerms 高權重的核心食材詞
var foodTerms = map[string]bool{
	// 蛋白質
	"chicken": true, "beef": true, "pork": true, "fish": true, "salmon": true,
	"turkey": true, "lamb": true, "shrimp": true, "prawn": true, "tuna": true,
	"bacon": true, "sausage": true, "steak": true, "ham": true, "mince": true,
	"tofu": true, "egg": true,
	// 乳製品
	"milk": true, "cheese": true, "yogurt": true, "yoghurt": true, "butter": true,
	"cream": true, "cheddar": true, "mozzarella": true, "parmesan": true, "feta": true,
	// 穀物
	"bread": true, "rice": true, "pasta": true, "spaghetti": true, "noodle": true,
	"flour": true, "oat": true, "cereal": true, "tortilla": true, "couscous": true,
	// 蔬果
	"apple": true, "banana": true, "orange": true, "lettuce": true, "tomato": true,
	"potato": true, "onion": true, "carrot": true, "broccoli": true, "spinach": true,
	"garlic": true, "ginger": true, "cucumber": true, "capsicum": true, "pepper": true,
	"lemon": true, "lime": true, "avocado": true, "mushroom": true, "corn": true,
	"bean": true, "pea": true, "zucchini": true, "pumpkin": true, "celery": true,
	"strawberry": true, "blueberry": true, "grape": true, "mango": true, "chilli": true,
	// 調味與醬料
	"salt": true, "sugar": true, "oil": true, "vinegar": true, "sauce": true,
	"honey": true, "mustard": true, "mayonnaise": true, "stock": true, "broth": true,
	"paste": true, "soy": true, "basil": true, "oregano": true, "parsley": true,
	"coriander": true, "cumin": true, "paprika": true, "cinnamon": true, "thyme": true,
	"rosemary": true,
	// 其他
	"chocolate": true, "coffee": true, "tea": true, "juice": true, "wine": true,
	"water": true, "coconut": true, "almond": true, "peanut": true, "walnut": true,
}

// matchStopWords 不參與比對的詞
var matchStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true,
	"in": true, "on": true, "to": true, "for": true, "with": true, "per": true,
	"each": true, "pack": true, "bag": true, "box": true, "bottle": true,
	"can": true, "tin": true, "jar": true, "punnet": true, "bunch": true,
	"tray": true, "tub": true, "value": true, "family": true, "size": true,
}

// sizeTokenPattern 純數字或數字加單位的 token（400g、1l、6pk）
var sizeTokenPattern = regexp.MustCompile(`^\d+(?:\.\d+)?(?:g|kg|ml|l|pk|ea|pcs?)?$`)

var matchPunctPattern = regexp.MustCompile(`[^\w\s]`)

// matchTokens 將名稱切為帶權重的比對 token
// 小寫、去標點、去停用詞與尺寸標記、複數還原
func matchTokens(name string) map[string]float64 {
	cleaned := matchPunctPattern.ReplaceAllString(strings.ToLower(name), " ")

	tokens := make(map[string]float64)
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 1 || matchStopWords[word] || sizeTokenPattern.MatchString(word) {
			continue
		}
		word = singularize(word)
		if foodTerms[word] {
			tokens[word] = weightFood
		} else {
			tokens[word] = weightDefault
		}
	}
	return tokens
}

// lexicalScore 以加權 Dice 係數計算 0–1 相似度
// 核心食材詞的重疊比修飾詞的重疊更能決定分數
func lexicalScore(ingredientName, productName string) float64 {
	ingTokens := matchTokens(ingredientName)
	prodTokens := matchTokens(productName)
	if len(ingTokens) == 0 || len(prodTokens) == 0 {
		return 0
	}

	var ingWeight, prodWeight, overlap float64
	for _, w := range ingTokens {
		ingWeight += w
	}
	for tok, w := range prodTokens {
		prodWeight += w
		if _, ok := ingTokens[tok]; ok {
			overlap += w
		}
	}

	return 2 * overlap / (ingWeight + prodWeight)
}

// Chooser AI 比對能力，由 ai/service 實作
type Chooser interface {
	Choose(ctx context.Context, ingredientName string, candidates []common.Product) (*common.ChoiceResult, error)
}

// Matcher 為單一商店的候選商品挑出最符合的一項
type Matcher struct {
	chooser       Chooser
	highThreshold float64
	lowThreshold  float64
}

// NewMatcher 創建比對器
func NewMatcher(chooser Chooser, highThreshold, lowThreshold float64) *Matcher {
	return &Matcher{
		chooser:       chooser,
		highThreshold: highThreshold,
		lowThreshold:  lowThreshold,
	}
}

// scoredCandidate 打分後的候選商品
type scoredCandidate struct {
	product common.Product
	score   float64
}

// Match 為一個食材在單一商店的候選商品中挑選
// 高信心直接選取；多個低信心候選交給 AI 裁決，AI 結果具權威性，
// AI 失敗時退回最佳詞彙候選；皆低於下限視為未比對（正常結果）
func (m *Matcher) Match(ctx context.Context, ingredient common.Ingredient, candidates []common.Product) common.StoreMatch {
	if len(candidates) == 0 {
		return common.StoreMatch{}
	}

	scored := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		score := lexicalScore(ingredient.Name, c.Name)
		if score >= m.lowThreshold {
			scored = append(scored, scoredCandidate{product: c, score: score})
		}
	}

	if len(scored) == 0 {
		return common.StoreMatch{}
	}

	// 同分時保持原始順序，結果必須可重現
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	best := scored[0]

	// 高信心：直接選取，不呼叫 AI
	if best.score >= m.highThreshold {
		return common.StoreMatch{
			Product: &best.product,
			Score:   best.score,
		}
	}

	// 僅一個候選過門檻時沒有歧義可裁決
	if len(scored) == 1 || m.chooser == nil {
		return common.StoreMatch{
			Product: &best.product,
			Score:   best.score,
		}
	}

	ranked := make([]common.Product, len(scored))
	for i, sc := range scored {
		ranked[i] = sc.product
	}

	result, err := m.chooser.Choose(ctx, ingredient.Name, ranked)
	if err != nil {
		// AI 失敗退回詞彙最佳候選，不中斷其他食材
		common.LogWarn("AI 比對失敗，退回詞彙比對",
			zap.String("食材", ingredient.Name),
			zap.Error(err),
		)
		return common.StoreMatch{
			Product:   &best.product,
			Score:     best.score,
			Reasoning: fmt.Sprintf("lexical fallback: %v", err),
		}
	}

	// AI 判定皆不合適
	if result.ChosenIndex == nil {
		return common.StoreMatch{Reasoning: result.Reasoning}
	}

	chosen := scored[*result.ChosenIndex]
	return common.StoreMatch{
		Product:   &chosen.product,
		Score:     chosen.score,
		Reasoning: result.Reasoning,
	}
}
