package shoplist

import (
	"regexp"
	"strings"

	"recipe-shoplist/internal/pkg/common"

	"github.com/shopspring/decimal"
)

// unitSynonyms 單位同義詞表，鍵一律為小寫單數
var unitSynonyms = map[string]common.Unit{
	"g":           common.UnitGram,
	"gram":        common.UnitGram,
	"gm":          common.UnitGram,
	"kg":          common.UnitKilogram,
	"kilo":        common.UnitKilogram,
	"kilogram":    common.UnitKilogram,
	"ml":          common.UnitMilliliter,
	"milliliter":  common.UnitMilliliter,
	"millilitre":  common.UnitMilliliter,
	"l":           common.UnitLiter,
	"liter":       common.UnitLiter,
	"litre":       common.UnitLiter,
	"piece":       common.UnitPiece,
	"pc":          common.UnitPiece,
	"pcs":         common.UnitPiece,
	"whole":       common.UnitPiece,
	"cup":         common.UnitCup,
	"c":           common.UnitCup,
	"tbsp":        common.UnitTablespoon,
	"tbs":         common.UnitTablespoon,
	"tablespoon":  common.UnitTablespoon,
	"tsp":         common.UnitTeaspoon,
	"teaspoon":    common.UnitTeaspoon,
	"clove":       common.UnitClove,
	// "pinch"/"dash" 無法換算為固定量，保留數量但單位視為未知
	"pinch": common.UnitUnknown,
	"dash":  common.UnitUnknown,
}

var (
	rangePattern    = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*[-~]\s*(\d+(?:\.\d+)?)$`)
	fractionPattern = regexp.MustCompile(`^(?:(\d+)\s+)?(\d+)\s*/\s*(\d+)$`)
	numberPattern   = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// Normalize 將自由文字的數量與單位解析為標準形式
// 無法解析的數量回傳 nil、無法識別的單位回傳 UnitUnknown，一律不報錯：
// 缺數量只影響成本換算，不影響商品搜尋
func Normalize(rawQuantity, rawUnit string) (*decimal.Decimal, common.Unit) {
	return parseQuantity(rawQuantity), parseUnit(rawUnit)
}

// parseQuantity 解析數字、分數（含帶分數）與範圍
// 範圍取上下界平均，四捨五入到小數點後兩位
func parseQuantity(raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if numberPattern.MatchString(raw) {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil
		}
		return &d
	}

	if m := fractionPattern.FindStringSubmatch(raw); m != nil {
		den, err := decimal.NewFromString(m[3])
		if err != nil || den.IsZero() {
			return nil
		}
		num, err := decimal.NewFromString(m[2])
		if err != nil {
			return nil
		}
		result := num.Div(den).Round(2)
		if m[1] != "" {
			whole, err := decimal.NewFromString(m[1])
			if err != nil {
				return nil
			}
			result = whole.Add(result)
		}
		return &result
	}

	if m := rangePattern.FindStringSubmatch(raw); m != nil {
		lo, err1 := decimal.NewFromString(m[1])
		hi, err2 := decimal.NewFromString(m[2])
		if err1 != nil || err2 != nil {
			return nil
		}
		avg := lo.Add(hi).Div(decimal.NewFromInt(2)).Round(2)
		return &avg
	}

	return nil
}

// parseUnit 解析單位，大小寫與複數不敏感
func parseUnit(raw string) common.Unit {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return common.UnitUnknown
	}

	if u, ok := unitSynonyms[raw]; ok {
		return u
	}
	if u, ok := unitSynonyms[singularize(raw)]; ok {
		return u
	}

	return common.UnitUnknown
}

// singularize 去除簡單的英文複數字尾
func singularize(word string) string {
	if strings.HasSuffix(word, "es") && len(word) > 3 {
		trimmed := word[:len(word)-2]
		if strings.HasSuffix(trimmed, "o") || strings.HasSuffix(trimmed, "ch") ||
			strings.HasSuffix(trimmed, "sh") || strings.HasSuffix(trimmed, "s") ||
			strings.HasSuffix(trimmed, "x") {
			return trimmed
		}
	}
	if strings.HasSuffix(word, "s") && len(word) > 2 && !strings.HasSuffix(word, "ss") {
		return word[:len(word)-1]
	}
	return word
}

var nameCleanPattern = regexp.MustCompile(`[^a-z0-9 \-&]`)
var parenPattern = regexp.MustCompile(`\(.*?\)`)

// NormalizeIngredients 將擷取結果整批標準化
// 名稱轉小寫並去除括號註記，original_text 保持原樣
func NormalizeIngredients(extracted []common.ExtractedIngredient) []common.Ingredient {
	out := make([]common.Ingredient, 0, len(extracted))
	for _, e := range extracted {
		name := strings.ToLower(strings.TrimSpace(e.Name))
		name = parenPattern.ReplaceAllString(name, "")
		name = nameCleanPattern.ReplaceAllString(name, "")
		name = strings.Join(strings.Fields(name), " ")
		if name == "" {
			continue
		}

		quantity, unit := Normalize(e.Quantity.String(), e.Unit)
		originalText := e.OriginalText
		if originalText == "" {
			originalText = e.Name
		}

		out = append(out, common.Ingredient{
			Name:         name,
			Quantity:     quantity,
			Unit:         unit,
			OriginalText: originalText,
		})
	}
	return out
}
