package recipe

import (
	"sort"
)

// DefaultMinMatch match_recipes 未指定門檻時的預設值
const DefaultMinMatch = 50.0

// StapleTiers 排名時假設使用者已擁有的兩層常備食材
type StapleTiers struct {
	Dry   []string // 乾貨調味料：鹽、油、香料
	Fresh []string // 常見生鮮：薑、蒜、洋蔥
}

// DefaultStapleTiers 預設常備食材
func DefaultStapleTiers() StapleTiers {
	return StapleTiers{
		Dry:   []string{"namak", "tel", "haldi", "laal_mirch", "dhania_powder", "zeera", "garam_masala"},
		Fresh: []string{"adrak", "lehsun", "piyaaz", "lehsun_paste"},
	}
}

// Augment 回傳使用者食材加上兩層常備食材的聯集（去重，保持順序）
func (t StapleTiers) Augment(userIngredients []string) []string {
	out := make([]string, 0, len(userIngredients)+len(t.Dry)+len(t.Fresh))
	seen := make(map[string]struct{}, cap(out))
	for _, group := range [][]string{userIngredients, t.Dry, t.Fresh} {
		for _, ing := range group {
			if _, ok := seen[ing]; ok {
				continue
			}
			seen[ing] = struct{}{}
			out = append(out, ing)
		}
	}
	return out
}

// MatchRecipes 以寬鬆模式（計入 pantry）比對整個目錄，
// 保留分數 >= minMatch 的結果，依分數由高至低穩定排序。
func MatchRecipes(recipes []*Recipe, userIngredients []string, minMatch float64) []Match {
	matches := make([]Match, 0, len(recipes))
	for _, r := range recipes {
		m := CalculateMatch(r, userIngredients, true)
		if m.MatchPercentage >= minMatch {
			matches = append(matches, m)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchPercentage > matches[j].MatchPercentage
	})
	return matches
}

// Ranker 排名與呈現流程
type Ranker struct {
	catalog *Catalog
	staples StapleTiers
}

// NewRanker 創建排名器
func NewRanker(catalog *Catalog, staples StapleTiers) *Ranker {
	return &Ranker{
		catalog: catalog,
		staples: staples,
	}
}

// RankAndPresent 兩階段比對：
//
//  1. 寬鬆排名：使用者食材加上常備食材，計入 pantry，過濾 minMatch 並排序。
//  2. 嚴格呈現：以使用者原始食材、不計 pantry 重新計算 has/missing，
//     覆寫到結果上，分數維持第一階段的值。
func (rk *Ranker) RankAndPresent(userIngredients []string, minMatch float64) []Match {
	augmented := rk.staples.Augment(userIngredients)
	matches := MatchRecipes(rk.catalog.All(), augmented, minMatch)

	for i := range matches {
		strict := CalculateMatch(matches[i].Recipe, userIngredients, false)
		matches[i].HasIngredients = strict.HasIngredients
		matches[i].MissingIngredients = strict.MissingIngredients
	}
	return matches
}

// Staples 回傳目前使用的常備食材
func (rk *Ranker) Staples() StapleTiers {
	return rk.staples
}
