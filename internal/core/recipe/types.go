package recipe

// Ingredients 食譜食材，依可否被辨識分為四類
type Ingredients struct {
	Detectable    []string `json:"detectable" validate:"dive,required"`     // 模型可辨識的食材
	NonDetectable []string `json:"non_detectable" validate:"dive,required"` // 需手動輸入的食材（如肉類）
	Pantry        []string `json:"pantry" validate:"dive,required"`         // 常備調味料
	Optional      []string `json:"optional" validate:"dive,required"`       // 不影響比對
}

// Recipe 食譜，載入後不可變
type Recipe struct {
	ID           string                 `json:"id" validate:"required"`
	Name         string                 `json:"name" validate:"required"`
	NameUrdu     string                 `json:"name_urdu" validate:"required"`
	Category     string                 `json:"category" validate:"required"`
	Ingredients  Ingredients            `json:"ingredients"`
	Instructions []string               `json:"instructions" validate:"required,min=1,dive,required"`
	Nutrition    map[string]interface{} `json:"nutrition" validate:"required"`
	Allergens    []string               `json:"allergens"`
	CookTime     int                    `json:"cook_time" validate:"gte=0"`
	PrepTime     int                    `json:"prep_time" validate:"gte=0"`
	Difficulty   string                 `json:"difficulty" validate:"required"`
	Servings     int                    `json:"servings" validate:"gt=0"`
}

// RequiredIngredients 回傳 detectable ∪ non_detectable，保持宣告順序並去重
func (r *Recipe) RequiredIngredients() []string {
	seen := make(map[string]struct{}, len(r.Ingredients.Detectable)+len(r.Ingredients.NonDetectable))
	out := make([]string, 0, len(r.Ingredients.Detectable)+len(r.Ingredients.NonDetectable))
	for _, group := range [][]string{r.Ingredients.Detectable, r.Ingredients.NonDetectable} {
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

// Match 單一食譜的比對結果，每次請求重新計算
type Match struct {
	Recipe             *Recipe  `json:"recipe"`
	MatchPercentage    float64  `json:"match_percentage"`
	MissingIngredients []string `json:"missing_ingredients"`
	HasIngredients     []string `json:"has_ingredients"`
}

// Filter 目錄查詢條件，零值代表不限制
type Filter struct {
	Category    string `json:"category,omitempty" form:"category"`
	Difficulty  string `json:"difficulty,omitempty" form:"difficulty"`
	MaxCookTime int    `json:"max_time,omitempty" form:"max_time"`
}

// Matches 判斷食譜是否符合所有條件
func (f Filter) Matches(r *Recipe) bool {
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Difficulty != "" && r.Difficulty != f.Difficulty {
		return false
	}
	if f.MaxCookTime > 0 && r.CookTime > f.MaxCookTime {
		return false
	}
	return true
}

// IngredientVocabulary 手動選擇食材用的詞彙表
type IngredientVocabulary struct {
	Detectable []string            `json:"detectable"`
	Common     map[string][]string `json:"common"`
	Pantry     []string            `json:"pantry"`
}
