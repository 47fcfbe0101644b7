package recipe

// CalculateMatch 計算單一食譜與使用者食材的比對結果。
//
// has/missing 只涵蓋 detectable ∪ non_detectable，並依食譜宣告順序排列；
// pantry 永遠不會出現在這兩個清單中。includePantry 為 true 時，
// 食譜的 pantry 食材視為已擁有，但只計入百分比。
// 沒有必要食材的食譜得分為 100。
func CalculateMatch(r *Recipe, userIngredients []string, includePantry bool) Match {
	userSet := toSet(userIngredients)

	var pantry map[string]struct{}
	if includePantry {
		pantry = toSet(r.Ingredients.Pantry)
	}

	required := r.RequiredIngredients()
	has := make([]string, 0, len(required))
	missing := make([]string, 0, len(required))
	matched := 0

	for _, ing := range required {
		_, owned := userSet[ing]
		if owned {
			has = append(has, ing)
		} else {
			missing = append(missing, ing)
		}

		if _, assumed := pantry[ing]; owned || assumed {
			matched++
		}
	}

	percentage := 100.0
	if len(required) > 0 {
		percentage = float64(matched) / float64(len(required)) * 100
	}

	return Match{
		Recipe:             r,
		MatchPercentage:    percentage,
		HasIngredients:     has,
		MissingIngredients: missing,
	}
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
