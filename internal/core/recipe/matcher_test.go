package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func karahi() *Recipe {
	return &Recipe{
		ID:   "chicken_karahi",
		Name: "Chicken Karahi",
		Ingredients: Ingredients{
			Detectable:    []string{"tamatar", "piyaaz"},
			NonDetectable: []string{"chicken"},
			Pantry:        []string{"namak", "tel"},
			Optional:      []string{"dahi"},
		},
	}
}

func TestCalculateMatch_StrictScenario(t *testing.T) {
	m := CalculateMatch(karahi(), []string{"tamatar"}, false)

	assert.Equal(t, []string{"tamatar"}, m.HasIngredients)
	assert.Equal(t, []string{"piyaaz", "chicken"}, m.MissingIngredients)
	assert.InDelta(t, 100.0/3.0, m.MatchPercentage, 1e-9)
}

func TestCalculateMatch_PantryOnlyCountsWhenIncluded(t *testing.T) {
	r := &Recipe{
		ID: "namak_chawal",
		Ingredients: Ingredients{
			Detectable: []string{"chawal", "namak"},
			Pantry:     []string{"namak"},
		},
	}

	lenient := CalculateMatch(r, nil, true)
	assert.InDelta(t, 50.0, lenient.MatchPercentage, 1e-9)
	assert.Empty(t, lenient.HasIngredients, "pantry must never be reported as has")
	assert.Equal(t, []string{"chawal", "namak"}, lenient.MissingIngredients)

	strict := CalculateMatch(r, nil, false)
	assert.Equal(t, 0.0, strict.MatchPercentage)
}

func TestCalculateMatch_PantryNeverListed(t *testing.T) {
	m := CalculateMatch(karahi(), []string{"namak", "tel", "tamatar"}, true)

	assert.NotContains(t, m.HasIngredients, "namak")
	assert.NotContains(t, m.HasIngredients, "tel")
	assert.NotContains(t, m.MissingIngredients, "namak")
	assert.NotContains(t, m.MissingIngredients, "tel")
	assert.NotContains(t, m.MissingIngredients, "dahi")
}

func TestCalculateMatch_EmptyUserInput(t *testing.T) {
	tests := []struct {
		name   string
		recipe *Recipe
		want   float64
	}{
		{"with requirements", karahi(), 0},
		{"no requirements", &Recipe{ID: "lassi", Ingredients: Ingredients{Pantry: []string{"namak"}}}, 100},
		{"only optional", &Recipe{ID: "salad", Ingredients: Ingredients{Optional: []string{"kheera"}}}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := CalculateMatch(tt.recipe, []string{}, false)
			assert.Equal(t, tt.want, m.MatchPercentage)
		})
	}
}

func TestCalculateMatch_FullSetScoresHundred(t *testing.T) {
	r := karahi()
	all := append(append(append([]string{}, r.Ingredients.Detectable...), r.Ingredients.NonDetectable...), r.Ingredients.Pantry...)
	all = append(all, "unrelated")

	m := CalculateMatch(r, all, true)
	assert.Equal(t, 100.0, m.MatchPercentage)
	assert.Empty(t, m.MissingIngredients)
}

func TestCalculateMatch_StrictPartition(t *testing.T) {
	recipes := []*Recipe{
		karahi(),
		{ID: "dup", Ingredients: Ingredients{Detectable: []string{"aloo", "aloo"}, NonDetectable: []string{"aloo", "keema"}}},
		{ID: "empty"},
	}
	inputs := [][]string{nil, {"aloo"}, {"tamatar", "chicken", "zzz"}, {"keema", "piyaaz"}}

	for _, r := range recipes {
		for _, in := range inputs {
			m := CalculateMatch(r, in, false)
			union := append(append([]string{}, m.HasIngredients...), m.MissingIngredients...)
			assert.ElementsMatch(t, r.RequiredIngredients(), union, "recipe %s input %v", r.ID, in)
			for _, h := range m.HasIngredients {
				assert.NotContains(t, m.MissingIngredients, h)
			}
			assert.GreaterOrEqual(t, m.MatchPercentage, 0.0)
			assert.LessOrEqual(t, m.MatchPercentage, 100.0)
		}
	}
}

func TestCalculateMatch_ExactTokenEquality(t *testing.T) {
	m := CalculateMatch(karahi(), []string{"Tamatar", " tamatar", "chicken "}, false)
	assert.Empty(t, m.HasIngredients)
	assert.Equal(t, 0.0, m.MatchPercentage)
}
