package recipe

import (
	"myfridge-api/internal/infrastructure/config"
	"myfridge-api/internal/infrastructure/metrics"
	"myfridge-api/internal/pkg/common"

	"go.uber.org/zap"
)

// MatchRequest 食材比對請求
type MatchRequest struct {
	Ingredients []string `json:"ingredients" binding:"required"`
	MinMatch    *float64 `json:"min_match,omitempty" binding:"omitempty,gte=0,lte=100"`
	Filters     *Filter  `json:"filters,omitempty"`
}

// Service 食譜服務
type Service struct {
	catalog  *Catalog
	ranker   *Ranker
	minMatch float64
}

// NewService 創建食譜服務
func NewService(catalog *Catalog, cfg config.MatchingConfig) *Service {
	staples := StapleTiers{
		Dry:   cfg.DryStaples,
		Fresh: cfg.FreshStaples,
	}
	if len(staples.Dry) == 0 && len(staples.Fresh) == 0 {
		staples = DefaultStapleTiers()
	}

	return &Service{
		catalog:  catalog,
		ranker:   NewRanker(catalog, staples),
		minMatch: cfg.MinMatch,
	}
}

// Match 執行排名與呈現，再套用可選的目錄篩選條件
func (s *Service) Match(req MatchRequest) []Match {
	minMatch := s.minMatch
	if req.MinMatch != nil {
		minMatch = *req.MinMatch
	}

	matches := s.ranker.RankAndPresent(req.Ingredients, minMatch)

	if req.Filters != nil {
		filtered := matches[:0]
		for _, m := range matches {
			if req.Filters.Matches(m.Recipe) {
				filtered = append(filtered, m)
			}
		}
		matches = filtered
	}

	metrics.RecipeMatchResults.Observe(float64(len(matches)))
	common.LogDebug("食材比對完成",
		zap.Strings("ingredients", req.Ingredients),
		zap.Float64("min_match", minMatch),
		zap.Int("matches", len(matches)),
	)
	return matches
}

// List 依條件列出食譜
func (s *Service) List(f Filter) []*Recipe {
	return s.catalog.Filter(f)
}

// Get 依 ID 取得食譜
func (s *Service) Get(id string) (*Recipe, error) {
	r, ok := s.catalog.GetByID(id)
	if !ok {
		return nil, common.ErrRecipeNotFound.WithMessage("Recipe with id '" + id + "' not found")
	}
	return r, nil
}

// CatalogSize 目錄中的食譜數量
func (s *Service) CatalogSize() int {
	return s.catalog.Len()
}

// Vocabulary 手動選擇食材的詞彙表
func (s *Service) Vocabulary() IngredientVocabulary {
	return IngredientVocabulary{
		Detectable: []string{
			"tamatar", "gajar", "gobi", "anday",
			"hari_mirch", "shimla_mirch", "kela",
			"seb", "hari_piyaaz", "maalta", "kheera",
		},
		Common: map[string][]string{
			"proteins":   {"chicken", "beef", "mutton", "fish", "keema"},
			"dairy":      {"dahi", "doodh", "paneer", "makhan"},
			"vegetables": {"aloo", "palak", "baingan", "piyaaz"},
			"grains":     {"chawal", "daal", "aata", "maida"},
		},
		Pantry: []string{
			"namak", "tel", "ghee", "haldi", "laal_mirch",
			"dhania_powder", "zeera", "garam_masala",
		},
	}
}
