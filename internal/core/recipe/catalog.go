package recipe

import (
	"fmt"
	"io"
	"os"

	"myfridge-api/internal/pkg/common"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Catalog 唯讀食譜目錄，啟動時載入一次，可在多個請求間共享
type Catalog struct {
	recipes []*Recipe
	byID    map[string]*Recipe
}

// NewCatalog 以已驗證的食譜建立目錄，保留原始順序
func NewCatalog(recipes []Recipe) (*Catalog, error) {
	c := &Catalog{
		recipes: make([]*Recipe, 0, len(recipes)),
		byID:    make(map[string]*Recipe, len(recipes)),
	}
	for i := range recipes {
		r := recipes[i]
		if _, dup := c.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate recipe id %q", r.ID)
		}
		c.recipes = append(c.recipes, &r)
		c.byID[r.ID] = &r
	}
	return c, nil
}

// LoadCatalog 從 JSON 檔案載入目錄，任何錯誤都應中止啟動
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	catalog, err := ReadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
	}

	common.LogInfo("食譜目錄已載入",
		zap.String("path", path),
		zap.Int("recipes", catalog.Len()),
	)
	return catalog, nil
}

// ReadCatalog 解析並驗證 JSON 陣列形式的食譜
func ReadCatalog(r io.Reader) (*Catalog, error) {
	var recipes []Recipe
	if err := common.DecodeJSONStrict(r, &recipes); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	for i := range recipes {
		if err := validate.Struct(&recipes[i]); err != nil {
			return nil, fmt.Errorf("invalid recipe at index %d (id %q): %w", i, recipes[i].ID, err)
		}
	}

	return NewCatalog(recipes)
}

// Len 食譜數量
func (c *Catalog) Len() int {
	return len(c.recipes)
}

// All 依目錄順序回傳所有食譜
func (c *Catalog) All() []*Recipe {
	out := make([]*Recipe, len(c.recipes))
	copy(out, c.recipes)
	return out
}

// GetByID 依 ID 查找食譜，找不到時 ok 為 false
func (c *Catalog) GetByID(id string) (*Recipe, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// Filter 依條件篩選，保留目錄順序
func (c *Catalog) Filter(f Filter) []*Recipe {
	out := make([]*Recipe, 0, len(c.recipes))
	for _, r := range c.recipes {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
