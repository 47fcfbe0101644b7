package recipe

import (
	"fmt"
	"net/http"

	"myfridge-api/internal/api/handlers"
	recipeService "myfridge-api/internal/core/recipe"
	"myfridge-api/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MatchResponse 食譜比對響應
type MatchResponse struct {
	Success    bool                  `json:"success"`
	Message    string                `json:"message"`
	Recipes    []recipeService.Match `json:"recipes"`
	TotalCount int                   `json:"total_count"`
}

// listQuery 目錄查詢參數
type listQuery struct {
	Category   string `form:"category"`
	Difficulty string `form:"difficulty"`
	MaxTime    *int   `form:"max_time" binding:"omitempty,gte=0"`
}

// Handler 食譜處理程序
type Handler struct {
	service *recipeService.Service
	debug   bool
}

// NewHandler 創建新的食譜處理程序
func NewHandler(service *recipeService.Service, debug bool) *Handler {
	return &Handler{
		service: service,
		debug:   debug,
	}
}

// HandleMatch 依使用者食材排序食譜
func (h *Handler) HandleMatch(c *gin.Context) {
	var req recipeService.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err, h.debug)
		return
	}

	common.LogInfo("開始處理食譜比對請求",
		zap.String("request_id", requestid.Get(c)),
		zap.Strings("ingredients", req.Ingredients),
	)

	matches := h.service.Match(req)

	c.JSON(http.StatusOK, MatchResponse{
		Success:    true,
		Message:    fmt.Sprintf("Found %d matching recipes", len(matches)),
		Recipes:    matches,
		TotalCount: len(matches),
	})
}

// HandleList 列出符合條件的食譜
func (h *Handler) HandleList(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		handlers.BadRequest(c, err, h.debug)
		return
	}

	filter := recipeService.Filter{
		Category:   q.Category,
		Difficulty: q.Difficulty,
	}
	if q.MaxTime != nil {
		filter.MaxCookTime = *q.MaxTime
	}

	c.JSON(http.StatusOK, h.service.List(filter))
}

// HandleGet 依 ID 取得食譜
func (h *Handler) HandleGet(c *gin.Context) {
	r, err := h.service.Get(c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}

	c.JSON(http.StatusOK, r)
}

// HandleIngredients 手動選擇食材用的清單
func (h *Handler) HandleIngredients(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Vocabulary())
}
