package handlers

import (
	"myfridge-api/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondError 將錯誤轉成統一的 JSON 錯誤響應；debug 時附上原始錯誤
func RespondError(c *gin.Context, err error, debug bool) {
	status, resp := common.ToResponse(err, debug)

	fields := []zap.Field{
		zap.Error(err),
		zap.Int("status", status),
		zap.String("code", resp.Code),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestid.Get(c)),
	}
	if status >= 500 {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogDebug("請求被拒絕", fields...)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

// BadRequest 請求格式錯誤
func BadRequest(c *gin.Context, err error, debug bool) {
	RespondError(c, common.ErrInvalidRequest.WithMessage("Invalid request: "+err.Error()), debug)
}
