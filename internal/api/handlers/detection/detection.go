package detection

import (
	"io"
	"net/http"

	"myfridge-api/internal/api/handlers"
	detectionService "myfridge-api/internal/core/detection"
	"myfridge-api/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 食材辨識響應
type Response struct {
	Success       bool                         `json:"success"`
	Message       string                       `json:"message"`
	DetectedItems []detectionService.Detection `json:"detected_items"`
	TotalCount    int                          `json:"total_count"`
}

// Handler 食材辨識處理程序
type Handler struct {
	service  *detectionService.Service
	maxBytes int64
	debug    bool
}

// NewHandler 創建新的辨識處理程序
func NewHandler(service *detectionService.Service, maxBytes int64, debug bool) *Handler {
	return &Handler{
		service:  service,
		maxBytes: maxBytes,
		debug:    debug,
	}
}

// HandleDetect 處理圖片上傳並辨識食材
func (h *Handler) HandleDetect(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		handlers.RespondError(c, common.ErrInvalidRequest.WithMessage("multipart field 'file' is required").Wrap(err), h.debug)
		return
	}

	// 先以宣告大小擋掉過大的檔案，不必讀入記憶體
	if file.Size > h.maxBytes {
		handlers.RespondError(c, common.ErrInvalidImageSize, h.debug)
		return
	}

	f, err := file.Open()
	if err != nil {
		handlers.RespondError(c, common.ErrInvalidRequest.Wrap(err), h.debug)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		handlers.RespondError(c, common.ErrInvalidRequest.Wrap(err), h.debug)
		return
	}

	common.LogInfo("開始處理食材辨識請求",
		zap.String("request_id", requestid.Get(c)),
		zap.String("filename", file.Filename),
		zap.Int64("size", file.Size),
	)

	detections, err := h.service.Detect(c.Request.Context(), file.Filename, data)
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success:       true,
		Message:       "Detection completed successfully",
		DetectedItems: detections,
		TotalCount:    len(detections),
	})
}
