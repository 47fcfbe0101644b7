package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"

	_ "image/gif" // 支援 GIF
	_ "image/png" // 支援 PNG

	"myfridge-api/internal/infrastructure/config"
	"myfridge-api/internal/pkg/common"

	"go.uber.org/zap"
	_ "golang.org/x/image/webp" // 支援 WebP
)

// Upload 已驗證的上傳圖片
type Upload struct {
	Filename string
	Format   string
	Width    int
	Height   int
	Data     []byte
}

// Service 圖片處理服務
type Service struct {
	maxSizeBytes int64
	maxDimension int
	allowed      map[string]bool
	extensions   []string
}

// NewService 創建新的圖片處理服務
func NewService(cfg config.ImageConfig) *Service {
	allowed := make(map[string]bool, len(cfg.AllowedExtensions))
	extensions := make([]string, 0, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		ext = normalizeExt(ext)
		if ext == "" || allowed[ext] {
			continue
		}
		allowed[ext] = true
		extensions = append(extensions, ext)
	}
	return &Service{
		maxSizeBytes: cfg.MaxSizeBytes,
		maxDimension: cfg.MaxDimension,
		allowed:      allowed,
		extensions:   extensions,
	}
}

// AllowedExtensions 允許的副檔名，依設定順序
func (s *Service) AllowedExtensions() []string {
	return append([]string(nil), s.extensions...)
}

// Validate 驗證上傳的圖片：副檔名、大小、可解碼與尺寸
func (s *Service) Validate(filename string, data []byte) (*Upload, error) {
	ext := normalizeExt(filepath.Ext(filename))
	if !s.allowed[ext] {
		return nil, common.ErrInvalidImageType.WithMessage(
			fmt.Sprintf("Invalid file type. Allowed: %s", strings.Join(s.extensions, ", ")))
	}

	if int64(len(data)) > s.maxSizeBytes {
		return nil, common.ErrInvalidImageSize.WithMessage(
			fmt.Sprintf("File too large (max %dMB)", s.maxSizeBytes/(1024*1024)))
	}

	if len(data) == 0 {
		return nil, common.ErrInvalidImageFormat.WithMessage("Empty file")
	}

	// 只讀取標頭，不解碼整張圖片
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, common.ErrInvalidImageFormat.Wrap(err)
	}

	if !isSupportedFormat(format) {
		return nil, common.ErrInvalidImageFormat.WithMessage(
			fmt.Sprintf("unsupported image format: %s", format))
	}

	if s.maxDimension > 0 && (cfg.Width > s.maxDimension || cfg.Height > s.maxDimension) {
		return nil, common.ErrInvalidImageFormat.WithMessage(
			fmt.Sprintf("Image dimensions %dx%d exceed maximum of %d", cfg.Width, cfg.Height, s.maxDimension))
	}

	common.LogDebug("圖片驗證通過",
		zap.String("filename", filename),
		zap.String("format", format),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Int("bytes", len(data)),
	)

	return &Upload{
		Filename: filename,
		Format:   format,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Data:     data,
	}, nil
}

// EncodeForDetector 將圖片轉為 base64；非 JPEG/PNG 會先轉成 JPEG
func EncodeForDetector(u *Upload) (string, error) {
	if u.Format == "jpeg" || u.Format == "png" {
		return base64.StdEncoding.EncodeToString(u.Data), nil
	}

	img, _, err := image.Decode(bytes.NewReader(u.Data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	// 將圖片轉換為 JPEG 格式
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("failed to encode image as JPEG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// isSupportedFormat 檢查圖片格式是否支援
func isSupportedFormat(format string) bool {
	supportedFormats := map[string]bool{
		"jpeg": true,
		"png":  true,
		"gif":  true,
		"webp": true,
	}
	return supportedFormats[format]
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
