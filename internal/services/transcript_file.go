package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/aihub/incident-backend-go/internal/config"
	apperrors "github.com/aihub/incident-backend-go/internal/errors"
)

var allowedContentTypes = map[string]struct{}{
	"text/plain":      {},
	"text/markdown":   {},
	"text/x-markdown": {},
}

// ProcessUploadedFile 校验并读取上传的转录文件。
// 依次检查扩展名、Content-Type、大小上限和UTF-8编码，全部通过后返回正文。
func ProcessUploadedFile(file multipart.File, header *multipart.FileHeader, cfg config.FileUploadConfig) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	allowed := false
	for _, t := range cfg.AllowedTypes {
		if ext == strings.ToLower(t) {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", apperrors.NewValidationError(apperrors.ErrCodeInvalidFile,
			"Only .txt or .md files allowed")
	}

	if ct := header.Header.Get("Content-Type"); ct != "" {
		mediaType := strings.TrimSpace(strings.SplitN(ct, ";", 2)[0])
		if _, ok := allowedContentTypes[mediaType]; !ok {
			return "", apperrors.NewValidationError(apperrors.ErrCodeInvalidFile,
				fmt.Sprintf("Invalid content type: %s", mediaType))
		}
	}

	// multipart header里的大小先挡一次，再按流式读取兜底
	if header.Size > cfg.MaxSize {
		return "", apperrors.NewValidationError(apperrors.ErrCodeFileTooLarge, "File too large")
	}
	data, err := io.ReadAll(io.LimitReader(file, cfg.MaxSize+1))
	if err != nil {
		return "", apperrors.NewInternalError("failed to read uploaded file", err)
	}
	if int64(len(data)) > cfg.MaxSize {
		return "", apperrors.NewValidationError(apperrors.ErrCodeFileTooLarge, "File too large")
	}

	if !utf8.Valid(data) {
		return "", apperrors.NewValidationError(apperrors.ErrCodeInvalidFile,
			"File must be UTF-8 text")
	}

	return strings.TrimSpace(string(data)), nil
}
