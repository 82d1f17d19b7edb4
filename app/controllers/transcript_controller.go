package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/aihub/incident-backend-go/app/bootstrap"
	"github.com/aihub/incident-backend-go/internal/config"
	apperrors "github.com/aihub/incident-backend-go/internal/errors"
	"github.com/aihub/incident-backend-go/internal/logger"
	"github.com/aihub/incident-backend-go/internal/metrics"
	"github.com/aihub/incident-backend-go/internal/services"
)

// TranscriptController 事故转录处理控制器
type TranscriptController struct {
	BaseController
}

// Process 处理POST /api/v1/transcript：multipart表单带可选text和可选file，
// 两者至少其一。返回结构化报告、邮件草稿、推理依据和引用的策略全文。
func (c *TranscriptController) Process() {
	ctx := c.Ctx.Request.Context()
	logger.Info("Processing transcript request")

	textareaText := strings.TrimSpace(c.GetString("text"))

	fileText := ""
	file, header, err := c.GetFile("file")
	switch {
	case err == nil && file != nil:
		defer file.Close()
		logger.Info("Processing uploaded file", zap.String("filename", header.Filename))
		fileText, err = services.ProcessUploadedFile(file, header, config.AppConfig.FileUpload)
		if err != nil {
			c.respondError(err)
			return
		}
	case errors.Is(err, http.ErrMissingFile):
		// 未上传文件，只用文本框内容
	case err != nil:
		c.fail(http.StatusBadRequest, "Invalid file upload")
		return
	}

	if textareaText == "" && fileText == "" {
		c.fail(http.StatusBadRequest, "Either text or file must be provided")
		return
	}

	app := bootstrap.GetApp()
	if app == nil || app.Report == nil {
		c.fail(http.StatusInternalServerError, "An unexpected error occurred while processing the transcript")
		return
	}

	result, err := app.Report.ProcessTranscript(ctx, textareaText, fileText)
	if err != nil {
		logger.Error("transcript processing failed", zap.Error(err))
		c.respondError(err)
		return
	}

	logger.Info("Transcript processing completed successfully")
	metrics.TranscriptRequests.WithLabelValues(strconv.Itoa(http.StatusOK)).Inc()
	c.JSON(http.StatusOK, result)
}

// respondError 按错误分类映射HTTP状态。验证错误原样返回消息，
// 其余错误只返回通用消息，完整上下文已进日志。
func (c *TranscriptController) respondError(err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.IsUserFacing() {
		c.fail(appErr.HTTPCode, appErr.Message)
		return
	}
	c.fail(http.StatusInternalServerError, "Failed to process transcript")
}

func (c *TranscriptController) fail(status int, message string) {
	metrics.TranscriptRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	c.JSONError(status, message)
}
