package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 验证错误（调用方可修正）
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeMissingInput     ErrorCode = "MISSING_INPUT"
	ErrCodeInvalidFile      ErrorCode = "INVALID_FILE"
	ErrCodeFileTooLarge     ErrorCode = "FILE_TOO_LARGE"

	// 外部服务错误
	ErrCodeEmbeddingService  ErrorCode = "EMBEDDING_SERVICE_ERROR"
	ErrCodeGenerationService ErrorCode = "GENERATION_SERVICE_ERROR"

	// 存储错误
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeStoreIntegrity   ErrorCode = "STORE_INTEGRITY"

	// 业务逻辑错误
	ErrCodeInvalidIdentifier ErrorCode = "INVALID_IDENTIFIER"
	ErrCodeInternalServer    ErrorCode = "INTERNAL_SERVER_ERROR"
)

// AppError 应用错误结构体
type AppError struct {
	Code     ErrorCode `json:"code"`
	Message  string    `json:"message"`
	HTTPCode int       `json:"-"`
	Cause    error     `json:"-"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError 创建验证错误，消息会原样返回给调用方
func NewValidationError(code ErrorCode, message string) *AppError {
	httpCode := http.StatusBadRequest
	if code == ErrCodeFileTooLarge {
		httpCode = http.StatusRequestEntityTooLarge
	}
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: httpCode,
	}
}

// NewUpstreamError 创建外部服务错误，消息仅用于日志
func NewUpstreamError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: http.StatusInternalServerError,
		Cause:    cause,
	}
}

// NewStoreError 创建存储错误
func NewStoreError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: http.StatusInternalServerError,
		Cause:    cause,
	}
}

// NewInternalError 创建内部错误
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Code:     ErrCodeInternalServer,
		Message:  message,
		HTTPCode: http.StatusInternalServerError,
		Cause:    cause,
	}
}

// IsUserFacing 判断错误消息是否可以直接返回给调用方。
// 校验类错误返回原始消息，其余错误只返回通用消息，详情进日志。
func (e *AppError) IsUserFacing() bool {
	return e.HTTPCode == http.StatusBadRequest || e.HTTPCode == http.StatusRequestEntityTooLarge
}
