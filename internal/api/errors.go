package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jackystd/jimeng-api/internal/jimeng"
)

// 错误码定义
const (
	ErrCodeInvalidRequest     = "ERR_INVALID_REQUEST"
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeCredentialInvalid  = "ERR_CREDENTIAL_INVALID"
	ErrCodeNotFound           = "ERR_NOT_FOUND"
	ErrCodeRecordNotFound     = "ERR_RECORD_NOT_FOUND"
	ErrCodeUpstreamFailed     = "ERR_UPSTREAM_FAILED"
	ErrCodeInternalError      = "ERR_INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"
)

// APIError 统一的 API 错误响应结构
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse 返回统一格式的错误响应
func ErrorResponse(c *gin.Context, status int, code string, message string) {
	c.JSON(status, APIError{
		Code:    code,
		Message: message,
	})
}

// BadRequest 400 错误请求
func BadRequest(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401 未授权
func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// NotFound 404 资源不存在
func NotFound(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusNotFound, code, message)
}

// InternalError 500 服务器内部错误
func InternalError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// InvalidPayload 无效的请求体
func InvalidPayload(c *gin.Context) {
	ErrorResponse(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request payload")
}

// RespondServiceError maps a failure from the generation layer onto an HTTP
// status. The mapping branches on the error kind, never on message text.
func RespondServiceError(c *gin.Context, err error) {
	if err == nil {
		InternalError(c, "unknown error")
		return
	}

	switch jimeng.KindOf(err) {
	case jimeng.KindValidation:
		BadRequest(c, ErrCodeInvalidRequest, err.Error())
	case jimeng.KindCredentialMalformed:
		ErrorResponse(c, http.StatusUnauthorized, ErrCodeCredentialInvalid, err.Error())
	case jimeng.KindRecordNotFound:
		NotFound(c, ErrCodeRecordNotFound, err.Error())
	case jimeng.KindUpload, jimeng.KindSubmission, jimeng.KindTransport, jimeng.KindCredits:
		ErrorResponse(c, http.StatusBadGateway, ErrCodeUpstreamFailed, err.Error())
	default:
		InternalError(c, err.Error())
	}
}
