package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jackystd/jimeng-api/internal/jimeng"
)

func TestErrorResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		status         int
		code           string
		message        string
		expectedStatus int
		expectedCode   string
		expectedMsg    string
	}{
		{
			name:           "BadRequest",
			status:         http.StatusBadRequest,
			code:           ErrCodeInvalidRequest,
			message:        "无效的请求",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeInvalidRequest,
			expectedMsg:    "无效的请求",
		},
		{
			name:           "NotFound",
			status:         http.StatusNotFound,
			code:           ErrCodeRecordNotFound,
			message:        "记录不存在",
			expectedStatus: http.StatusNotFound,
			expectedCode:   ErrCodeRecordNotFound,
			expectedMsg:    "记录不存在",
		},
		{
			name:           "InternalError",
			status:         http.StatusInternalServerError,
			code:           ErrCodeInternalError,
			message:        "服务器内部错误",
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   ErrCodeInternalError,
			expectedMsg:    "服务器内部错误",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			ErrorResponse(c, tt.status, tt.code, tt.message)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			var response APIError
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}

			if response.Code != tt.expectedCode {
				t.Errorf("expected code %s, got %s", tt.expectedCode, response.Code)
			}

			if response.Message != tt.expectedMsg {
				t.Errorf("expected message %s, got %s", tt.expectedMsg, response.Message)
			}
		})
	}
}

func TestRespondServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "参数校验失败",
			err:            &jimeng.Error{Kind: jimeng.KindValidation, Message: "unknown ratio"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeInvalidRequest,
		},
		{
			name:           "凭证格式错误",
			err:            &jimeng.Error{Kind: jimeng.KindCredentialMalformed, Message: "missing region marker"},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   ErrCodeCredentialInvalid,
		},
		{
			name:           "记录不存在",
			err:            &jimeng.Error{Kind: jimeng.KindRecordNotFound, Message: "history not found"},
			expectedStatus: http.StatusNotFound,
			expectedCode:   ErrCodeRecordNotFound,
		},
		{
			name:           "上游传输失败",
			err:            &jimeng.Error{Kind: jimeng.KindTransport, Message: "http 502"},
			expectedStatus: http.StatusBadGateway,
			expectedCode:   ErrCodeUpstreamFailed,
		},
		{
			name:           "上传失败",
			err:            &jimeng.Error{Kind: jimeng.KindUpload, Message: "first frame rejected"},
			expectedStatus: http.StatusBadGateway,
			expectedCode:   ErrCodeUpstreamFailed,
		},
		{
			name:           "包裹后的错误仍按 kind 映射",
			err:            fmt.Errorf("query task: %w", &jimeng.Error{Kind: jimeng.KindSubmission, Message: "missing record id"}),
			expectedStatus: http.StatusBadGateway,
			expectedCode:   ErrCodeUpstreamFailed,
		},
		{
			name:           "普通错误落到 500",
			err:            errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   ErrCodeInternalError,
		},
		{
			name:           "nil 错误落到 500",
			err:            nil,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			RespondServiceError(c, tt.err)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			var response APIError
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}

			if response.Code != tt.expectedCode {
				t.Errorf("expected code %s, got %s", tt.expectedCode, response.Code)
			}
		})
	}
}
