package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jackystd/jimeng-api/internal/entity"
)

// requestCredential 取本次请求使用的后端凭证：请求头优先，其次服务默认值
func (h *HTTPHandler) requestCredential(c *gin.Context) (string, bool) {
	credential, err := h.generationService.ResolveCredential(c.GetHeader(credentialHeader))
	if err != nil {
		RespondServiceError(c, err)
		return "", false
	}
	return credential, true
}

// CreateImageGeneration POST /v1/images/generations
func (h *HTTPHandler) CreateImageGeneration(c *gin.Context) {
	var req entity.ImageGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}
	credential, ok := h.requestCredential(c)
	if !ok {
		return
	}

	resp, err := h.generationService.CreateImageTask(c.Request.Context(), credential, req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.Response{Code: 0, Msg: "ok", Data: resp, Time: time.Now()})
}

// CreateImageComposition POST /v1/images/compositions
func (h *HTTPHandler) CreateImageComposition(c *gin.Context) {
	var req entity.CompositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}
	credential, ok := h.requestCredential(c)
	if !ok {
		return
	}

	resp, err := h.generationService.CreateCompositionTask(c.Request.Context(), credential, req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.Response{Code: 0, Msg: "ok", Data: resp, Time: time.Now()})
}

// CreateVideoGeneration POST /v1/videos/generations
func (h *HTTPHandler) CreateVideoGeneration(c *gin.Context) {
	var req entity.VideoGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}
	credential, ok := h.requestCredential(c)
	if !ok {
		return
	}

	resp, err := h.generationService.CreateVideoTask(c.Request.Context(), credential, req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.Response{Code: 0, Msg: "ok", Data: resp, Time: time.Now()})
}

// GetTask GET /v1/tasks/:id?kind=image|video
func (h *HTTPHandler) GetTask(c *gin.Context) {
	historyID := strings.TrimSpace(c.Param("id"))
	if historyID == "" {
		BadRequest(c, ErrCodeInvalidRequest, "task id is required")
		return
	}
	kind := strings.TrimSpace(c.Query("kind"))
	switch kind {
	case "", entity.TaskKindImage, entity.TaskKindVideo:
	default:
		BadRequest(c, ErrCodeInvalidRequest, "kind must be image or video")
		return
	}

	credential, ok := h.requestCredential(c)
	if !ok {
		return
	}

	status, err := h.generationService.QueryTask(c.Request.Context(), credential, historyID, kind)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	// 归档键换成对外地址
	if len(status.ArchivedURLs) > 0 {
		urls := make([]string, 0, len(status.ArchivedURLs))
		for _, key := range status.ArchivedURLs {
			urls = append(urls, h.publicURL(key))
		}
		status.ArchivedURLs = urls
	}

	c.JSON(http.StatusOK, entity.Response{Code: 0, Msg: "ok", Data: status, Time: time.Now()})
}

// GetCredits GET /v1/credits
func (h *HTTPHandler) GetCredits(c *gin.Context) {
	credential, ok := h.requestCredential(c)
	if !ok {
		return
	}

	credits, err := h.generationService.Credits(c.Request.Context(), credential)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.Response{Code: 0, Msg: "ok", Data: credits, Time: time.Now()})
}

// ListGenerationRecords GET /v1/records
func (h *HTTPHandler) ListGenerationRecords(c *gin.Context) {
	var params entity.GenerationRecordQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		InvalidPayload(c)
		return
	}

	records, meta, err := h.generationService.ListRecords(c.Request.Context(), &params)
	if err != nil {
		logrus.WithError(err).Error("failed to list generation records")
		InternalError(c, "failed to list records")
		return
	}
	c.JSON(http.StatusOK, entity.ResponseItems{Code: 0, Msg: "ok", Data: records, Meta: meta, Time: time.Now()})
}

// DeleteGenerationRecord DELETE /v1/records/:id
func (h *HTTPHandler) DeleteGenerationRecord(c *gin.Context) {
	historyID := strings.TrimSpace(c.Param("id"))
	if historyID == "" {
		BadRequest(c, ErrCodeInvalidRequest, "record id is required")
		return
	}

	if err := h.generationService.DeleteRecord(c.Request.Context(), historyID); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.Response{Code: 0, Msg: "ok", Time: time.Now()})
}
