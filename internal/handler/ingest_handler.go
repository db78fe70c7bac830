// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"io"
	"net/http"

	"later-go/internal/middleware"
	"later-go/internal/model"
	"later-go/internal/pipeline"
	"later-go/internal/service"
	"later-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// 截图上传大小上限
const maxImageSize = 10 << 20 // 10MB

// IngestHandler 负责研究入口相关的接口。
type IngestHandler struct {
	ingestService service.IngestService
}

// NewIngestHandler 创建一个新的 IngestHandler。
func NewIngestHandler(ingestService service.IngestService) *IngestHandler {
	return &IngestHandler{ingestService: ingestService}
}

// Research 处理非流式研究请求，同步等待整条流程跑完。
func (h *IngestHandler) Research(c *gin.Context) {
	var req model.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求体", "data": nil})
		return
	}

	result, err := h.ingestService.Research(c.Request.Context(), middleware.UserID(c), req, nil)
	if err != nil {
		h.renderRunError(c, result, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": result})
}

// ResearchStream 以 SSE 推送每个阶段的进度事件，最后推送终态。
func (h *IngestHandler) ResearchStream(c *gin.Context) {
	var req model.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求体", "data": nil})
		return
	}
	userID := middleware.UserID(c)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	events := make(chan model.ProgressEvent, 16)
	var result *model.IngestResult
	var runErr error
	go func() {
		defer close(events)
		result, runErr = h.ingestService.Research(c.Request.Context(), userID, req, func(event model.ProgressEvent) {
			events <- event
		})
	}()

	for event := range events {
		c.SSEvent("progress", event)
		c.Writer.Flush()
	}

	// 终态事件：失败时也要把已提交的部分状态回报给前端
	if runErr != nil {
		payload := gin.H{"error": runErr.Error()}
		if result != nil {
			payload["toolId"] = result.ToolID
		}
		c.SSEvent("error", payload)
	} else {
		c.SSEvent("result", result)
	}
	c.Writer.Flush()
}

// ResearchImage 处理截图通道：multipart 上传一张图，OCR 后进入研究流程。
func (h *IngestHandler) ResearchImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "缺少 image 文件", "data": nil})
		return
	}
	if fileHeader.Size > maxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "图片超过大小限制", "data": nil})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "读取图片失败", "data": nil})
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "读取图片失败", "data": nil})
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	result, err := h.ingestService.ResearchImage(c.Request.Context(), middleware.UserID(c), imageData, mimeType, nil)
	if err != nil {
		h.renderRunError(c, result, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": result})
}

// renderRunError 把研究流程的错误翻译成合适的 HTTP 状态码。
func (h *IngestHandler) renderRunError(c *gin.Context, result *model.IngestResult, err error) {
	log.Errorf("研究流程失败: %v", err)
	switch {
	case errors.Is(err, service.ErrEmptyIngestInput), errors.Is(err, pipeline.ErrInvalidIdentity):
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error(), "data": nil})
	case errors.Is(err, pipeline.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"code": http.StatusConflict, "message": err.Error(), "data": nil})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": err.Error(), "data": result})
	}
}
