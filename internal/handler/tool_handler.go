package handler

import (
	"errors"
	"net/http"
	"strconv"

	"later-go/internal/middleware"
	"later-go/internal/service"
	"later-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ToolHandler 负责工具读操作、关注和刷新相关的接口。
type ToolHandler struct {
	toolService service.ToolService
}

// NewToolHandler 创建一个新的 ToolHandler。
func NewToolHandler(toolService service.ToolService) *ToolHandler {
	return &ToolHandler{toolService: toolService}
}

// List 分页列出工具，带当前用户的关注标记。
func (h *ToolHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	summaries, err := h.toolService.List(middleware.UserID(c), page, size)
	if err != nil {
		log.Errorf("列出工具失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "查询失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": summaries})
}

// Get 返回工具详情：最新版本、媒体条目和审计记录。
func (h *ToolHandler) Get(c *gin.Context) {
	detail, err := h.toolService.Get(c.Param("id"), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, service.ErrToolNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": err.Error(), "data": nil})
			return
		}
		log.Errorf("查询工具详情失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "查询失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": detail})
}

// ToggleWatch 切换当前用户对某个工具的关注状态。
func (h *ToolHandler) ToggleWatch(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "需要用户身份", "data": nil})
		return
	}

	watching, err := h.toolService.ToggleWatch(userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrToolNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": err.Error(), "data": nil})
			return
		}
		log.Errorf("切换关注状态失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "操作失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": gin.H{"watching": watching}})
}

// Refresh 投递一个异步刷新任务，立即返回。
func (h *ToolHandler) Refresh(c *gin.Context) {
	force := c.DefaultQuery("force", "false") == "true"
	if err := h.toolService.EnqueueRefresh(c.Param("id"), force); err != nil {
		if errors.Is(err, service.ErrToolNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": err.Error(), "data": nil})
			return
		}
		log.Errorf("投递刷新任务失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "投递失败", "data": nil})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"code": http.StatusAccepted, "message": "刷新任务已投递", "data": nil})
}

// RefreshWatched 为所有被关注的工具投递刷新任务。
func (h *ToolHandler) RefreshWatched(c *gin.Context) {
	enqueued, err := h.toolService.EnqueueWatchedSweep()
	if err != nil {
		log.Errorf("关注列表扫描失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "扫描失败", "data": nil})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"code": http.StatusAccepted, "message": "success", "data": gin.H{"enqueued": enqueued}})
}

// DeleteLatestVersion 删除当前用户关联的版本：若还有其他用户引用该工具则只解除关联，
// 否则删除整个工具及其向量数据；匿名请求删除最新版本，上一个版本随之成为最新。
func (h *ToolHandler) DeleteLatestVersion(c *gin.Context) {
	if err := h.toolService.DeleteLatestVersion(c.Param("id"), middleware.UserID(c)); err != nil {
		if errors.Is(err, service.ErrToolNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": err.Error(), "data": nil})
			return
		}
		log.Errorf("删除最新版本失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "删除失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": nil})
}
