package handler

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"later-go/internal/model"
	"later-go/internal/service"
	"later-go/pkg/log"
	"later-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 负责问答接口，包含一次性问答和 WebSocket 流式问答。
type ChatHandler struct {
	chatService service.ChatService
	jwtManager  *token.JWTManager
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService, jwtManager *token.JWTManager) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		jwtManager:  jwtManager,
	}
}

// Ask 处理一次性问答请求，同步返回答案和引用。
func (h *ChatHandler) Ask(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求体", "data": nil})
		return
	}

	resp, err := h.chatService.Answer(c.Request.Context(), req)
	if err != nil {
		log.Errorf("问答失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "问答失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": resp})
}

// HandleWS 处理一个传入的 WebSocket 连接，按消息逐条流式回答。
// 路径上的 token 由外部认证服务签发，仅做校验。
func (h *ChatHandler) HandleWS(c *gin.Context) {
	tokenString := c.Param("token")
	if _, err := h.jwtManager.VerifyToken(tokenString); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的 token", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立, 来源: %s", c.ClientIP())

	var stopped atomic.Bool
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		// 停止指令: {"type":"stop"}
		var ctrl struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(message, &ctrl) == nil && ctrl.Type == "stop" {
			stopped.Store(true)
			continue
		}

		var req model.ChatRequest
		if err := json.Unmarshal(message, &req); err != nil || req.Question == "" {
			payload, _ := json.Marshal(gin.H{"type": "error", "message": "无效的问答请求"})
			_ = conn.WriteMessage(websocket.TextMessage, payload)
			continue
		}

		stopped.Store(false)
		err = h.chatService.StreamAnswer(c.Request.Context(), req, conn, func() bool {
			return stopped.Load()
		})
		if err != nil {
			log.Errorf("流式问答失败: %v", err)
			payload, _ := json.Marshal(gin.H{"type": "error", "message": "问答失败"})
			_ = conn.WriteMessage(websocket.TextMessage, payload)
		}
	}
}
