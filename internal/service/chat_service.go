package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"later-go/internal/model"
	"later-go/pkg/llm"
	"later-go/pkg/log"

	"github.com/gorilla/websocket"
)

const chatSystemPrompt = `你是一名产品情报助手。只根据给定的证据片段回答问题，
片段以 [n] 编号，回答时引用对应编号。证据不足时直说不知道，不要编造。`

// ChatService 定义了针对单个工具的问答接口。
type ChatService interface {
	// Answer 非流式问答，返回完整答案和引用。
	Answer(ctx context.Context, req model.ChatRequest) (*model.ChatResponse, error)
	// StreamAnswer 通过 websocket 流式下发答案分块，最后推送引用和完成通知。
	StreamAnswer(ctx context.Context, req model.ChatRequest, ws *websocket.Conn, shouldStop func() bool) error
}

type chatService struct {
	retrievalService RetrievalService
	llmClient        llm.Client
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(retrievalService RetrievalService, llmClient llm.Client) ChatService {
	return &chatService{
		retrievalService: retrievalService,
		llmClient:        llmClient,
	}
}

func (s *chatService) Answer(ctx context.Context, req model.ChatRequest) (*model.ChatResponse, error) {
	chunks, citations, err := s.retrievalService.Retrieve(ctx, req.ToolID, req.Question, req.TopK, req.PreferCompact)
	if err != nil {
		return nil, err
	}

	messages := s.composeMessages(chunks, req.Question)
	answer, err := s.llmClient.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("生成答案失败: %w", err)
	}

	return &model.ChatResponse{
		Answer:    answer,
		Citations: citations,
	}, nil
}

func (s *chatService) StreamAnswer(ctx context.Context, req model.ChatRequest, ws *websocket.Conn, shouldStop func() bool) error {
	chunks, citations, err := s.retrievalService.Retrieve(ctx, req.ToolID, req.Question, req.TopK, req.PreferCompact)
	if err != nil {
		return err
	}

	// 拦截 websocket writer，把原始分块包装成 JSON 并捕获完整答案
	answerBuilder := &strings.Builder{}
	interceptor := &wsWriterInterceptor{conn: ws, writer: answerBuilder, shouldStop: shouldStop}

	messages := s.composeMessages(chunks, req.Question)
	if err := s.llmClient.StreamChatMessages(ctx, messages, nil, interceptor); err != nil {
		return err
	}

	sendCitations(ws, citations)
	sendCompletion(ws)
	log.Debugf("[Chat] 工具 %s 流式回答完成, 共 %d 字符", req.ToolID, answerBuilder.Len())
	return nil
}

// composeMessages 把证据片段编号后塞进 system 消息，问题作为 user 消息。
func (s *chatService) composeMessages(chunks []RetrievedChunk, question string) []llm.Message {
	var contextBuilder strings.Builder
	for i, c := range chunks {
		contextBuilder.WriteString(fmt.Sprintf("[%d] %s\n", i+1, c.Chunk.TextContent))
	}

	var sys strings.Builder
	sys.WriteString(chatSystemPrompt)
	sys.WriteString("\n\n证据片段：\n")
	if contextBuilder.Len() > 0 {
		sys.WriteString(contextBuilder.String())
	} else {
		sys.WriteString("（本轮无检索结果）\n")
	}

	return []llm.Message{
		{Role: "system", Content: sys.String()},
		{Role: "user", Content: question},
	}
}

// wsWriterInterceptor 是对 websocket.Conn 的封装，用于捕获写入的消息。
type wsWriterInterceptor struct {
	conn       *websocket.Conn
	writer     *strings.Builder
	shouldStop func() bool
}

// WriteMessage 满足 llm.MessageWriter 接口。
func (w *wsWriterInterceptor) WriteMessage(messageType int, data []byte) error {
	if w.shouldStop != nil && w.shouldStop() {
		// 停止标志生效：跳过下发
		return nil
	}
	w.writer.Write(data)
	// 将原始分块包装成 {"chunk":"..."}
	payload := map[string]string{"chunk": string(data)}
	b, _ := json.Marshal(payload)
	return w.conn.WriteMessage(messageType, b)
}

// sendCitations 在答案流结束后推送引用列表。
func sendCitations(ws *websocket.Conn, citations []model.Citation) {
	payload := map[string]interface{}{
		"type":      "citations",
		"citations": citations,
	}
	b, _ := json.Marshal(payload)
	_ = ws.WriteMessage(websocket.TextMessage, b)
}

// sendCompletion 发送完成通知 JSON
func sendCompletion(ws *websocket.Conn) {
	notif := map[string]interface{}{
		"type":      "completion",
		"status":    "finished",
		"message":   "响应已完成",
		"timestamp": time.Now().UnixMilli(),
		"date":      time.Now().Format("2006-01-02T15:04:05"),
	}
	b, _ := json.Marshal(notif)
	_ = ws.WriteMessage(websocket.TextMessage, b)
}
