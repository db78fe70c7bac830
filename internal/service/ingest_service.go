package service

import (
	"context"
	"errors"

	"later-go/internal/config"
	"later-go/internal/model"
	"later-go/internal/pipeline"
	"later-go/pkg/log"
	"later-go/pkg/storage"
	"later-go/pkg/vision"
)

// ErrEmptyIngestInput 表示摄取请求既没有 URL 也没有文本。
var ErrEmptyIngestInput = errors.New("url 和 text 至少要提供一个")

// IngestService 定义了研究入口的接口。
type IngestService interface {
	// Research 执行一次完整研究，progress 为 nil 时不推送进度。
	Research(ctx context.Context, userID string, req model.IngestRequest, progress pipeline.ProgressFunc) (*model.IngestResult, error)
	// ResearchImage 截图通道：归档原图、OCR、意图分类后进入研究流程。
	ResearchImage(ctx context.Context, userID string, imageData []byte, mimeType string, progress pipeline.ProgressFunc) (*model.IngestResult, error)
}

type ingestService struct {
	orchestrator *pipeline.Orchestrator
	visionClient vision.Client
	llmClient    llmIntentClassifier
	minioCfg     config.MinIOConfig
}

// llmIntentClassifier 是截图通道需要的那一小撮 LLM 能力。
type llmIntentClassifier interface {
	ClassifyScreenshotIntent(ctx context.Context, ocrText string) (string, error)
}

// NewIngestService 创建一个新的 IngestService 实例。
func NewIngestService(orchestrator *pipeline.Orchestrator, visionClient vision.Client, llmClient llmIntentClassifier, minioCfg config.MinIOConfig) IngestService {
	return &ingestService{
		orchestrator: orchestrator,
		visionClient: visionClient,
		llmClient:    llmClient,
		minioCfg:     minioCfg,
	}
}

func (s *ingestService) Research(ctx context.Context, userID string, req model.IngestRequest, progress pipeline.ProgressFunc) (*model.IngestResult, error) {
	if req.URL == "" && req.Text == "" {
		return nil, ErrEmptyIngestInput
	}

	input := pipeline.Input{
		URL:    req.URL,
		UserID: userID,
		Force:  req.ForceRefresh,
	}
	if req.URL == "" {
		// 纯文本输入按 OCR 通道处理：先当名字试，太长就当正文
		if len([]rune(req.Text)) <= 80 {
			input.Name = req.Text
		} else {
			input.OCRText = req.Text
		}
	}
	return s.orchestrator.Run(ctx, input, progress)
}

func (s *ingestService) ResearchImage(ctx context.Context, userID string, imageData []byte, mimeType string, progress pipeline.ProgressFunc) (*model.IngestResult, error) {
	// 1. 原图归档，失败只影响追溯，不阻塞流程
	if _, err := storage.ArchiveScreenshot(ctx, s.minioCfg.BucketName, imageData, mimeType); err != nil {
		log.Warnf("[Ingest] 截图归档失败: %v", err)
	}

	// 2. OCR 抽取文字，这一步失败则整个截图通道失败
	ocrText, err := s.visionClient.ExtractText(ctx, imageData, mimeType)
	if err != nil {
		return nil, err
	}

	// 3. 意图分类结果随 OCR 文本进入流程，作为合成阶段的提示
	intent, err := s.llmClient.ClassifyScreenshotIntent(ctx, ocrText)
	if err != nil {
		log.Warnf("[Ingest] 截图意图分类失败: %v", err)
		intent = "other"
	}
	log.Infof("[Ingest] 截图意图: %s, OCR 文本 %d 字符", intent, len([]rune(ocrText)))

	input := pipeline.Input{
		OCRText:   ocrText,
		Intent:    intent,
		SourceURL: "screenshot",
		UserID:    userID,
	}
	return s.orchestrator.Run(ctx, input, progress)
}
