package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"later-go/internal/config"
	"later-go/internal/model"
	"later-go/internal/repository"
	"later-go/pkg/database"
	"later-go/pkg/embedding"
	"later-go/pkg/llm"
	"later-go/pkg/log"
	"later-go/pkg/scrape"
	"later-go/pkg/search"
	"later-go/pkg/transcript"
	"later-go/pkg/urlutil"
)

const (
	// 同一个工具在此窗口内刚被研究过时，新请求直接短路
	freshnessWindow = 6 * time.Hour
	// 单个工具的研究互斥锁最长持有时间，兜底防止死锁
	runLockTTL = 10 * time.Minute
)

// ErrRunInProgress 表示同一个工具已有研究流程在执行。
var ErrRunInProgress = errors.New("该工具的研究流程正在执行中")

// Orchestrator 封装了研究流程的所有依赖，按固定顺序驱动各阶段。
type Orchestrator struct {
	llmClient       llm.Client
	searchClient    search.Client
	scraper         scrape.Scraper
	transcripts     transcript.Fetcher
	embeddingClient embedding.Client

	toolRepo    repository.ToolRepository
	docRepo     repository.DocumentRepository
	versionRepo repository.VersionRepository

	esIndex string
}

// NewOrchestrator 创建一个新的 Orchestrator 实例。
func NewOrchestrator(
	llmClient llm.Client,
	searchClient search.Client,
	scraper scrape.Scraper,
	transcripts transcript.Fetcher,
	embeddingClient embedding.Client,
	toolRepo repository.ToolRepository,
	docRepo repository.DocumentRepository,
	versionRepo repository.VersionRepository,
	esCfg config.ElasticsearchConfig,
) *Orchestrator {
	return &Orchestrator{
		llmClient:       llmClient,
		searchClient:    searchClient,
		scraper:         scraper,
		transcripts:     transcripts,
		embeddingClient: embeddingClient,
		toolRepo:        toolRepo,
		docRepo:         docRepo,
		versionRepo:     versionRepo,
		esIndex:         esCfg.IndexName,
	}
}

type stage struct {
	name string
	run  func(ctx context.Context, s *State) error
}

// Run 按固定顺序执行整条研究流程。
// progress 为 nil 时不推送进度事件。阶段失败时流程就地停止，
// 已落库的部分状态（比如新建的 Tool 和已索引的文档）不回滚。
func (o *Orchestrator) Run(ctx context.Context, input Input, progress ProgressFunc) (*model.IngestResult, error) {
	emit := func(event model.ProgressEvent) {
		if progress != nil {
			progress(event)
		}
	}

	// 同一个实体的并发研究在这里串行化，
	// 保证新鲜度检查和版本提交在锁内完成，不会俩请求同时通过检查
	lockKey := runLockKey(input)
	acquired, err := database.RDB.SetNX(ctx, lockKey, "1", runLockTTL).Result()
	if err != nil {
		log.Warnf("[Orchestrator] 获取研究锁失败，降级为无锁执行: %v", err)
	} else if !acquired {
		return nil, ErrRunInProgress
	} else {
		defer database.RDB.Del(context.Background(), lockKey)
	}

	s := &State{Input: input}
	stages := []stage{
		{StageResolveTool, o.resolveTool},
		{StageIngest, o.ingest},
		{StageAugmentSources, o.augmentSources},
		{StageResearch, o.research},
		{StageJuror, o.juror},
		{StageDBWrite, o.dbwrite},
	}

	for _, st := range stages {
		// 新鲜度短路要跳过 resolve_tool 之后的所有阶段
		if st.name != StageResolveTool && s.SkipProcessing {
			emit(model.ProgressEvent{Stage: st.name, Status: "skipped", ToolID: toolID(s)})
			continue
		}

		emit(model.ProgressEvent{Stage: st.name, Status: "running", ToolID: toolID(s)})
		if err := st.run(ctx, s); err != nil {
			log.Errorf("[Orchestrator] 阶段 %s 失败: %v", st.name, err)
			emit(model.ProgressEvent{Stage: st.name, Status: "error", Message: err.Error(), ToolID: toolID(s)})
			return o.partialResult(s), fmt.Errorf("阶段 %s 失败: %w", st.name, err)
		}
		emit(model.ProgressEvent{Stage: st.name, Status: "done", ToolID: toolID(s), ToolVersionID: versionID(s)})
	}

	return o.finalResult(s), nil
}

// partialResult 在阶段失败后返回已提交的状态，调用方至少能拿到工具 ID。
func (o *Orchestrator) partialResult(s *State) *model.IngestResult {
	if s.Tool == nil {
		return nil
	}
	return &model.IngestResult{
		ToolID:   s.Tool.ID,
		OnePager: s.Tool.OnePager,
	}
}

func (o *Orchestrator) finalResult(s *State) *model.IngestResult {
	result := &model.IngestResult{
		ToolID:  s.Tool.ID,
		Skipped: s.SkipProcessing,
	}
	if s.SkipProcessing {
		// 短路时回报既有的最新版本
		result.OnePager = s.Tool.OnePager
		if latest, err := o.versionRepo.FindLatestByToolID(s.Tool.ID); err == nil && latest != nil {
			result.ToolVersionID = latest.ID
		}
		return result
	}
	if s.Version != nil {
		result.ToolVersionID = s.Version.ID
		result.OnePager = s.Version.OnePager
	}
	return result
}

// runLockKey 以输入的身份键构造互斥锁键：有 URL 时用规范化 URL，否则用小写名字。
func runLockKey(input Input) string {
	if input.URL != "" {
		return "research:lock:" + urlutil.Canonicalize(input.URL)
	}
	return "research:lock:name:" + strings.ToLower(strings.TrimSpace(input.Name))
}

func toolID(s *State) string {
	if s.Tool == nil {
		return ""
	}
	return s.Tool.ID
}

func versionID(s *State) string {
	if s.Version == nil {
		return ""
	}
	return s.Version.ID
}
