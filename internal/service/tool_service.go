package service

import (
	"context"
	"errors"
	"fmt"

	"later-go/internal/config"
	"later-go/internal/model"
	"later-go/internal/pipeline"
	"later-go/internal/repository"
	"later-go/pkg/es"
	"later-go/pkg/kafka"
	"later-go/pkg/log"
	"later-go/pkg/tasks"
)

// ErrToolNotFound 表示请求的工具不存在。
var ErrToolNotFound = errors.New("工具不存在")

// ToolService 定义了工具读操作、关注和异步刷新的接口。
type ToolService interface {
	List(userID string, page, size int) ([]model.ToolSummary, error)
	Get(toolID, userID string) (*model.ToolDetail, error)
	// ToggleWatch 切换关注状态，返回切换后的状态。
	ToggleWatch(userID, toolID string) (bool, error)
	// DeleteLatestVersion 删除或解除关联：带用户身份且其他用户还引用该工具时，
	// 只解除该用户的关联；没有其他引用时整树删除；匿名调用时删除最新版本并提升上一个。
	DeleteLatestVersion(toolID, userID string) error
	// EnqueueRefresh 投递一个异步刷新任务。
	EnqueueRefresh(toolID string, force bool) error
	// EnqueueWatchedSweep 为所有被关注的工具投递刷新任务，返回投递数量。
	EnqueueWatchedSweep() (int, error)

	// Process 消费队列里的刷新任务，满足 kafka.TaskProcessor。
	Process(ctx context.Context, task tasks.ResearchTask) error
}

type toolService struct {
	orchestrator  *pipeline.Orchestrator
	toolRepo      repository.ToolRepository
	versionRepo   repository.VersionRepository
	watchlistRepo repository.WatchlistRepository
	esIndex       string
}

// NewToolService 创建一个新的 ToolService 实例。
func NewToolService(
	orchestrator *pipeline.Orchestrator,
	toolRepo repository.ToolRepository,
	versionRepo repository.VersionRepository,
	watchlistRepo repository.WatchlistRepository,
	esCfg config.ElasticsearchConfig,
) ToolService {
	return &toolService{
		orchestrator:  orchestrator,
		toolRepo:      toolRepo,
		versionRepo:   versionRepo,
		watchlistRepo: watchlistRepo,
		esIndex:       esCfg.IndexName,
	}
}

func (s *toolService) List(userID string, page, size int) ([]model.ToolSummary, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	toolRows, err := s.toolRepo.List((page-1)*size, size)
	if err != nil {
		return nil, err
	}

	watching := make(map[string]bool)
	if userID != "" {
		ids, err := s.watchlistRepo.ListToolIDsByUser(userID)
		if err != nil {
			log.Warnf("[Tool] 读取关注列表失败: %v", err)
		}
		for _, id := range ids {
			watching[id] = true
		}
	}

	summaries := make([]model.ToolSummary, 0, len(toolRows))
	for _, t := range toolRows {
		summaries = append(summaries, model.ToolSummary{
			ID:           t.ID,
			Name:         t.Name,
			CanonicalURL: t.CanonicalURL,
			Status:       t.Status,
			CategoryTags: t.CategoryTags,
			Watching:     watching[t.ID],
			UpdatedAt:    t.UpdatedAt,
		})
	}
	return summaries, nil
}

func (s *toolService) Get(toolID, userID string) (*model.ToolDetail, error) {
	tool, err := s.toolRepo.FindByID(toolID)
	if err != nil {
		return nil, err
	}
	if tool == nil {
		return nil, ErrToolNotFound
	}

	detail := &model.ToolDetail{Tool: *tool}

	// 有身份时优先呈现用户关联的版本，没有关联或匿名访问时退回最新版本
	var served *model.ToolVersion
	if userID != "" {
		served, err = s.versionRepo.FindUserLinkedByToolID(userID, toolID)
		if err != nil {
			log.Warnf("[Tool] 读取用户关联版本失败: %v", err)
			served = nil
		}
	}
	if served == nil {
		served, err = s.versionRepo.FindLatestByToolID(toolID)
		if err != nil {
			return nil, err
		}
	}
	detail.Version = served

	versionID := ""
	if served != nil {
		versionID = served.ID
	}
	items, err := s.versionRepo.FindMediaItems(versionID, toolID)
	if err != nil {
		log.Warnf("[Tool] 读取媒体条目失败: %v", err)
	}
	for _, item := range items {
		detail.MediaItems = append(detail.MediaItems, *item)
	}

	updates, err := s.toolRepo.ListUpdates(toolID, 20)
	if err != nil {
		log.Warnf("[Tool] 读取审计记录失败: %v", err)
	}
	for _, u := range updates {
		detail.Updates = append(detail.Updates, *u)
	}
	return detail, nil
}

func (s *toolService) ToggleWatch(userID, toolID string) (bool, error) {
	tool, err := s.toolRepo.FindByID(toolID)
	if err != nil {
		return false, err
	}
	if tool == nil {
		return false, ErrToolNotFound
	}

	watching, err := s.watchlistRepo.IsWatching(userID, toolID)
	if err != nil {
		return false, err
	}
	if watching {
		return false, s.watchlistRepo.Remove(userID, toolID)
	}
	return true, s.watchlistRepo.Add(userID, toolID)
}

func (s *toolService) DeleteLatestVersion(toolID, userID string) error {
	tool, err := s.toolRepo.FindByID(toolID)
	if err != nil {
		return err
	}
	if tool == nil {
		return ErrToolNotFound
	}

	// 匿名调用：删除最新版本，上一个版本随之提升
	if userID == "" {
		return s.versionRepo.DeleteLatest(toolID)
	}

	others, err := s.versionRepo.CountOtherLinkedUsers(toolID, userID)
	if err != nil {
		return err
	}
	if others > 0 {
		// 别的用户还引用着这个工具，只解除当前用户的关联和关注
		log.Infof("[Tool] 工具 %s 仍被 %d 个其他用户引用，仅解除用户 %s 的关联", toolID, others, userID)
		if err := s.versionRepo.UnlinkUserFromTool(userID, toolID); err != nil {
			return err
		}
		if err := s.watchlistRepo.Remove(userID, toolID); err != nil {
			log.Warnf("[Tool] 移除关注记录失败: %v", err)
		}
		return nil
	}

	// 没有其他引用者，整树删除并清理向量索引
	log.Infof("[Tool] 工具 %s 无其他引用者，执行整树删除", toolID)
	if err := s.toolRepo.DeleteTree(toolID); err != nil {
		return err
	}
	if err := es.DeleteByToolID(context.Background(), s.esIndex, toolID); err != nil {
		log.Warnf("[Tool] 清理工具 %s 的向量块失败: %v", toolID, err)
	}
	return nil
}

func (s *toolService) EnqueueRefresh(toolID string, force bool) error {
	tool, err := s.toolRepo.FindByID(toolID)
	if err != nil {
		return err
	}
	if tool == nil {
		return ErrToolNotFound
	}
	return kafka.ProduceResearchTask(tasks.ResearchTask{
		ToolID:       toolID,
		Trigger:      "manual_refresh",
		ForceRefresh: force,
	})
}

func (s *toolService) EnqueueWatchedSweep() (int, error) {
	ids, err := s.watchlistRepo.AllWatchedToolIDs()
	if err != nil {
		return 0, err
	}
	enqueued := 0
	for _, toolID := range ids {
		err := kafka.ProduceResearchTask(tasks.ResearchTask{
			ToolID:  toolID,
			Trigger: "watchlist_sweep",
		})
		if err != nil {
			log.Warnf("[Tool] 投递刷新任务失败 (tool=%s): %v", toolID, err)
			continue
		}
		enqueued++
	}
	log.Infof("[Tool] 关注列表扫描完成，投递 %d 个刷新任务", enqueued)
	return enqueued, nil
}

// Process 执行一个队列里的刷新任务：重跑研究流程并把关注者重新关联到新版本。
func (s *toolService) Process(ctx context.Context, task tasks.ResearchTask) error {
	tool, err := s.toolRepo.FindByID(task.ToolID)
	if err != nil {
		return err
	}
	if tool == nil {
		// 工具已被删除，任务作废
		log.Warnf("[Tool] 刷新任务指向的工具 %s 不存在，跳过", task.ToolID)
		return nil
	}

	input := pipeline.Input{Force: task.ForceRefresh}
	if tool.CanonicalURL != nil && *tool.CanonicalURL != "" {
		input.URL = *tool.CanonicalURL
	} else {
		input.Name = tool.Name
	}

	result, err := s.orchestrator.Run(ctx, input, nil)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		// 已有在跑的流程，这个任务没必要重试
		log.Infof("[Tool] 工具 %s 已有研究流程在执行，刷新任务跳过", task.ToolID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("刷新工具 %s 失败: %w", task.ToolID, err)
	}

	// 把所有关注者重新关联到新版本
	if result != nil && result.ToolVersionID != "" && !result.Skipped {
		userIDs, err := s.watchlistRepo.ListUserIDsByTool(task.ToolID)
		if err != nil {
			log.Warnf("[Tool] 读取关注者失败: %v", err)
			return nil
		}
		for _, userID := range userIDs {
			if err := s.versionRepo.LinkUser(userID, result.ToolVersionID); err != nil {
				log.Warnf("[Tool] 重关联用户 %s 失败: %v", userID, err)
			}
		}
	}
	return nil
}
