package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"later-go/internal/model"
	"later-go/internal/validators"
	"later-go/pkg/log"
)

// 版本快照冻结的文档数上限
const snapshotDocLimit = 200

// dbwrite 把一次运行的产出落库：版本翻转是唯一的硬步骤，
// 其余子步骤各自兜错，单个失败不影响整体提交。
func (o *Orchestrator) dbwrite(ctx context.Context, s *State) error {
	// 1. 名字修正：合成出了产品名，而当前名字不可信或像个 URL
	if name := strings.TrimSpace(s.OnePager.ProductName); name != "" {
		if !validators.IsPlausibleProductName(s.Tool.Name) || looksLikeURL(s.Tool.Name) {
			if err := o.toolRepo.UpdateName(s.Tool.ID, name); err != nil {
				log.Warnf("[DBWrite] 修正工具名失败: %v", err)
			} else {
				log.Infof("[DBWrite] 工具名由 '%s' 修正为 '%s'", s.Tool.Name, name)
				s.Tool.Name = name
			}
		}
	}

	onePagerJSON, err := json.Marshal(s.OnePager)
	if err != nil {
		return fmt.Errorf("序列化情报页失败: %w", err)
	}

	// 2. 更新工具上的快照和状态
	if err := o.toolRepo.UpdateOnePager(s.Tool.ID, string(onePagerJSON)); err != nil {
		log.Warnf("[DBWrite] 更新情报页快照失败: %v", err)
	}
	if err := o.toolRepo.UpdateStatus(s.Tool.ID, model.StatusPartiallyVerified); err != nil {
		log.Warnf("[DBWrite] 更新工具状态失败: %v", err)
	} else {
		s.Tool.Status = model.StatusPartiallyVerified
	}
	s.Tool.OnePager = string(onePagerJSON)

	// 3. 每条裁定写一行审计记录，未核验的论断带前缀
	for _, verdict := range s.Verdicts {
		value := verdict.Claim
		if !verdict.Verified {
			value = "UNVERIFIED: " + value
		}
		update := &model.ToolUpdate{
			ToolID:         s.Tool.ID,
			FieldChanged:   "claim_verification",
			NewValue:       value,
			CitationSource: verdict.CitationURL,
			SourceAgent:    "juror",
		}
		if err := o.toolRepo.CreateUpdate(update); err != nil {
			log.Warnf("[DBWrite] 写入审计记录失败: %v", err)
		}
	}

	// 4. 版本翻转与插入，这一步失败整个阶段失败
	version := &model.ToolVersion{
		ToolID:   s.Tool.ID,
		OnePager: string(onePagerJSON),
	}
	if err := o.versionRepo.CreateNewLatest(version); err != nil {
		return fmt.Errorf("提交新版本失败: %w", err)
	}
	s.Version = version
	log.Infof("[DBWrite] 工具 %s 提交版本 v%d (%s)", s.Tool.ID, version.VersionNo, version.ID)

	// 5. 把发起用户关联到新版本，重复关联静默吞掉
	if s.Input.UserID != "" {
		if err := o.versionRepo.LinkUser(s.Input.UserID, version.ID); err != nil {
			log.Warnf("[DBWrite] 关联用户失败: %v", err)
		}
	}

	// 6. 快照最近的文档
	docs, err := o.docRepo.FindRecentByToolID(s.Tool.ID, snapshotDocLimit)
	if err != nil {
		log.Warnf("[DBWrite] 读取快照文档失败: %v", err)
	} else {
		ids := make([]uint, 0, len(docs))
		for _, doc := range docs {
			ids = append(ids, doc.ID)
		}
		if err := o.versionRepo.LinkDocuments(version.ID, ids); err != nil {
			log.Warnf("[DBWrite] 冻结文档快照失败: %v", err)
		}
	}

	// 7. 落库媒体亮点，版本挂载失败时回退到工具挂载的遗留写法
	if len(s.Highlights) > 0 {
		items := buildMediaItems(s.Highlights, &version.ID, nil)
		if err := o.versionRepo.BatchCreateMediaItems(items); err != nil {
			log.Warnf("[DBWrite] 版本挂载媒体失败，回退工具挂载: %v", err)
			legacy := buildMediaItems(s.Highlights, nil, &s.Tool.ID)
			if err := o.versionRepo.BatchCreateMediaItems(legacy); err != nil {
				log.Warnf("[DBWrite] 工具挂载媒体也失败: %v", err)
			}
		}
	}
	return nil
}

func buildMediaItems(highlights []Highlight, versionID, toolID *string) []*model.MediaItem {
	seen := make(map[string]bool)
	items := make([]*model.MediaItem, 0, len(highlights))
	for _, h := range highlights {
		if seen[h.URL] {
			continue
		}
		seen[h.URL] = true
		items = append(items, &model.MediaItem{
			ToolVersionID: versionID,
			ToolID:        toolID,
			Kind:          h.Kind,
			URL:           h.URL,
			Title:         h.Title,
			Platform:      h.Platform,
			AuthorHandle:  h.AuthorHandle,
			ThumbnailURL:  h.ThumbnailURL,
			Score:         h.Score,
			IsHighlighted: true,
			IsInfluencer:  h.IsInfluencer,
			Metrics:       h.Metrics,
		})
	}
	return items
}

// looksLikeURL 粗判一个名字是不是原始 URL 或域名。
func looksLikeURL(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.Contains(lower, "://") || strings.HasPrefix(lower, "www.") ||
		(strings.Contains(lower, ".") && !strings.Contains(lower, " "))
}
