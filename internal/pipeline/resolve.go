package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"later-go/internal/model"
	"later-go/internal/validators"
	"later-go/pkg/es"
	"later-go/pkg/llm"
	"later-go/pkg/log"
	"later-go/pkg/urlutil"
)

// ErrInvalidIdentity 表示输入既没有可用的 URL 也没有可信的产品名。
var ErrInvalidIdentity = errors.New("无法从输入中解析出有效的产品身份")

// resolveTool 把原始输入解析成一个已存在或新建的 Tool。
func (o *Orchestrator) resolveTool(ctx context.Context, s *State) error {
	// 1. 有 URL 时直接规范化
	if s.Input.URL != "" {
		s.CanonicalURL = urlutil.Canonicalize(s.Input.URL)
	} else if s.Input.Name != "" {
		// 2. 只有名字时尝试发现官网
		if discovered := o.discoverOfficialSite(ctx, s.Input.Name); discovered != "" {
			s.CanonicalURL = urlutil.Canonicalize(discovered)
		}
	}
	log.Infof("[Resolver] 步骤1: 身份规范化完成, CanonicalURL: %s", s.CanonicalURL)

	// 3. 按规范化 URL 查找既有工具
	if s.CanonicalURL != "" {
		tool, err := o.toolRepo.FindByCanonicalURL(s.CanonicalURL)
		if err != nil {
			return err
		}
		if tool != nil {
			s.Tool = tool
			if !s.Input.Force {
				// 新鲜度门：最新版本足够新时短路整条流程
				latest, err := o.versionRepo.FindLatestByToolID(tool.ID)
				if err != nil {
					return err
				}
				if latest != nil && time.Since(latest.CreatedAt) < freshnessWindow {
					log.Infof("[Resolver] 工具 %s 的最新版本仍在新鲜窗口内，短路本次研究", tool.ID)
					s.SkipProcessing = true
					return nil
				}
				return nil
			}

			// force=true 时只清掉本次来源对应的文档和向量，强制重采这一个来源
			log.Infof("[Resolver] force=true，清理工具 %s 来源 %s 的既有文档", tool.ID, s.CanonicalURL)
			deletedIDs, err := o.docRepo.DeleteByToolAndSource(tool.ID, s.CanonicalURL)
			if err != nil {
				log.Warnf("[Resolver] 清理文档失败: %v", err)
			}
			if err := es.DeleteByDocumentIDs(ctx, o.esIndex, deletedIDs); err != nil {
				log.Warnf("[Resolver] 清理向量块失败: %v", err)
			}
			return nil
		}
	}

	// 4. 按别名查找：优先用规范化 URL，其次用名字
	aliasKey := s.CanonicalURL
	if aliasKey == "" {
		aliasKey = s.Input.Name
	}
	if aliasKey != "" {
		tool, err := o.toolRepo.FindByAlias(aliasKey)
		if err != nil {
			return err
		}
		if tool != nil {
			log.Infof("[Resolver] 通过别名 '%s' 命中既有工具 %s", aliasKey, tool.ID)
			s.Tool = tool
			return nil
		}
	}

	// 5. 都没命中，校验名字后新建工具
	name := strings.TrimSpace(s.Input.Name)
	if name == "" && s.Input.OCRText != "" {
		// 截图通道：从 OCR 文本里抽产品名，失败时退回首行启发式
		extracted, err := o.llmClient.ExtractProductName(ctx, s.Input.OCRText)
		if err != nil {
			log.Warnf("[Resolver] 从 OCR 文本抽取产品名失败: %v", err)
		}
		name = extracted
		if name == "" {
			name = validators.FallbackNameFromText(s.Input.OCRText)
		}
	}

	plausible := validators.IsPlausibleProductName(name)
	if s.CanonicalURL == "" && !plausible {
		return ErrInvalidIdentity
	}
	if name == "" || !plausible {
		// 有 URL 但名字不可信时，先用域名占位，落库阶段再用合成结果纠正
		name = urlutil.Host(s.CanonicalURL)
	}

	tool := &model.Tool{
		Name:   name,
		Status: model.StatusPendingResearch,
	}
	if s.CanonicalURL != "" {
		canonical := s.CanonicalURL
		tool.CanonicalURL = &canonical
	}
	if err := o.toolRepo.Create(tool); err != nil {
		return err
	}
	s.Tool = tool
	log.Infof("[Resolver] 步骤5: 新建工具 %s (name=%s)", tool.ID, tool.Name)

	// 播种别名：名字 0.9，域名 0.95
	aliases := make([]*model.ToolAlias, 0, 2)
	if plausible {
		aliases = append(aliases, &model.ToolAlias{
			ToolID:     tool.ID,
			AliasValue: name,
			AliasType:  "name",
			Confidence: 0.9,
		})
	}
	if host := urlutil.Host(s.CanonicalURL); host != "" {
		aliases = append(aliases, &model.ToolAlias{
			ToolID:     tool.ID,
			AliasValue: host,
			AliasType:  "domain",
			Confidence: 0.95,
		})
	}
	if err := o.toolRepo.BatchCreateAliases(aliases); err != nil {
		log.Warnf("[Resolver] 写入别名失败: %v", err)
	}
	return nil
}

// officialSiteQueryTemplates 是官网发现用的固定查询组。
var officialSiteQueryTemplates = []string{
	"%s",
	"%s official site",
	"%s official website",
	"%s homepage",
	"%s product",
	"%s app",
}

// discoverOfficialSite 用固定查询组搜官网候选，交给模型仲裁，
// 仲裁结果和兜底候选都要过社交平台黑名单。失败只会返回空串，不会报错。
func (o *Orchestrator) discoverOfficialSite(ctx context.Context, name string) string {
	seen := make(map[string]bool)
	var candidates []llm.SiteCandidate
	for _, tmpl := range officialSiteQueryTemplates {
		query := fmt.Sprintf(tmpl, name)
		results, err := o.searchClient.Search(ctx, query, 3)
		if err != nil {
			log.Warnf("[Resolver] 官网发现查询 '%s' 失败: %v", query, err)
			continue
		}
		for _, r := range results {
			if r.URL == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			candidates = append(candidates, llm.SiteCandidate{
				URL:     r.URL,
				Title:   r.Title,
				Snippet: r.Content,
			})
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	picked, err := o.llmClient.PickOfficialSite(ctx, name, candidates)
	if err != nil {
		log.Warnf("[Resolver] 官网仲裁失败: %v", err)
		picked = ""
	}
	if picked != "" && !urlutil.IsSocialHost(picked) {
		return picked
	}

	// 仲裁放弃时按原始顺序取第一个非社交候选
	for _, cand := range candidates {
		if !urlutil.IsSocialHost(cand.URL) {
			return cand.URL
		}
	}
	return ""
}
